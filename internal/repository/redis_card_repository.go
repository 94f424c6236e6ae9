package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"seven-oz-loyalty/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// incrementScript adds one stamp to the JSON card at KEYS[1], creating it
// with capacity ARGV[2] when absent.
var incrementScript = redis.NewScript(`
local raw = redis.call('GET', KEYS[1])
local card
if raw then
	card = cjson.decode(raw)
else
	card = {user_id = ARGV[1], stamps = 0, capacity = tonumber(ARGV[2])}
end
card.stamps = math.min(card.stamps + 1, card.capacity)
local encoded = cjson.encode(card)
redis.call('SET', KEYS[1], encoded)
return encoded
`)

// RedisCardRepository implements CardRepository with one JSON string per card.
type RedisCardRepository struct {
	client    *redis.Client
	keyPrefix string
	logger    zerolog.Logger
}

// NewRedisCardRepository creates a new Redis-backed card repository.
func NewRedisCardRepository(client *redis.Client, keyPrefix string, logger zerolog.Logger) *RedisCardRepository {
	return &RedisCardRepository{
		client:    client,
		keyPrefix: keyPrefix,
		logger:    logger.With().Str("repository", "card-redis").Logger(),
	}
}

func (r *RedisCardRepository) key(userID model.UserID) string {
	return r.keyPrefix + userID.String()
}

// FindByUserID retrieves a card by user id.
func (r *RedisCardRepository) FindByUserID(ctx context.Context, userID model.UserID) (model.StampCard, error) {
	data, err := r.client.Get(ctx, r.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.StampCard{}, ErrCardNotFound
	}
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to get card")
		return model.StampCard{}, fmt.Errorf("failed to get card: %w", err)
	}

	return decodeCard(data)
}

// Insert stores the card only if the key is not already set.
func (r *RedisCardRepository) Insert(ctx context.Context, card model.StampCard) error {
	data, err := json.Marshal(newCardDocument(card))
	if err != nil {
		return fmt.Errorf("failed to encode card: %w", err)
	}

	ok, err := r.client.SetNX(ctx, r.key(card.UserID), data, 0).Result()
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", card.UserID.String()).Msg("failed to insert card")
		return fmt.Errorf("failed to insert card: %w", err)
	}
	if !ok {
		return ErrCardExists
	}

	r.logger.Debug().Str("user_id", card.UserID.String()).Msg("card inserted")
	return nil
}

// Replace overwrites the card.
func (r *RedisCardRepository) Replace(ctx context.Context, card model.StampCard) error {
	data, err := json.Marshal(newCardDocument(card))
	if err != nil {
		return fmt.Errorf("failed to encode card: %w", err)
	}

	if err := r.client.Set(ctx, r.key(card.UserID), data, 0).Err(); err != nil {
		r.logger.Error().Err(err).Str("user_id", card.UserID.String()).Msg("failed to replace card")
		return fmt.Errorf("failed to replace card: %w", err)
	}

	return nil
}

// IncrementStamps adds a stamp inside a Lua script so the read and write
// happen as one server-side step.
func (r *RedisCardRepository) IncrementStamps(ctx context.Context, userID model.UserID, capacity int) (model.StampCard, error) {
	data, err := incrementScript.Run(ctx, r.client, []string{r.key(userID)}, userID.String(), capacity).Text()
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to increment stamps")
		return model.StampCard{}, fmt.Errorf("failed to increment stamps: %w", err)
	}

	return decodeCard([]byte(data))
}

func decodeCard(data []byte) (model.StampCard, error) {
	var doc cardDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return model.StampCard{}, fmt.Errorf("failed to decode card: %w", err)
	}
	return doc.toCard(), nil
}
