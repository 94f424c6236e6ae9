package repository

import (
	"context"
	"sync"

	"seven-oz-loyalty/internal/model"

	"github.com/rs/zerolog"
)

// MemoryCardRepository implements CardRepository in process memory.
// Stored values are copies, so callers never share state with the map.
type MemoryCardRepository struct {
	mu     sync.RWMutex
	cards  map[model.UserID]model.StampCard
	logger zerolog.Logger
}

// NewMemoryCardRepository creates an empty in-memory card repository.
func NewMemoryCardRepository(logger zerolog.Logger) *MemoryCardRepository {
	return &MemoryCardRepository{
		cards:  make(map[model.UserID]model.StampCard),
		logger: logger.With().Str("repository", "card-memory").Logger(),
	}
}

// FindByUserID retrieves the card stored for the user id.
func (r *MemoryCardRepository) FindByUserID(ctx context.Context, userID model.UserID) (model.StampCard, error) {
	if err := ctx.Err(); err != nil {
		return model.StampCard{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	card, ok := r.cards[userID]
	if !ok {
		return model.StampCard{}, ErrCardNotFound
	}
	return card, nil
}

// Insert stores a new card unless one already exists.
func (r *MemoryCardRepository) Insert(ctx context.Context, card model.StampCard) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.cards[card.UserID]; ok {
		return ErrCardExists
	}
	r.cards[card.UserID] = card

	r.logger.Debug().Str("user_id", card.UserID.String()).Msg("card inserted")
	return nil
}

// Replace writes the card, creating it if absent.
func (r *MemoryCardRepository) Replace(ctx context.Context, card model.StampCard) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.cards[card.UserID] = card
	return nil
}

// IncrementStamps adds one stamp under the write lock.
func (r *MemoryCardRepository) IncrementStamps(ctx context.Context, userID model.UserID, capacity int) (model.StampCard, error) {
	if err := ctx.Err(); err != nil {
		return model.StampCard{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	card, ok := r.cards[userID]
	if !ok {
		card = model.StampCard{UserID: userID, Capacity: capacity}
	}
	card = card.WithStamp()
	r.cards[userID] = card

	return card, nil
}

// Len returns the number of stored cards.
func (r *MemoryCardRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cards)
}
