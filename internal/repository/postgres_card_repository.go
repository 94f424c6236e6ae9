package repository

import (
	"context"
	"errors"
	"fmt"

	"seven-oz-loyalty/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// CardSchema creates the stamp_cards table. The CHECK constraints mirror
// model.StampCard.Validate.
const CardSchema = `
	CREATE TABLE IF NOT EXISTS stamp_cards (
		user_id TEXT PRIMARY KEY,
		stamps INTEGER NOT NULL DEFAULT 0 CHECK (stamps >= 0),
		capacity INTEGER NOT NULL CHECK (capacity > 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CHECK (stamps <= capacity)
	);
`

// PostgresCardRepository implements CardRepository using PostgreSQL.
type PostgresCardRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgresCardRepository creates a new PostgreSQL-backed card repository.
func NewPostgresCardRepository(pool *pgxpool.Pool, logger zerolog.Logger) *PostgresCardRepository {
	return &PostgresCardRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "card-postgres").Logger(),
	}
}

// Migrate creates the schema if it does not exist.
func (r *PostgresCardRepository) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, CardSchema); err != nil {
		r.logger.Error().Err(err).Msg("failed to create stamp_cards schema")
		return fmt.Errorf("failed to create stamp_cards schema: %w", err)
	}
	return nil
}

// FindByUserID retrieves a card by user id.
func (r *PostgresCardRepository) FindByUserID(ctx context.Context, userID model.UserID) (model.StampCard, error) {
	query := `
		SELECT user_id, stamps, capacity
		FROM stamp_cards
		WHERE user_id = $1
	`

	card, err := scanCard(r.pool.QueryRow(ctx, query, userID.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("user_id", userID.String()).Msg("card not found")
			return model.StampCard{}, ErrCardNotFound
		}
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to query card")
		return model.StampCard{}, fmt.Errorf("failed to query card: %w", err)
	}

	return card, nil
}

// Insert creates a card unless the user id is already present.
func (r *PostgresCardRepository) Insert(ctx context.Context, card model.StampCard) error {
	query := `
		INSERT INTO stamp_cards (user_id, stamps, capacity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO NOTHING
	`

	tag, err := r.pool.Exec(ctx, query, card.UserID.String(), card.Stamps, card.Capacity)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", card.UserID.String()).Msg("failed to insert card")
		return fmt.Errorf("failed to insert card: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrCardExists
	}

	r.logger.Debug().Str("user_id", card.UserID.String()).Msg("card inserted")
	return nil
}

// Replace upserts the card keyed by user id.
func (r *PostgresCardRepository) Replace(ctx context.Context, card model.StampCard) error {
	query := `
		INSERT INTO stamp_cards (user_id, stamps, capacity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET stamps = EXCLUDED.stamps,
			capacity = EXCLUDED.capacity,
			updated_at = NOW()
	`

	if _, err := r.pool.Exec(ctx, query, card.UserID.String(), card.Stamps, card.Capacity); err != nil {
		r.logger.Error().Err(err).Str("user_id", card.UserID.String()).Msg("failed to replace card")
		return fmt.Errorf("failed to replace card: %w", err)
	}

	return nil
}

// IncrementStamps adds a stamp in one statement, creating the card if needed.
func (r *PostgresCardRepository) IncrementStamps(ctx context.Context, userID model.UserID, capacity int) (model.StampCard, error) {
	query := `
		INSERT INTO stamp_cards (user_id, stamps, capacity)
		VALUES ($1, LEAST(1, $2::INTEGER), $2::INTEGER)
		ON CONFLICT (user_id) DO UPDATE
		SET stamps = LEAST(stamp_cards.stamps + 1, stamp_cards.capacity),
			updated_at = NOW()
		RETURNING user_id, stamps, capacity
	`

	card, err := scanCard(r.pool.QueryRow(ctx, query, userID.String(), capacity))
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to increment stamps")
		return model.StampCard{}, fmt.Errorf("failed to increment stamps: %w", err)
	}

	return card, nil
}

func scanCard(row pgx.Row) (model.StampCard, error) {
	var (
		userID string
		card   model.StampCard
	)
	if err := row.Scan(&userID, &card.Stamps, &card.Capacity); err != nil {
		return model.StampCard{}, err
	}
	card.UserID = model.UserID(userID)
	return card, nil
}
