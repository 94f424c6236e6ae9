package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"seven-oz-loyalty/internal/model"
	"seven-oz-loyalty/internal/repository"

	"github.com/rs/zerolog"
)

// DefaultStoreTimeout bounds a single card operation when none is configured.
const DefaultStoreTimeout = 5 * time.Second

// CardServiceOptions tunes how the card service talks to its repository.
type CardServiceOptions struct {
	// Timeout bounds each operation, including retries inside it.
	Timeout time.Duration

	// AtomicIncrement uses repository.AtomicStamper for AddStamp when the
	// backend supports it.
	AtomicIncrement bool
}

// cardService implements CardService.
type cardService struct {
	repo    repository.CardRepository
	stamper repository.AtomicStamper
	timeout time.Duration
	logger  zerolog.Logger
}

// NewCardService creates a new card service.
func NewCardService(repo repository.CardRepository, opts CardServiceOptions, logger zerolog.Logger) CardService {
	s := &cardService{
		repo:    repo,
		timeout: opts.Timeout,
		logger:  logger.With().Str("service", "card").Logger(),
	}
	if s.timeout <= 0 {
		s.timeout = DefaultStoreTimeout
	}

	if opts.AtomicIncrement {
		if stamper, ok := repo.(repository.AtomicStamper); ok {
			s.stamper = stamper
			s.logger.Info().Msg("atomic stamp increment enabled")
		} else {
			s.logger.Warn().Msg("store backend has no atomic increment, using read-modify-write")
		}
	}

	return s
}

// GetOrCreate retrieves the card, inserting an empty one if absent.
func (s *cardService) GetOrCreate(ctx context.Context, userID model.UserID) (model.StampCard, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.getOrCreate(ctx, userID)
}

func (s *cardService) getOrCreate(ctx context.Context, userID model.UserID) (model.StampCard, error) {
	card, err := s.repo.FindByUserID(ctx, userID)
	if err == nil {
		return s.checked(card)
	}
	if !errors.Is(err, repository.ErrCardNotFound) {
		return model.StampCard{}, storeError("find card", err)
	}

	card = model.NewStampCard(userID)
	err = s.repo.Insert(ctx, card)
	if errors.Is(err, repository.ErrCardExists) {
		// Lost a creation race; the stored card wins.
		existing, findErr := s.repo.FindByUserID(ctx, userID)
		if findErr != nil {
			return model.StampCard{}, storeError("find card after insert conflict", findErr)
		}
		return s.checked(existing)
	}
	if err != nil {
		return model.StampCard{}, storeError("insert card", err)
	}

	s.logger.Debug().Str("user_id", userID.String()).Msg("card created")
	return card, nil
}

// AddStamp adds one stamp and writes the card back.
func (s *cardService) AddStamp(ctx context.Context, userID model.UserID) (model.StampCard, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if s.stamper != nil {
		card, err := s.stamper.IncrementStamps(ctx, userID, model.DefaultCardCapacity)
		if err != nil {
			return model.StampCard{}, storeError("increment stamps", err)
		}
		return s.checked(card)
	}

	card, err := s.getOrCreate(ctx, userID)
	if err != nil {
		return model.StampCard{}, err
	}

	updated := card.WithStamp()
	if err := s.repo.Replace(ctx, updated); err != nil {
		return model.StampCard{}, storeError("replace card", err)
	}

	s.logger.Debug().
		Str("user_id", userID.String()).
		Int("stamps", updated.Stamps).
		Bool("full", updated.IsFull()).
		Msg("stamp added")

	return updated, nil
}

// Reset writes an empty card, creating it if needed.
func (s *cardService) Reset(ctx context.Context, userID model.UserID) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.repo.Replace(ctx, model.NewStampCard(userID)); err != nil {
		return storeError("reset card", err)
	}

	s.logger.Debug().Str("user_id", userID.String()).Msg("card reset")
	return nil
}

// checked rejects cards read back outside 0 <= stamps <= capacity.
func (s *cardService) checked(card model.StampCard) (model.StampCard, error) {
	if err := card.Validate(); err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", card.UserID.String()).
			Int("stamps", card.Stamps).
			Int("capacity", card.Capacity).
			Msg("stored card violates invariant")
		return model.StampCard{}, err
	}
	return card, nil
}

func storeError(op string, err error) error {
	return fmt.Errorf("%w: failed to %s: %w", model.ErrStore, op, err)
}
