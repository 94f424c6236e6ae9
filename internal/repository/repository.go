package repository

import (
	"context"
	"errors"

	"seven-oz-loyalty/internal/model"
)

var (
	// ErrCardNotFound is returned by FindByUserID when no record exists.
	ErrCardNotFound = errors.New("stamp card not found")

	// ErrCardExists is returned by Insert when a record with the same user id
	// is already stored.
	ErrCardExists = errors.New("stamp card already exists")
)

// CardRepository is the persistence collaborator for stamp cards: a
// key-value store keyed by user id.
type CardRepository interface {
	// FindByUserID retrieves the card stored for the exact user id.
	// Returns ErrCardNotFound if there is none.
	FindByUserID(ctx context.Context, userID model.UserID) (model.StampCard, error)

	// Insert stores a new card. Returns ErrCardExists if a card with the
	// same user id is already stored; the stored card is left untouched.
	Insert(ctx context.Context, card model.StampCard) error

	// Replace writes the card keyed by its user id, creating the record if
	// it does not exist. Last writer wins.
	Replace(ctx context.Context, card model.StampCard) error
}

// AtomicStamper is implemented by backends that can add a stamp in a single
// conditional write, creating the card when absent and clamping at capacity.
type AtomicStamper interface {
	IncrementStamps(ctx context.Context, userID model.UserID, capacity int) (model.StampCard, error)
}

// cardDocument is the persisted record shape shared by the document backends.
type cardDocument struct {
	UserID   string `json:"user_id" bson:"user_id"`
	Stamps   int    `json:"stamps" bson:"stamps"`
	Capacity int    `json:"capacity" bson:"capacity"`
}

func newCardDocument(card model.StampCard) cardDocument {
	return cardDocument{
		UserID:   card.UserID.String(),
		Stamps:   card.Stamps,
		Capacity: card.Capacity,
	}
}

func (d cardDocument) toCard() model.StampCard {
	return model.StampCard{
		UserID:   model.UserID(d.UserID),
		Stamps:   d.Stamps,
		Capacity: d.Capacity,
	}
}

var (
	_ CardRepository = (*MemoryCardRepository)(nil)
	_ CardRepository = (*PostgresCardRepository)(nil)
	_ CardRepository = (*MongoCardRepository)(nil)
	_ CardRepository = (*RedisCardRepository)(nil)
	_ CardRepository = (*S3CardRepository)(nil)

	_ AtomicStamper = (*MemoryCardRepository)(nil)
	_ AtomicStamper = (*PostgresCardRepository)(nil)
	_ AtomicStamper = (*MongoCardRepository)(nil)
	_ AtomicStamper = (*RedisCardRepository)(nil)
)
