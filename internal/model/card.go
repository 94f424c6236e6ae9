package model

import "fmt"

// DefaultCardCapacity is the number of stamps that fills a card.
const DefaultCardCapacity = 10

// UserID identifies a customer. It is compared by exact value.
type UserID string

// String returns the raw identifier.
func (id UserID) String() string {
	return string(id)
}

// StampCard is a customer's loyalty card. Values are copies; the store owns the
// persisted record.
type StampCard struct {
	UserID   UserID `json:"userId" bson:"user_id" db:"user_id"`
	Stamps   int    `json:"stamps" bson:"stamps" db:"stamps"`
	Capacity int    `json:"capacity" bson:"capacity" db:"capacity"`
}

// NewStampCard returns an empty card for the given customer.
func NewStampCard(userID UserID) StampCard {
	return StampCard{
		UserID:   userID,
		Stamps:   0,
		Capacity: DefaultCardCapacity,
	}
}

// WithStamp returns a copy of the card with one more stamp, clamped to capacity.
func (c StampCard) WithStamp() StampCard {
	c.Stamps = min(c.Stamps+1, c.Capacity)
	return c
}

// IsFull reports whether the card has reached capacity.
func (c StampCard) IsFull() bool {
	return c.Stamps >= c.Capacity
}

// Validate checks 0 <= stamps <= capacity. A failure here is a defect in a
// mutation path or corrupted storage, never a client error.
func (c StampCard) Validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("%w: card %q has capacity %d", ErrInvariantViolation, c.UserID, c.Capacity)
	}
	if c.Stamps < 0 || c.Stamps > c.Capacity {
		return fmt.Errorf("%w: card %q has %d stamps (capacity %d)", ErrInvariantViolation, c.UserID, c.Stamps, c.Capacity)
	}
	return nil
}
