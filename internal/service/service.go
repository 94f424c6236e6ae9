package service

import (
	"context"

	"seven-oz-loyalty/internal/claimcode"
	"seven-oz-loyalty/internal/model"
)

// CardService owns stamp card lifecycle on top of a CardRepository.
type CardService interface {
	// GetOrCreate returns the customer's card, creating an empty one on first access.
	GetOrCreate(ctx context.Context, userID model.UserID) (model.StampCard, error)

	// AddStamp adds one stamp, clamped to capacity, and returns the updated card.
	AddStamp(ctx context.Context, userID model.UserID) (model.StampCard, error)

	// Reset replaces the card with an empty one. Idempotent.
	Reset(ctx context.Context, userID model.UserID) error
}

// ClaimService is the surface used by the HTTP handlers.
type ClaimService interface {
	// CurrentCode returns the code to display, issuing one if needed.
	CurrentCode(ctx context.Context) (string, error)

	// Claim consumes the submitted code and stamps the customer's card.
	Claim(ctx context.Context, customerID, code string) (model.StampCard, error)

	// GetCard returns the customer's card, creating it on first access.
	GetCard(ctx context.Context, customerID string) (model.StampCard, error)

	// ResetCard empties the customer's card.
	ResetCard(ctx context.Context, customerID string) error
}

// CodeIssuer is implemented by claimcode.Issuer.
type CodeIssuer interface {
	CurrentCode() (string, error)
	TryConsume(submitted string) claimcode.ConsumeResult
}
