package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"seven-oz-loyalty/internal/claimcode"
	"seven-oz-loyalty/internal/model"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// MaxCustomerIDLength is the longest accepted customer id in bytes.
const MaxCustomerIDLength = 128

var tracer = otel.Tracer("seven-oz-loyalty/service")

// claimService implements ClaimService.
type claimService struct {
	issuer    CodeIssuer
	cards     CardService
	idPattern *regexp.Regexp
	logger    zerolog.Logger
}

// NewClaimService creates a new claim service. idPattern may be nil, in
// which case any non-empty id up to MaxCustomerIDLength bytes is accepted.
func NewClaimService(issuer CodeIssuer, cards CardService, idPattern *regexp.Regexp, logger zerolog.Logger) ClaimService {
	return &claimService{
		issuer:    issuer,
		cards:     cards,
		idPattern: idPattern,
		logger:    logger.With().Str("service", "claim").Logger(),
	}
}

// CurrentCode returns the code to display.
func (s *claimService) CurrentCode(ctx context.Context) (string, error) {
	return s.issuer.CurrentCode()
}

// Claim validates the request, consumes the code, then stamps the card.
// Once the code is consumed it stays consumed even if the stamp cannot be
// recorded.
func (s *claimService) Claim(ctx context.Context, customerID, code string) (model.StampCard, error) {
	ctx, span := tracer.Start(ctx, "ClaimService.Claim")
	defer span.End()

	userID, err := s.parseCustomerID(customerID)
	if err != nil {
		span.SetAttributes(attribute.String("claim.result", "invalid"))
		return model.StampCard{}, err
	}
	if !claimcode.IsWellFormed(code) {
		span.SetAttributes(attribute.String("claim.result", "invalid"))
		return model.StampCard{}, fmt.Errorf("%w: malformed claim code", model.ErrValidation)
	}

	result := s.issuer.TryConsume(code)
	span.SetAttributes(attribute.String("claim.result", result.String()))

	if result != claimcode.Consumed {
		s.logger.Info().
			Str("user_id", userID.String()).
			Str("reason", result.String()).
			Msg("claim rejected")
		return model.StampCard{}, model.ErrClaimRejected
	}

	card, err := s.cards.AddStamp(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "stamp not recorded")
		s.logger.Error().
			Err(err).
			Str("user_id", userID.String()).
			Bool("code_lost", true).
			Msg("claim code consumed but stamp not recorded")
		return model.StampCard{}, err
	}

	s.logger.Info().
		Str("user_id", userID.String()).
		Int("stamps", card.Stamps).
		Int("capacity", card.Capacity).
		Msg("claim accepted")

	return card, nil
}

// GetCard returns the customer's card.
func (s *claimService) GetCard(ctx context.Context, customerID string) (model.StampCard, error) {
	userID, err := s.parseCustomerID(customerID)
	if err != nil {
		return model.StampCard{}, err
	}
	return s.cards.GetOrCreate(ctx, userID)
}

// ResetCard empties the customer's card.
func (s *claimService) ResetCard(ctx context.Context, customerID string) error {
	userID, err := s.parseCustomerID(customerID)
	if err != nil {
		return err
	}

	if err := s.cards.Reset(ctx, userID); err != nil {
		return err
	}

	s.logger.Info().Str("user_id", userID.String()).Msg("card reset")
	return nil
}

func (s *claimService) parseCustomerID(raw string) (model.UserID, error) {
	if raw == "" {
		return "", fmt.Errorf("%w: customer id is required", model.ErrValidation)
	}
	if len(raw) > MaxCustomerIDLength {
		return "", fmt.Errorf("%w: customer id exceeds %d bytes", model.ErrValidation, MaxCustomerIDLength)
	}
	// Stores reject NUL and invalid UTF-8 only after the code is consumed.
	if !utf8.ValidString(raw) {
		return "", fmt.Errorf("%w: customer id is not valid UTF-8", model.ErrValidation)
	}
	if strings.IndexFunc(raw, unicode.IsControl) >= 0 {
		return "", fmt.Errorf("%w: customer id contains control characters", model.ErrValidation)
	}
	if s.idPattern != nil && !s.idPattern.MatchString(raw) {
		return "", fmt.Errorf("%w: customer id does not match the configured pattern", model.ErrValidation)
	}
	return model.UserID(raw), nil
}
