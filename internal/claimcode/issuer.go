package claimcode

import (
	"crypto/subtle"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Issuer owns the single active claim code. Both operations run as one
// critical section each; the lock is never held across I/O.
type Issuer struct {
	mu        sync.Mutex
	active    *ClaimCode
	generator Generator
	logger    zerolog.Logger
}

// NewIssuer creates an issuer with no active code.
func NewIssuer(generator Generator, logger zerolog.Logger) *Issuer {
	return &Issuer{
		generator: generator,
		logger:    logger.With().Str("component", "claim-code-issuer").Logger(),
	}
}

// CurrentCode returns the active code, issuing a new one first when there is
// none or the active one has been used. Rotation happens only here.
func (i *Issuer) CurrentCode() (string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.active != nil && !i.active.Used {
		return i.active.Value, nil
	}

	value, err := i.generator.Generate()
	if err != nil {
		i.logger.Error().Err(err).Msg("failed to generate claim code")
		return "", fmt.Errorf("failed to issue claim code: %w", err)
	}

	i.active = &ClaimCode{Value: value}
	i.logger.Info().Msg("issued new claim code")

	return value, nil
}

// TryConsume checks submitted against the active code. On a match the code is
// retired entirely, so the next CurrentCode issues a fresh one. A mismatch
// leaves the active code valid for other customers.
func (i *Issuer) TryConsume(submitted string) ConsumeResult {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.active == nil || i.active.Used {
		return NoActiveCode
	}

	if subtle.ConstantTimeCompare([]byte(i.active.Value), []byte(submitted)) != 1 {
		return Mismatch
	}

	i.active = nil
	return Consumed
}
