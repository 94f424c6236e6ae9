package claimcode

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	// DefaultCodeLength matches the length printed into the display's QR link.
	DefaultCodeLength = 12

	// MinCodeLength and MaxCodeLength bound the configurable length.
	MinCodeLength = 8
	MaxCodeLength = 64

	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// randomGenerator draws codes uniformly from the alphanumeric alphabet.
type randomGenerator struct {
	length int
}

// NewRandomGenerator creates a generator of alphanumeric codes of the given length.
func NewRandomGenerator(length int) (Generator, error) {
	if length < MinCodeLength || length > MaxCodeLength {
		return nil, fmt.Errorf("claim code length must be between %d and %d, got %d", MinCodeLength, MaxCodeLength, length)
	}
	return &randomGenerator{length: length}, nil
}

// Generate returns a new code read from crypto/rand.
func (g *randomGenerator) Generate() (string, error) {
	size := big.NewInt(int64(len(alphabet)))
	code := make([]byte, g.length)
	for i := range code {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", fmt.Errorf("failed to read random source: %w", err)
		}
		code[i] = alphabet[n.Int64()]
	}
	return string(code), nil
}

// IsWellFormed reports whether s could have been produced by any generator
// configuration: non-empty, at most MaxCodeLength, alphanumeric only.
func IsWellFormed(s string) bool {
	if s == "" || len(s) > MaxCodeLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}
