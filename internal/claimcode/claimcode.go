package claimcode

// ConsumeResult is the outcome of submitting a code to the issuer.
type ConsumeResult int

const (
	// Consumed means the code matched and has been retired.
	Consumed ConsumeResult = iota
	// NoActiveCode means nothing has been issued since the last consume.
	NoActiveCode
	// Mismatch means a code is active but the submission did not match it.
	Mismatch
)

// String returns a log-friendly name for the result.
func (r ConsumeResult) String() string {
	switch r {
	case Consumed:
		return "consumed"
	case NoActiveCode:
		return "no_active_code"
	case Mismatch:
		return "mismatch"
	default:
		return "unknown"
	}
}

// ClaimCode is the single displayable one-time code.
type ClaimCode struct {
	Value string
	// Used is reserved for the transient consumed state; TryConsume clears
	// the cell instead of setting it.
	Used bool
}

// Generator produces fresh random code values.
type Generator interface {
	// Generate returns a new code value.
	Generate() (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func() (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate() (string, error) {
	return f()
}
