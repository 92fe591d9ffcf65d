package quantgo

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingStatistics is returned when quantization parameters are
	// requested before calibration statistics have been computed, or when a
	// QAT parameter derivation lacks the captured distinct-value set it
	// depends on.
	ErrMissingStatistics = errors.New("calibration statistics not computed")

	// ErrUninitializedParameters is returned when quant or dequant is
	// requested before parameters have been computed or supplied.
	ErrUninitializedParameters = errors.New("quantization parameters not initialized")
)

// ErrInvalidOptions indicates a malformed mode combination or bit width.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidOptions struct {
	Reason string
	cause  error
}

func (e *ErrInvalidOptions) Error() string {
	return fmt.Sprintf("invalid quantization options: %s", e.Reason)
}

func (e *ErrInvalidOptions) Unwrap() error { return e.cause }
