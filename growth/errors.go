package growth

import (
	"errors"
	"fmt"
)

var (
	// ErrDomain is matched by every DomainError.
	ErrDomain = errors.New("growth: state outside model domain")

	// ErrDuration indicates a non-positive integration horizon.
	ErrDuration = errors.New("growth: duration must be positive")

	// ErrUnknownModel is returned by Lookup for unregistered model names.
	ErrUnknownModel = errors.New("growth: unknown model")
)

// DomainError reports a rate evaluated outside the model's valid input range.
type DomainError struct {
	Model  string
	State  float64
	Reason string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("growth: %s model: state %g %s", e.Model, e.State, e.Reason)
}

// Is makes errors.Is(err, ErrDomain) true for any DomainError.
func (e *DomainError) Is(target error) bool {
	return target == ErrDomain
}

// StepError wraps a failure with the integration step it happened at.
type StepError struct {
	Step  int
	State float64
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
