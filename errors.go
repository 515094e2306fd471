package missionsim

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration is returned when a configuration bundle is missing a key or is out of domain.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrNumericalInstability is returned when the thermal integration diverges.
	ErrNumericalInstability = errors.New("numerical instability")
	// ErrInsufficientAreaData is returned by strict missions when the area table is shorter than an orbit.
	ErrInsufficientAreaData = errors.New("insufficient area data")
	// ErrBatteryDepleted flags a discharge which was clamped at zero charge. It is never returned by
	// the step API, only used to describe the depletion condition in logs and summaries.
	ErrBatteryDepleted = errors.New("battery depleted")
)

// ConfigError identifies the offending configuration parameter.
type ConfigError struct {
	Bundle string
	Field  string
	Value  interface{}
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("%s: %s.%s %s", ErrInvalidConfiguration, e.Bundle, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: %s.%s=%v %s", ErrInvalidConfiguration, e.Bundle, e.Field, e.Value, e.Reason)
}

// Unwrap allows errors.Is(err, ErrInvalidConfiguration).
func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfiguration
}

func newConfigError(bundle, field string, value interface{}, reason string) *ConfigError {
	return &ConfigError{Bundle: bundle, Field: field, Value: value, Reason: reason}
}

// InstabilityError reports the step and thermal node at which the integration diverged.
type InstabilityError struct {
	Step        uint64
	Time        float64
	Node        Node
	Temperature float64
}

func (e *InstabilityError) Error() string {
	return fmt.Sprintf("%s: %s temperature %g K at step %d (t=%.0fs), reduce the time step", ErrNumericalInstability, e.Node, e.Temperature, e.Step, e.Time)
}

// Unwrap allows errors.Is(err, ErrNumericalInstability).
func (e *InstabilityError) Unwrap() error {
	return ErrNumericalInstability
}
