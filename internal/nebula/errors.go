package nebula

import (
	"errors"
	"fmt"

	"github.com/san-kum/nebula/internal/grid"
)

var (
	// ErrConfig indicates a parameter that cannot produce a valid simulation.
	ErrConfig = errors.New("nebula: invalid configuration")

	// ErrNotSeeded indicates Advance was called before any Reset.
	ErrNotSeeded = errors.New("nebula: advance before reset")

	// ErrShape indicates a grid that cannot hold a particle.
	ErrShape = grid.ErrShape
)

// ConfigError names the offending parameter.
type ConfigError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("nebula: %s=%v: %s", e.Field, e.Value, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrConfig }

func configErr(field string, value any, reason string) error {
	return &ConfigError{Field: field, Value: value, Reason: reason}
}
