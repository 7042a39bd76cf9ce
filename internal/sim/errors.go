package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is matched by every *ConfigError.
	ErrInvalidConfig = errors.New("sim: invalid configuration")
)

// ConfigError names the configuration field that failed validation.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("sim: invalid %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func (e *ConfigError) Is(target error) bool { return target == ErrInvalidConfig }

func configErr(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ConfigError{Field: field, Err: err}
}

// EpisodeError attaches the seed of a failed episode in a batch.
type EpisodeError struct {
	Seed    int64
	Wrapped error
}

func (e *EpisodeError) Error() string {
	return fmt.Sprintf("episode seed %d: %v", e.Seed, e.Wrapped)
}

func (e *EpisodeError) Unwrap() error { return e.Wrapped }
