package scheduler

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfiguration = errors.New("invalid scheduler configuration")
	ErrResourceUnavailable  = errors.New("scheduling resources unavailable")
	ErrNoActiveDepots       = errors.New("no active depots found for scheduling")
	ErrRunInProgress        = errors.New("a scheduling run already holds part of this date range")
)

// ConfigError is rejected before any work starts. Message is shown to the caller verbatim.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string { return e.Message }

func (e *ConfigError) Unwrap() error { return ErrInvalidConfiguration }

func configErrorf(format string, args ...interface{}) error {
	return &ConfigError{Message: fmt.Sprintf(format, args...)}
}

func resourceUnavailable(what string, err error) error {
	return fmt.Errorf("%w: loading %s: %v", ErrResourceUnavailable, what, err)
}
