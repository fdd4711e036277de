package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig matches every ConfigError.
	ErrConfig = errors.New("configuration error")
	// ErrInvariant matches every InvariantError.
	ErrInvariant = errors.New("invariant violation")
)

// ConfigError rejects a bundle before the event loop starts.
type ConfigError struct {
	Ref string
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Ref, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

// InvariantError aborts one iteration.
type InvariantError struct {
	What string
	Err  error
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant %s: %v", e.What, e.Err)
}

func (e *InvariantError) Unwrap() error { return e.Err }

func (e *InvariantError) Is(target error) bool { return target == ErrInvariant }

func configErr(ref string, err error) error {
	return &ConfigError{Ref: ref, Err: err}
}

func invariant(what string, err error) error {
	return &InvariantError{What: what, Err: err}
}
