package models

import (
	"errors"
	"fmt"
)

var (
	// ErrAgentNotFound is returned by agent lookups when no agent has the requested id.
	ErrAgentNotFound = errors.New("agent not found")

	// ErrStoreUnavailable marks infrastructure failures of a backing store.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// StoreError wraps a driver failure with the operation and key that triggered it.
type StoreError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return target == ErrStoreUnavailable
}
