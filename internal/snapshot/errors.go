package snapshot

import (
	"errors"
	"fmt"
)

// ErrExists is returned by Store.Create when the name is already taken.
var ErrExists = errors.New("file already exists")

// ErrNotFound is returned by Store.Read for a missing name.
var ErrNotFound = errors.New("file not found")

// DiscoveryError describes a candidate file that could not be used.
type DiscoveryError struct {
	Name    string
	Message string
	Cause   error
}

func (e *DiscoveryError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("discovery error: %s: %s: %v", e.Name, e.Message, e.Cause)
	}
	return fmt.Sprintf("discovery error: %s: %s", e.Name, e.Message)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Cause
}

// NoInputError reports that no usable snapshot exists in the store.
type NoInputError struct {
	Location string
	Skipped  int
}

func (e *NoInputError) Error() string {
	if e.Skipped > 0 {
		return fmt.Sprintf("no valid snapshot files in %s (%d skipped)", e.Location, e.Skipped)
	}
	return fmt.Sprintf("no valid snapshot files in %s", e.Location)
}

// StoreError wraps a failure of the underlying storage.
type StoreError struct {
	Op    string
	Name  string
	Cause error
}

func (e *StoreError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("store %s: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Name, e.Cause)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}
