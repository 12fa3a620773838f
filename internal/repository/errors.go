package repository

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an update targets an id with no stored
// item.
type ErrNotFound struct {
	Resource string // The type of resource (e.g., "user", "transaction")
	ID       string // The identifier that was not found
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s with ID '%s' does not exist", e.Resource, e.ID)
}

// IsNotFound checks if an error is a repository not found error.
func IsNotFound(err error) bool {
	var nf ErrNotFound
	return errors.As(err, &nf)
}

// ErrAlreadyExists is returned when a conditional create found the
// identifying key already present.
type ErrAlreadyExists struct {
	Resource string
	ID       string
}

func (e ErrAlreadyExists) Error() string {
	return fmt.Sprintf("%s with ID '%s' already exists", e.Resource, e.ID)
}

// IsAlreadyExists checks if an error is a repository conflict error.
func IsAlreadyExists(err error) bool {
	var ae ErrAlreadyExists
	return errors.As(err, &ae)
}

// ErrPartialFanOut is returned when a multi-copy write failed after
// some copies were already written. The denormalized copies of the
// record are now diverging; the repository does not repair them.
type ErrPartialFanOut struct {
	Resource string
	ID       string
	Written  int // copies written before the failure
	Total    int // copies the operation was meant to write
	Err      error
}

func (e ErrPartialFanOut) Error() string {
	return fmt.Sprintf("fan-out write for %s '%s' failed after %d of %d copies: %v",
		e.Resource, e.ID, e.Written, e.Total, e.Err)
}

func (e ErrPartialFanOut) Unwrap() error { return e.Err }

// IsPartialFanOut checks if an error left denormalized copies diverging.
func IsPartialFanOut(err error) bool {
	var pf ErrPartialFanOut
	return errors.As(err, &pf)
}

// NewNotFound creates a new ErrNotFound.
func NewNotFound(resource, id string) ErrNotFound {
	return ErrNotFound{Resource: resource, ID: id}
}

// NewAlreadyExists creates a new ErrAlreadyExists.
func NewAlreadyExists(resource, id string) ErrAlreadyExists {
	return ErrAlreadyExists{Resource: resource, ID: id}
}
