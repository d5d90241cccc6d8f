package domain

import (
	"errors"
	"fmt"
)

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// ErrNotFound is the sentinel error for missing resources.
var ErrNotFound = NotFoundError{}

// InvalidStateError represents an operation that is not valid for the
// current state of its target (wrong status, wrong role, bad category).
type InvalidStateError struct {
	Reason string
}

func (e InvalidStateError) Error() string {
	if e.Reason == "" {
		return "invalid state"
	}
	return e.Reason
}

func (e InvalidStateError) Is(target error) bool {
	_, ok := target.(InvalidStateError)
	if ok {
		return true
	}
	_, ok = target.(*InvalidStateError)
	return ok
}

// ErrInvalidState is the sentinel error for InvalidStateError.
var ErrInvalidState = InvalidStateError{}

// RateBlockedError is returned by the mute gate while an active mute has
// not yet expired.
type RateBlockedError struct {
	RemainingMinutes int
}

func (e RateBlockedError) Error() string {
	return fmt.Sprintf("muted for another %d minutes", e.RemainingMinutes)
}

func (e RateBlockedError) Is(target error) bool {
	_, ok := target.(RateBlockedError)
	if ok {
		return true
	}
	_, ok = target.(*RateBlockedError)
	return ok
}

// ErrRateBlocked is the sentinel error for RateBlockedError.
var ErrRateBlocked = RateBlockedError{}

var (
	ErrNotOpen       = errors.New("session is not open")
	ErrFull          = errors.New("session is full")
	ErrAlreadyMember = errors.New("already a member of this session")
	ErrNotMember     = errors.New("not a member of this session")
	ErrUnauthorized  = errors.New("unauthorized")
)
