package exam

import (
	"errors"
	"fmt"
)

// Navigation and lifecycle errors surfaced to the candidate as warnings.
var (
	ErrAnswerRequired    = errors.New("current question must be answered first")
	ErrJumpNotAllowed    = errors.New("only answered questions can be jumped to")
	ErrNotInProgress     = errors.New("exam is not in progress")
	ErrSubmissionDropped = errors.New("submission already in flight or exam already terminated")
	ErrNoIdentity        = errors.New("no candidate identity in session")
	ErrSubmissionPending = errors.New("a submission for this session is still in flight")
	ErrRuntimeClosed     = errors.New("exam runtime closed")
)

// ValidationError rejects malformed input before any state change.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// FetchError means the question set could not be loaded; the run cannot start.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("load questions: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// NetworkError wraps a failed call to the scoring boundary.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("submit exam: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IntegrityViolation records which threshold forced a submission.
type IntegrityViolation struct {
	Signal SignalKind
	Count  int
}

func (e *IntegrityViolation) Error() string {
	if e.Count > 0 {
		return fmt.Sprintf("integrity violation: %s (%d)", e.Signal, e.Count)
	}
	return fmt.Sprintf("integrity violation: %s", e.Signal)
}
