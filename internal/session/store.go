// Package session holds everything scoped to one candidate session: the
// identity captured at login, the cross-reload integrity counters, the
// attempt snapshot and the last exam result.
package session

import (
	"context"
	"errors"

	"github.com/srbmarine/exam-portal/internal/model"
)

// ErrNotFound is returned when a session value is absent.
var ErrNotFound = errors.New("session value not found")

// Store is the session-scoped key/value surface used by the exam runtime and
// the identity handlers. Implementations must be safe for concurrent use.
type Store interface {
	SaveIdentity(ctx context.Context, sid string, id model.CandidateIdentity) error
	Identity(ctx context.Context, sid string) (model.CandidateIdentity, error)
	ClearIdentity(ctx context.Context, sid string) error

	Progress(ctx context.Context, sid string) (model.Progress, error)
	MarkPageLoaded(ctx context.Context, sid string) error
	IncrRefresh(ctx context.Context, sid string) (int, error)
	IncrTabSwitch(ctx context.Context, sid string) (int, error)
	SetSubmitOnLoad(ctx context.Context, sid string) error
	MarkSubmitting(ctx context.Context, sid string) error

	SaveAttempt(ctx context.Context, sid string, snap model.AttemptSnapshot) error
	Attempt(ctx context.Context, sid string) (model.AttemptSnapshot, error)

	SaveResult(ctx context.Context, sid string, res model.ExamResult) error
	Result(ctx context.Context, sid string) (model.ExamResult, error)

	// ClearProgress removes the counters, flags and attempt snapshot but
	// keeps the identity and result.
	ClearProgress(ctx context.Context, sid string) error
	// Destroy removes every value of the session.
	Destroy(ctx context.Context, sid string) error
}
