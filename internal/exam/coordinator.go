package exam

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/srbmarine/exam-portal/internal/model"
	"github.com/srbmarine/exam-portal/internal/session"
)

// Trigger identifies what started a submission.
type Trigger string

const (
	TriggerExplicit  Trigger = "explicit"
	TriggerTimer     Trigger = "timer"
	TriggerIntegrity Trigger = "integrity"
)

// Scorer is the external scoring boundary. It is called at most once per run.
type Scorer interface {
	Score(ctx context.Context, req model.SubmitRequest) (model.ExamResult, error)
}

// Submission is the frozen payload of one run.
type Submission struct {
	Trigger  Trigger
	Identity model.CandidateIdentity
	Answers  map[int]model.Choice
}

// Outcome is what Deliver hands back to the event loop.
type Outcome struct {
	Trigger Trigger
	Result  *model.ExamResult
	Err     error
}

// Coordinator turns a run into exactly one scoring call and tears the
// session down regardless of the outcome.
type Coordinator struct {
	scorer Scorer
	store  session.Store
	log    zerolog.Logger
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(scorer Scorer, store session.Store, log zerolog.Logger) *Coordinator {
	return &Coordinator{scorer: scorer, store: store, log: log}
}

// Begin marks the run as submitting, in the machine and in the session
// store, and projects the answered ordinals. A second call, or a call after
// termination, returns ErrSubmissionDropped.
func (c *Coordinator) Begin(ctx context.Context, sid string, m *Machine, identity model.CandidateIdentity, trigger Trigger) (Submission, error) {
	if err := m.beginSubmission(); err != nil {
		return Submission{}, err
	}
	// A reload mounts a new runtime; the marker keeps it out of the exam
	// until Deliver has cleared the session.
	if err := c.store.MarkSubmitting(ctx, sid); err != nil {
		c.log.Error().Err(err).Str("session_id", sid).Msg("Failed to persist submitting marker")
	}
	return Submission{Trigger: trigger, Identity: identity, Answers: m.answers()}, nil
}

// Deliver calls the scorer once, stores the result on success and always
// clears the identity and the exam progress. It performs network I/O and
// must not run on the event loop.
func (c *Coordinator) Deliver(ctx context.Context, sid string, sub Submission) Outcome {
	out := Outcome{Trigger: sub.Trigger}

	res, err := c.scorer.Score(ctx, model.SubmitRequest{
		CandidateID:   sub.Identity.CandidateID,
		CandidateName: sub.Identity.Name,
		PhoneNumber:   sub.Identity.PhoneNumber,
		DateOfBirth:   sub.Identity.DateOfBirth,
		Answers:       sub.Answers,
	})
	if err != nil {
		out.Err = &NetworkError{Err: err}
	} else if err := c.store.SaveResult(ctx, sid, res); err != nil {
		out.Err = &NetworkError{Err: fmt.Errorf("store result: %w", err)}
		out.Result = &res
	} else {
		out.Result = &res
	}

	// Fail closed: the attempt is consumed whatever the scorer said.
	if err := c.store.ClearIdentity(ctx, sid); err != nil {
		c.log.Error().Err(err).Str("session_id", sid).Msg("Failed to clear identity after submission")
	}
	if err := c.store.ClearProgress(ctx, sid); err != nil {
		c.log.Error().Err(err).Str("session_id", sid).Msg("Failed to clear progress after submission")
	}

	evt := c.log.Info()
	if out.Err != nil {
		evt = c.log.Warn().Err(out.Err)
	}
	evt.Str("session_id", sid).
		Str("candidate_id", sub.Identity.CandidateID).
		Str("trigger", string(sub.Trigger)).
		Int("answered", len(sub.Answers)).
		Msg("Exam submission finished")

	return out
}

// Complete moves the run to PhaseTerminated.
func (c *Coordinator) Complete(m *Machine) {
	m.terminate()
}
