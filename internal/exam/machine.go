package exam

import (
	"context"
	"fmt"

	"github.com/srbmarine/exam-portal/internal/model"
)

// Fixed exam parameters.
const (
	QuestionCount  = 20
	TabSwitchLimit = 3
	RefreshLimit   = 2
)

// Phase is the top-level state of one exam run.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseInProgress
	PhaseSubmitting
	PhaseTerminated
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseInProgress:
		return "in_progress"
	case PhaseSubmitting:
		return "submitting"
	case PhaseTerminated:
		return "terminated"
	}
	return "unknown"
}

// QuestionProvider supplies the ordered question set.
type QuestionProvider interface {
	Questions(ctx context.Context) ([]model.Question, error)
}

// Machine owns the attempt state and the run of a single exam. It is not
// safe for concurrent use; the Runtime serializes every call.
type Machine struct {
	phase     Phase
	questions []model.Question
	attempts  []model.QuestionAttempt
	cursor    int
	remaining int
	expired   bool

	tabSwitches int
	refreshes   int
	inFlight    bool
}

// NewMachine returns a machine in PhaseLoading.
func NewMachine() *Machine {
	return &Machine{phase: PhaseLoading}
}

// Load fetches and validates the question set. On failure the machine stays
// in PhaseLoading and the error is a *FetchError.
func (m *Machine) Load(ctx context.Context, p QuestionProvider) error {
	if m.phase != PhaseLoading {
		return ErrNotInProgress
	}
	qs, err := p.Questions(ctx)
	if err != nil {
		return &FetchError{Err: err}
	}
	if err := validateQuestions(qs); err != nil {
		return &FetchError{Err: err}
	}
	m.questions = qs
	return nil
}

func validateQuestions(qs []model.Question) error {
	if len(qs) != QuestionCount {
		return fmt.Errorf("expected %d questions, got %d", QuestionCount, len(qs))
	}
	for i, q := range qs {
		if q.Ordinal != i+1 {
			return fmt.Errorf("question at position %d has ordinal %d", i+1, q.Ordinal)
		}
		if q.Prompt == "" {
			return fmt.Errorf("question %d has no prompt", q.Ordinal)
		}
		if len(q.Options) != len(model.Choices) {
			return fmt.Errorf("question %d has %d options", q.Ordinal, len(q.Options))
		}
		for j, opt := range q.Options {
			if opt.ID != model.Choices[j] {
				return fmt.Errorf("question %d option %d has id %q", q.Ordinal, j+1, opt.ID)
			}
		}
	}
	return nil
}

// Start enters PhaseInProgress. A nil snapshot starts a fresh attempt at
// ordinal 1; otherwise cursor and attempt state are restored. Counters are
// taken from the durable session progress.
func (m *Machine) Start(remaining int, snap *model.AttemptSnapshot, progress model.Progress) error {
	if m.phase != PhaseLoading || m.questions == nil {
		return ErrNotInProgress
	}
	m.attempts = make([]model.QuestionAttempt, QuestionCount)
	m.cursor = 1
	if snap != nil && len(snap.Attempts) == QuestionCount {
		copy(m.attempts, snap.Attempts)
		if snap.Cursor >= 1 && snap.Cursor <= QuestionCount {
			m.cursor = snap.Cursor
		}
	}
	if remaining < 0 {
		remaining = 0
	}
	m.remaining = remaining
	m.tabSwitches = progress.TabSwitchCount
	m.refreshes = progress.RefreshCount
	m.phase = PhaseInProgress
	return nil
}

func (m *Machine) checkOrdinal(ordinal int) error {
	if ordinal < 1 || ordinal > QuestionCount {
		return &ValidationError{Field: "ordinal", Reason: fmt.Sprintf("must be between 1 and %d", QuestionCount)}
	}
	return nil
}

// SelectAnswer records choice for the current ordinal. Re-selecting overwrites.
func (m *Machine) SelectAnswer(ordinal int, choice string) error {
	if m.phase != PhaseInProgress {
		return ErrNotInProgress
	}
	if err := m.checkOrdinal(ordinal); err != nil {
		return err
	}
	if ordinal != m.cursor {
		return &ValidationError{Field: "ordinal", Reason: "only the current question can be answered"}
	}
	c := model.Choice(choice)
	if !c.Valid() {
		return &ValidationError{Field: "choice", Reason: "must be one of A, B, C, D"}
	}
	a := &m.attempts[m.cursor-1]
	a.Answered = true
	a.Selected = c
	return nil
}

// ToggleFlag flips the review flag of the current ordinal.
func (m *Machine) ToggleFlag() error {
	if m.phase != PhaseInProgress {
		return ErrNotInProgress
	}
	a := &m.attempts[m.cursor-1]
	a.Flagged = !a.Flagged
	return nil
}

// GoToNext advances the cursor if the current ordinal is answered. At the
// last ordinal the cursor stays put.
func (m *Machine) GoToNext() error {
	if m.phase != PhaseInProgress {
		return ErrNotInProgress
	}
	if !m.attempts[m.cursor-1].Answered {
		return ErrAnswerRequired
	}
	if m.cursor < QuestionCount {
		m.cursor++
	}
	return nil
}

// GoToPrevious moves the cursor back one ordinal, floored at 1.
func (m *Machine) GoToPrevious() error {
	if m.phase != PhaseInProgress {
		return ErrNotInProgress
	}
	if m.cursor > 1 {
		m.cursor--
	}
	return nil
}

// JumpTo moves the cursor to an answered ordinal.
func (m *Machine) JumpTo(ordinal int) error {
	if m.phase != PhaseInProgress {
		return ErrNotInProgress
	}
	if err := m.checkOrdinal(ordinal); err != nil {
		return err
	}
	if !m.attempts[ordinal-1].Answered {
		return ErrJumpNotAllowed
	}
	m.cursor = ordinal
	return nil
}

// Tick consumes one second of the budget. It reports true exactly once,
// on the tick that exhausts the budget.
func (m *Machine) Tick() bool {
	if m.phase != PhaseInProgress || m.expired {
		return false
	}
	if m.remaining > 0 {
		m.remaining--
	}
	if m.remaining == 0 {
		m.expired = true
		return true
	}
	return false
}

// RecordTabSwitch counts one visibility loss and returns the new total.
func (m *Machine) RecordTabSwitch() int {
	m.tabSwitches++
	return m.tabSwitches
}

// RecordRefresh sets the refresh counter to the durable value n.
func (m *Machine) RecordRefresh(n int) {
	if n > m.refreshes {
		m.refreshes = n
	}
}

func (m *Machine) Phase() Phase { return m.phase }

// Current is the 1-based cursor.
func (m *Machine) Current() int { return m.cursor }

func (m *Machine) Remaining() int { return m.remaining }

func (m *Machine) TabSwitches() int { return m.tabSwitches }

func (m *Machine) Refreshes() int { return m.refreshes }

func (m *Machine) InFlight() bool { return m.inFlight }

// Attempt returns the state of ordinal (1-based).
func (m *Machine) Attempt(ordinal int) model.QuestionAttempt {
	if ordinal < 1 || ordinal > len(m.attempts) {
		return model.QuestionAttempt{}
	}
	return m.attempts[ordinal-1]
}

// Selected returns the stored choice of the current ordinal.
func (m *Machine) Selected() (model.Choice, bool) {
	a := m.Attempt(m.cursor)
	return a.Selected, a.Answered
}

// Snapshot copies cursor and attempt state for persistence.
func (m *Machine) Snapshot() model.AttemptSnapshot {
	return model.AttemptSnapshot{
		Cursor:   m.cursor,
		Attempts: append([]model.QuestionAttempt(nil), m.attempts...),
	}
}

// answers projects answered ordinals to their selected choice.
func (m *Machine) answers() map[int]model.Choice {
	out := make(map[int]model.Choice)
	for i, a := range m.attempts {
		if a.Answered {
			out[i+1] = a.Selected
		}
	}
	return out
}

func (m *Machine) beginSubmission() error {
	if m.phase != PhaseInProgress || m.inFlight {
		return ErrSubmissionDropped
	}
	m.inFlight = true
	m.phase = PhaseSubmitting
	return nil
}

func (m *Machine) terminate() {
	m.phase = PhaseTerminated
	m.attempts = nil
}
