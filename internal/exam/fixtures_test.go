package exam

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/srbmarine/exam-portal/internal/model"
	"github.com/srbmarine/exam-portal/internal/session"
)

// answerKey is the test fixture key: ordinal k is answered by Choices[k%4].
func answerKey(ordinal int) model.Choice {
	return model.Choices[ordinal%4]
}

func fixtureQuestions() []model.Question {
	qs := make([]model.Question, QuestionCount)
	for i := range qs {
		rec := model.QuestionRecord{
			ID:      i + 1,
			Prompt:  fmt.Sprintf("Scenario %d", i+1),
			ChoiceA: "a", ChoiceB: "b", ChoiceC: "c", ChoiceD: "d",
		}
		qs[i] = rec.Public(i + 1)
	}
	return qs
}

type staticProvider struct {
	qs  []model.Question
	err error
}

func (p staticProvider) Questions(context.Context) ([]model.Question, error) {
	return p.qs, p.err
}

type fakeScorer struct {
	mu      sync.Mutex
	calls   []model.SubmitRequest
	err     error
	release chan struct{}
}

func (s *fakeScorer) Score(_ context.Context, req model.SubmitRequest) (model.ExamResult, error) {
	if s.release != nil {
		<-s.release
	}
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()
	if s.err != nil {
		return model.ExamResult{}, s.err
	}
	res := model.ExamResult{TotalMarks: QuestionCount}
	for ord := 1; ord <= QuestionCount; ord++ {
		correct := answerKey(ord)
		d := model.AnswerDetail{Ordinal: ord, CorrectAnswer: correct}
		if got, ok := req.Answers[ord]; ok {
			c := got
			d.CandidateAnswer = &c
			d.IsCorrect = got == correct
		}
		if d.IsCorrect {
			res.MarksObtained++
		}
		res.AnswerDetails = append(res.AnswerDetails, d)
	}
	res.Percentage = float64(res.MarksObtained) / QuestionCount * 100
	return res, nil
}

func (s *fakeScorer) Calls() []model.SubmitRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.SubmitRequest(nil), s.calls...)
}

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) Emit(e Event) {
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
}

func (s *recordingSink) Of(t EventType) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, e := range s.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func (s *recordingSink) Last(t EventType) (Event, bool) {
	evs := s.Of(t)
	if len(evs) == 0 {
		return Event{}, false
	}
	return evs[len(evs)-1], true
}

type memRecorder struct {
	mu     sync.Mutex
	events []model.IntegrityEvent
}

func (r *memRecorder) Record(_ context.Context, evt model.IntegrityEvent) error {
	r.mu.Lock()
	r.events = append(r.events, evt)
	r.mu.Unlock()
	return nil
}

const testSession = "sess-1"

var testIdentity = model.CandidateIdentity{
	CandidateID: "20250001",
	Name:        "Asha Rao",
	DateOfBirth: "2001-04-09",
	PhoneNumber: "9876543210",
	CountryCode: "+91",
}

type harness struct {
	store    *session.MemoryStore
	scorer   *fakeScorer
	sink     *recordingSink
	recorder *memRecorder
	ticks    chan time.Time
	now      time.Time
	rt       *Runtime
}

func newHarness(store *session.MemoryStore, scorer *fakeScorer) *harness {
	if store == nil {
		store = session.NewMemoryStore()
		_ = store.SaveIdentity(context.Background(), testSession, testIdentity)
	}
	if scorer == nil {
		scorer = &fakeScorer{}
	}
	return &harness{
		store:    store,
		scorer:   scorer,
		sink:     &recordingSink{},
		recorder: &memRecorder{},
		ticks:    make(chan time.Time),
		now:      time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func (h *harness) options(budget time.Duration) Options {
	return Options{
		SessionID: testSession,
		Store:     h.store,
		Provider:  staticProvider{qs: fixtureQuestions()},
		Scorer:    h.scorer,
		Sink:      h.sink,
		Recorder:  h.recorder,
		Budget:    budget,
		Grace:     0,
		Ticks:     h.ticks,
		Now:       func() time.Time { return h.now },
		Log:       zerolog.Nop(),
	}
}

func (h *harness) start(budget time.Duration) error {
	h.rt = NewRuntime(h.options(budget))
	return h.rt.Start(context.Background())
}

func (h *harness) do(cmd Command) error {
	return h.rt.Dispatch(context.Background(), cmd)
}

func (h *harness) waitDone() bool {
	select {
	case <-h.rt.Done():
		return true
	case <-time.After(2 * time.Second):
		return false
	}
}

// startedMachine returns a machine in PhaseInProgress with a fresh attempt.
func startedMachine(remaining int) *Machine {
	m := NewMachine()
	if err := m.Load(context.Background(), staticProvider{qs: fixtureQuestions()}); err != nil {
		panic(err)
	}
	if err := m.Start(remaining, nil, model.Progress{}); err != nil {
		panic(err)
	}
	return m
}

var errUnreachable = errors.New("connection refused")
