package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/srbmarine/exam-portal/internal/exam"
	"github.com/srbmarine/exam-portal/internal/middleware"
	"github.com/srbmarine/exam-portal/internal/model"
	"github.com/srbmarine/exam-portal/internal/service"
	"github.com/srbmarine/exam-portal/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Setup()
}

const (
	testCandidateID = "20260001"
	testSessionID   = "sid-1"
)

var testIdentity = model.CandidateIdentity{
	CandidateID: testCandidateID,
	Name:        "Ravi Kumar",
	DateOfBirth: "2000-05-14",
	PhoneNumber: "9876543210",
	CountryCode: "+91",
}

// withClaims stands in for the JWT middleware.
func withClaims(candidateID, sid string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := &service.Claims{TokenType: service.TokenTypeCandidate, CandidateID: candidateID}
		claims.ID = sid
		c.Set(middleware.ContextKeyClaims, claims)
		c.Next()
	}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code   string            `json:"code"`
		Fields map[string]string `json:"fields"`
	} `json:"error"`
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %s %s: %v (%s)", method, path, err, w.Body.String())
	}
	return w, env
}

func errCode(env envelope) string {
	if env.Error == nil {
		return ""
	}
	return env.Error.Code
}

type fakeAccounts struct {
	registerErr error
	loginErr    error
}

func (f *fakeAccounts) Register(_ context.Context, req *model.RegisterRequest) (*model.Candidate, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &model.Candidate{
		CandidateID: testCandidateID,
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
		CountryCode: req.CountryCode,
	}, nil
}

func (f *fakeAccounts) Login(_ context.Context, req *model.LoginRequest) (*model.Candidate, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &model.Candidate{CandidateID: testCandidateID, Name: req.Name, PhoneNumber: req.PhoneNumber, CountryCode: req.CountryCode}, nil
}

type fakeSessions struct {
	mu      sync.Mutex
	started []model.CandidateIdentity
	ended   []string
}

func (f *fakeSessions) StartCandidateSession(_ context.Context, id model.CandidateIdentity) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, id)
	return "signed-token", nil
}

func (f *fakeSessions) EndCandidateSession(_ context.Context, candidateID, sid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ended = append(f.ended, candidateID+"/"+sid)
	return nil
}

func fixtureQuestions() []model.Question {
	qs := make([]model.Question, exam.QuestionCount)
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

type staticQuestions struct {
	qs  []model.Question
	err error
}

func (s staticQuestions) Questions(context.Context) ([]model.Question, error) {
	return s.qs, s.err
}

// keyScorer grades against an all-A key.
type keyScorer struct {
	mu    sync.Mutex
	calls []model.SubmitRequest
	err   error
}

func (s *keyScorer) Score(_ context.Context, req model.SubmitRequest) (model.ExamResult, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()
	if s.err != nil {
		return model.ExamResult{}, s.err
	}
	key := make([]model.Choice, exam.QuestionCount)
	for i := range key {
		key[i] = model.ChoiceA
	}
	return service.GradeAnswers(key, req.Answers), nil
}

func (s *keyScorer) Calls() []model.SubmitRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.SubmitRequest(nil), s.calls...)
}

type memRecorder struct {
	mu     sync.Mutex
	events []model.IntegrityEvent
}

func (r *memRecorder) Record(_ context.Context, evt model.IntegrityEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

func testLogger() zerolog.Logger { return zerolog.Nop() }
