package session

import (
	"context"
	"sync"

	"github.com/srbmarine/exam-portal/internal/model"
)

type memorySession struct {
	identity *model.CandidateIdentity
	progress model.Progress
	attempt  *model.AttemptSnapshot
	result   *model.ExamResult
}

// MemoryStore is a process-local Store used by tests and single-node runs.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*memorySession
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*memorySession)}
}

func (s *MemoryStore) get(sid string) *memorySession {
	ms, ok := s.sessions[sid]
	if !ok {
		ms = &memorySession{}
		s.sessions[sid] = ms
	}
	return ms
}

func (s *MemoryStore) SaveIdentity(_ context.Context, sid string, id model.CandidateIdentity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(sid).identity = &id
	return nil
}

func (s *MemoryStore) Identity(_ context.Context, sid string) (model.CandidateIdentity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ms, ok := s.sessions[sid]
	if !ok || ms.identity == nil {
		return model.CandidateIdentity{}, ErrNotFound
	}
	return *ms.identity, nil
}

func (s *MemoryStore) ClearIdentity(_ context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ms, ok := s.sessions[sid]; ok {
		ms.identity = nil
	}
	return nil
}

func (s *MemoryStore) Progress(_ context.Context, sid string) (model.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ms, ok := s.sessions[sid]; ok {
		return ms.progress, nil
	}
	return model.Progress{}, nil
}

func (s *MemoryStore) MarkPageLoaded(_ context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(sid).progress.PageLoaded = true
	return nil
}

func (s *MemoryStore) IncrRefresh(_ context.Context, sid string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &s.get(sid).progress
	p.RefreshCount++
	return p.RefreshCount, nil
}

func (s *MemoryStore) IncrTabSwitch(_ context.Context, sid string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &s.get(sid).progress
	p.TabSwitchCount++
	return p.TabSwitchCount, nil
}

func (s *MemoryStore) SetSubmitOnLoad(_ context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(sid).progress.SubmitOnLoad = true
	return nil
}

func (s *MemoryStore) MarkSubmitting(_ context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(sid).progress.Submitting = true
	return nil
}

func (s *MemoryStore) SaveAttempt(_ context.Context, sid string, snap model.AttemptSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap.Attempts = append([]model.QuestionAttempt(nil), snap.Attempts...)
	s.get(sid).attempt = &snap
	return nil
}

func (s *MemoryStore) Attempt(_ context.Context, sid string) (model.AttemptSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ms, ok := s.sessions[sid]
	if !ok || ms.attempt == nil {
		return model.AttemptSnapshot{}, ErrNotFound
	}
	snap := *ms.attempt
	snap.Attempts = append([]model.QuestionAttempt(nil), snap.Attempts...)
	return snap, nil
}

func (s *MemoryStore) SaveResult(_ context.Context, sid string, res model.ExamResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(sid).result = &res
	return nil
}

func (s *MemoryStore) Result(_ context.Context, sid string) (model.ExamResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ms, ok := s.sessions[sid]
	if !ok || ms.result == nil {
		return model.ExamResult{}, ErrNotFound
	}
	return *ms.result, nil
}

func (s *MemoryStore) ClearProgress(_ context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ms, ok := s.sessions[sid]; ok {
		ms.progress = model.Progress{}
		ms.attempt = nil
	}
	return nil
}

func (s *MemoryStore) Destroy(_ context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sid)
	return nil
}
