package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/srbmarine/exam-portal/internal/model"
)

type memQueue struct {
	ch chan []byte
}

func newMemQueue() *memQueue { return &memQueue{ch: make(chan []byte, 128)} }

func (q *memQueue) Push(_ context.Context, items ...[]byte) error {
	for _, it := range items {
		q.ch <- it
	}
	return nil
}

func (q *memQueue) Pop(ctx context.Context, timeout time.Duration) ([]byte, error) {
	select {
	case it := <-q.ch:
		return it, nil
	case <-time.After(timeout):
		return nil, ErrQueueEmpty
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type fakeWriter struct {
	mu       sync.Mutex
	bulkErr  error
	failFor  string
	bulk     [][]model.IntegrityEvent
	inserted []model.IntegrityEvent
}

func (w *fakeWriter) BulkInsert(_ context.Context, events []model.IntegrityEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.bulkErr != nil {
		return w.bulkErr
	}
	w.bulk = append(w.bulk, append([]model.IntegrityEvent(nil), events...))
	return nil
}

func (w *fakeWriter) Insert(_ context.Context, e model.IntegrityEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if e.SessionID == w.failFor {
		return errors.New("insert failed")
	}
	w.inserted = append(w.inserted, e)
	return nil
}

func (w *fakeWriter) bulkCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, b := range w.bulk {
		n += len(b)
	}
	return n
}

func testWorker(q Queue, w EventWriter) *IntegrityWorker {
	iw := NewIntegrityWorker(q, w, zerolog.Nop())
	iw.batchTimeout = 10 * time.Millisecond
	iw.pollTimeout = 5 * time.Millisecond
	iw.requeueBackoff = 0
	return iw
}

func event(sid, signal string) model.IntegrityEvent {
	return model.IntegrityEvent{
		SessionID:   sid,
		CandidateID: "20260001",
		Signal:      signal,
		Effect:      "warn",
		RecordedAt:  time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestIntegrityWorker_DrainsPublishedEvents(t *testing.T) {
	q := newMemQueue()
	w := &fakeWriter{}
	pub := NewIntegrityPublisher(q)

	for _, sig := range []string{"visibility_hidden", "context_menu", "reload"} {
		if err := pub.Record(context.Background(), event("s1", sig)); err != nil {
			t.Fatal(err)
		}
	}
	q.ch <- []byte("{not json")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		testWorker(q, w).Start(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for w.bulkCount() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	if got := w.bulkCount(); got != 3 {
		t.Fatalf("persisted %d events, want 3", got)
	}
}

func TestIntegrityWorker_FallbackAndRequeue(t *testing.T) {
	q := newMemQueue()
	w := &fakeWriter{bulkErr: errors.New("copy failed"), failFor: "s2"}
	iw := testWorker(q, w)

	batch := []model.IntegrityEvent{
		event("s1", "reload"),
		event("s2", "reload"),
		event("", "reload"),
	}
	iw.flushSafe(context.Background(), batch)

	if len(w.inserted) != 1 || w.inserted[0].SessionID != "s1" {
		t.Fatalf("inserted = %+v", w.inserted)
	}

	if len(q.ch) != 1 {
		t.Fatalf("requeued %d events, want 1", len(q.ch))
	}
	var requeued model.IntegrityEvent
	if err := json.Unmarshal(<-q.ch, &requeued); err != nil {
		t.Fatal(err)
	}
	if requeued.SessionID != "s2" {
		t.Fatalf("requeued %+v", requeued)
	}
}

func TestIntegrityWorker_ShutdownFlushesBuffer(t *testing.T) {
	q := newMemQueue()
	w := &fakeWriter{}
	iw := testWorker(q, w)
	iw.batchTimeout = time.Hour

	pub := NewIntegrityPublisher(q)
	_ = pub.Record(context.Background(), event("s1", "timer_expired"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		iw.Start(ctx)
		close(done)
	}()

	for len(q.ch) > 0 {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done

	if got := w.bulkCount(); got != 1 {
		t.Fatalf("persisted %d events on shutdown, want 1", got)
	}
}
