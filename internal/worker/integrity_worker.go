package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/srbmarine/exam-portal/internal/model"
)

const (
	BatchSize    = 50
	BatchTimeout = 2 * time.Second
	PollTimeout  = 1 * time.Second // Must be >= 1s to satisfy Redis
)

// EventWriter stores integrity events.
type EventWriter interface {
	BulkInsert(ctx context.Context, events []model.IntegrityEvent) error
	Insert(ctx context.Context, e model.IntegrityEvent) error
}

// IntegrityWorker drains the integrity queue into PostgreSQL in batches.
type IntegrityWorker struct {
	queue  Queue
	writer EventWriter
	log    zerolog.Logger

	batchSize      int
	batchTimeout   time.Duration
	pollTimeout    time.Duration
	requeueBackoff time.Duration
}

func NewIntegrityWorker(queue Queue, writer EventWriter, log zerolog.Logger) *IntegrityWorker {
	return &IntegrityWorker{
		queue:          queue,
		writer:         writer,
		log:            log.With().Str("component", "integrity_worker").Logger(),
		batchSize:      BatchSize,
		batchTimeout:   BatchTimeout,
		pollTimeout:    PollTimeout,
		requeueBackoff: 2 * time.Second,
	}
}

// Start runs until ctx is cancelled, then flushes whatever is buffered.
func (w *IntegrityWorker) Start(ctx context.Context) {
	w.log.Info().Msg("IntegrityWorker started")

	buffer := make([]model.IntegrityEvent, 0, w.batchSize)
	lastFlushTime := time.Now()

	for {
		if len(buffer) > 0 {
			if len(buffer) >= w.batchSize || time.Since(lastFlushTime) >= w.batchTimeout {
				w.flushSafe(ctx, buffer)
				buffer = buffer[:0]
				lastFlushTime = time.Now()
			}
		}

		select {
		case <-ctx.Done():
			w.shutdown(buffer)
			return
		default:
		}

		data, err := w.queue.Pop(ctx, w.pollTimeout)
		if err != nil {
			if errors.Is(err, ErrQueueEmpty) {
				continue
			}
			if ctx.Err() != nil {
				w.shutdown(buffer)
				return
			}
			w.log.Error().Err(err).Msg("Queue connection error, sleeping 3s")
			select {
			case <-time.After(3 * time.Second):
			case <-ctx.Done():
			}
			continue
		}

		var evt model.IntegrityEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			// Malformed payloads cannot be retried.
			w.log.Error().Err(err).Str("data", string(data)).Msg("Discarding malformed JSON")
			continue
		}
		buffer = append(buffer, evt)
	}
}

// flushSafe attempts bulk insert, then fallback insert, then requeue.
func (w *IntegrityWorker) flushSafe(ctx context.Context, batch []model.IntegrityEvent) {
	if err := w.writer.BulkInsert(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk insert failed, attempting row-by-row recovery")
		w.fallbackInsert(ctx, batch)
		return
	}
	w.log.Debug().Int("count", len(batch)).Msg("Integrity events persisted")
}

func (w *IntegrityWorker) fallbackInsert(ctx context.Context, batch []model.IntegrityEvent) {
	var requeueList []model.IntegrityEvent
	for _, e := range batch {
		if e.SessionID == "" || e.Signal == "" {
			w.log.Error().Str("candidate_id", e.CandidateID).Msg("Dropping integrity event without session or signal")
			continue
		}
		if err := w.writer.Insert(ctx, e); err != nil {
			w.log.Error().Err(err).Str("session_id", e.SessionID).Msg("Insert failed, requeueing")
			requeueList = append(requeueList, e)
		}
	}

	if len(requeueList) > 0 {
		w.requeue(ctx, requeueList)
	}
}

func (w *IntegrityWorker) requeue(ctx context.Context, items []model.IntegrityEvent) {
	payloads := make([][]byte, 0, len(items))
	for _, e := range items {
		data, _ := json.Marshal(e)
		payloads = append(payloads, data)
	}
	if err := w.queue.Push(ctx, payloads...); err != nil {
		w.log.Error().Err(err).Msg("CRITICAL: Failed to requeue integrity events. Data loss occurred.")
		return
	}
	w.log.Info().Int("count", len(items)).Msg("Requeued failed items")
	// Avoid thrashing while the database is down.
	time.Sleep(w.requeueBackoff)
}

func (w *IntegrityWorker) shutdown(buffer []model.IntegrityEvent) {
	w.log.Info().Msg("Worker stopping, flushing remaining buffer...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if len(buffer) > 0 {
		w.flushSafe(shutdownCtx, buffer)
	}
}
