package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/srbmarine/exam-portal/internal/model"
)

// IntegrityEventRepository persists the integrity audit trail.
type IntegrityEventRepository struct {
	pool *pgxpool.Pool
}

// NewIntegrityEventRepository creates a new IntegrityEventRepository.
func NewIntegrityEventRepository(pool *pgxpool.Pool) *IntegrityEventRepository {
	return &IntegrityEventRepository{pool: pool}
}

var integrityColumns = []string{"session_id", "candidate_id", "signal", "effect", "detail", "recorded_at"}

// BulkInsert writes a batch with COPY.
func (r *IntegrityEventRepository) BulkInsert(ctx context.Context, events []model.IntegrityEvent) error {
	rows := make([][]any, 0, len(events))
	for _, e := range events {
		rows = append(rows, []any{e.SessionID, e.CandidateID, e.Signal, e.Effect, e.Detail, e.RecordedAt})
	}
	_, err := r.pool.CopyFrom(ctx, pgx.Identifier{"integrity_events"}, integrityColumns, pgx.CopyFromRows(rows))
	return err
}

// Insert writes a single event.
func (r *IntegrityEventRepository) Insert(ctx context.Context, e model.IntegrityEvent) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO integrity_events (session_id, candidate_id, signal, effect, detail, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		e.SessionID, e.CandidateID, e.Signal, e.Effect, e.Detail, e.RecordedAt,
	)
	return err
}

// ListByCandidate returns the audit trail of one candidate, oldest first.
func (r *IntegrityEventRepository) ListByCandidate(ctx context.Context, candidateID string) ([]model.IntegrityEvent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT session_id, candidate_id, signal, effect, detail, recorded_at
		 FROM integrity_events WHERE candidate_id = $1 ORDER BY recorded_at`, candidateID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.IntegrityEvent
	for rows.Next() {
		var e model.IntegrityEvent
		if err := rows.Scan(&e.SessionID, &e.CandidateID, &e.Signal, &e.Effect, &e.Detail, &e.RecordedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
