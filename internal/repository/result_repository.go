package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/srbmarine/exam-portal/internal/model"
)

var ErrResultExists = errors.New("exam result already recorded for this phone number")

const resultColumns = `id, candidate_id, candidate_name, phone_number, date_of_birth, exam_date,
	marks_obtained, total_marks, percentage::float8, answers`

// ResultRepository handles exam result data access.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

func scanResult(row interface{ Scan(...any) error }, r *model.ResultRecord) error {
	return row.Scan(&r.ID, &r.CandidateID, &r.CandidateName, &r.PhoneNumber, &r.DateOfBirth, &r.ExamDate,
		&r.MarksObtained, &r.TotalMarks, &r.Percentage, &r.Answers)
}

// ExistsByPhone reports whether a result exists for the phone number.
func (r *ResultRepository) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM exam_results WHERE phone_number = $1)`, phone,
	).Scan(&exists)
	return exists, err
}

// Create inserts a result. The unique phone index enforces a single attempt.
func (r *ResultRepository) Create(ctx context.Context, rec *model.ResultRecord) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO exam_results
		   (candidate_id, candidate_name, phone_number, date_of_birth, marks_obtained, total_marks, percentage, answers)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, exam_date`,
		rec.CandidateID, rec.CandidateName, rec.PhoneNumber, rec.DateOfBirth,
		rec.MarksObtained, rec.TotalMarks, rec.Percentage, rec.Answers,
	).Scan(&rec.ID, &rec.ExamDate)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrResultExists
		}
		return err
	}
	return nil
}

// ListPaginated retrieves results, most recent exam first.
func (r *ResultRepository) ListPaginated(ctx context.Context, limit, offset int) ([]model.ResultRecord, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM exam_results`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+resultColumns+` FROM exam_results ORDER BY exam_date DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []model.ResultRecord
	for rows.Next() {
		var rec model.ResultRecord
		if err := scanResult(rows, &rec); err != nil {
			return nil, 0, err
		}
		results = append(results, rec)
	}
	return results, total, rows.Err()
}

// ListByCandidate retrieves every result recorded for a candidate id.
func (r *ResultRepository) ListByCandidate(ctx context.Context, candidateID string) ([]model.ResultRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+resultColumns+` FROM exam_results WHERE candidate_id = $1 ORDER BY exam_date DESC`,
		candidateID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.ResultRecord
	for rows.Next() {
		var rec model.ResultRecord
		if err := scanResult(rows, &rec); err != nil {
			return nil, err
		}
		results = append(results, rec)
	}
	return results, rows.Err()
}
