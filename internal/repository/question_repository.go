package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/srbmarine/exam-portal/internal/model"
)

// QuestionRepository handles question bank access. Position in the bank is
// the id order; the exam takes the first N rows.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListOrdered returns the first limit questions in id order, answer key included.
func (r *QuestionRepository) ListOrdered(ctx context.Context, limit int) ([]model.QuestionRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, question, choice_a, choice_b, choice_c, choice_d, answer
		 FROM questions ORDER BY id LIMIT $1`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var qs []model.QuestionRecord
	for rows.Next() {
		var q model.QuestionRecord
		if err := rows.Scan(&q.ID, &q.Prompt, &q.ChoiceA, &q.ChoiceB, &q.ChoiceC, &q.ChoiceD, &q.Answer); err != nil {
			return nil, err
		}
		qs = append(qs, q)
	}
	return qs, rows.Err()
}

// Count returns the number of stored questions.
func (r *QuestionRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM questions`).Scan(&n)
	return n, err
}

// BulkInsert loads seed questions with COPY.
func (r *QuestionRepository) BulkInsert(ctx context.Context, qs []model.SeedQuestion) (int64, error) {
	rows := make([][]any, 0, len(qs))
	for _, q := range qs {
		rows = append(rows, []any{q.Question, q.ChoiceA, q.ChoiceB, q.ChoiceC, q.ChoiceD, string(q.Answer)})
	}
	return r.pool.CopyFrom(ctx,
		pgx.Identifier{"questions"},
		[]string{"question", "choice_a", "choice_b", "choice_c", "choice_d", "answer"},
		pgx.CopyFromRows(rows),
	)
}
