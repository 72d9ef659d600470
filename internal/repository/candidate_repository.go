package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/srbmarine/exam-portal/internal/model"
)

var (
	ErrDuplicatePhone       = errors.New("candidate with this phone number already exists")
	ErrDuplicateCandidateID = errors.New("candidate id already taken")
)

const candidateColumns = `id, candidate_id, name, date_of_birth, phone_number, country_code, created_at`

// CandidateRepository handles candidate data access.
type CandidateRepository struct {
	pool *pgxpool.Pool
}

// NewCandidateRepository creates a new CandidateRepository.
func NewCandidateRepository(pool *pgxpool.Pool) *CandidateRepository {
	return &CandidateRepository{pool: pool}
}

func scanCandidate(row interface{ Scan(...any) error }, c *model.Candidate) error {
	return row.Scan(&c.ID, &c.CandidateID, &c.Name, &c.DateOfBirth, &c.PhoneNumber, &c.CountryCode, &c.CreatedAt)
}

// CountWithPrefix counts candidates whose id starts with prefix.
func (r *CandidateRepository) CountWithPrefix(ctx context.Context, prefix string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM candidates WHERE candidate_id LIKE $1 || '%'`, prefix,
	).Scan(&n)
	return n, err
}

// Create inserts a new candidate.
func (r *CandidateRepository) Create(ctx context.Context, c *model.Candidate) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO candidates (candidate_id, name, date_of_birth, phone_number, country_code)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		c.CandidateID, c.Name, c.DateOfBirth, c.PhoneNumber, c.CountryCode,
	).Scan(&c.ID, &c.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if strings.Contains(pgErr.ConstraintName, "candidate_id") {
				return ErrDuplicateCandidateID
			}
			return ErrDuplicatePhone
		}
		return err
	}
	return nil
}

// GetByLogin finds the candidate matching all three login fields.
func (r *CandidateRepository) GetByLogin(ctx context.Context, name, phone, countryCode string) (*model.Candidate, error) {
	c := &model.Candidate{}
	err := scanCandidate(r.pool.QueryRow(ctx,
		`SELECT `+candidateColumns+`
		 FROM candidates
		 WHERE LOWER(name) = LOWER($1) AND phone_number = $2 AND country_code = $3`,
		name, phone, countryCode,
	), c)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetByCandidateID retrieves a candidate by the public candidate id.
func (r *CandidateRepository) GetByCandidateID(ctx context.Context, candidateID string) (*model.Candidate, error) {
	c := &model.Candidate{}
	err := scanCandidate(r.pool.QueryRow(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE candidate_id = $1`, candidateID,
	), c)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListPaginated retrieves candidates, newest first.
func (r *CandidateRepository) ListPaginated(ctx context.Context, limit, offset int) ([]model.Candidate, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM candidates`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+candidateColumns+` FROM candidates ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var candidates []model.Candidate
	for rows.Next() {
		var c model.Candidate
		if err := scanCandidate(rows, &c); err != nil {
			return nil, 0, err
		}
		candidates = append(candidates, c)
	}
	return candidates, total, rows.Err()
}
