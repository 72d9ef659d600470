package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/srbmarine/exam-portal/internal/model"
)

// ContactRepository stores contact form submissions.
type ContactRepository struct {
	pool *pgxpool.Pool
}

// NewContactRepository creates a new ContactRepository.
func NewContactRepository(pool *pgxpool.Pool) *ContactRepository {
	return &ContactRepository{pool: pool}
}

// Create inserts a contact message.
func (r *ContactRepository) Create(ctx context.Context, c *model.Contact) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO contacts (name, email, message) VALUES ($1, $2, $3) RETURNING id, created_at`,
		c.Name, c.Email, c.Message,
	).Scan(&c.ID, &c.CreatedAt)
}

// ListPaginated retrieves contact messages, newest first.
func (r *ContactRepository) ListPaginated(ctx context.Context, limit, offset int) ([]model.Contact, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM contacts`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, name, email, message, created_at FROM contacts ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var contacts []model.Contact
	for rows.Next() {
		var c model.Contact
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Message, &c.CreatedAt); err != nil {
			return nil, 0, err
		}
		contacts = append(contacts, c)
	}
	return contacts, total, rows.Err()
}
