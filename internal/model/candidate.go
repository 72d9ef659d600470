package model

import "time"

// DateLayout is the wire and storage format of a date of birth.
const DateLayout = "2006-01-02"

// Candidate is a registered exam candidate as stored in PostgreSQL.
type Candidate struct {
	ID          int       `json:"-"`
	CandidateID string    `json:"candidate_id"`
	Name        string    `json:"name"`
	DateOfBirth time.Time `json:"date_of_birth"`
	PhoneNumber string    `json:"phone_number"`
	CountryCode string    `json:"country_code"`
	CreatedAt   time.Time `json:"created_at"`
}

// Identity projects the candidate into the immutable session identity.
func (c *Candidate) Identity() CandidateIdentity {
	return CandidateIdentity{
		CandidateID: c.CandidateID,
		Name:        c.Name,
		DateOfBirth: c.DateOfBirth.Format(DateLayout),
		PhoneNumber: c.PhoneNumber,
		CountryCode: c.CountryCode,
	}
}

// CandidateIdentity is the identity held in session scope for one attempt.
// It is never re-read from PostgreSQL once the exam has started.
type CandidateIdentity struct {
	CandidateID string `json:"candidate_id"`
	Name        string `json:"name"`
	DateOfBirth string `json:"date_of_birth"`
	PhoneNumber string `json:"phone_number"`
	CountryCode string `json:"country_code"`
}

// RegisterRequest is the payload for candidate registration.
type RegisterRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=255"`
	DateOfBirth string `json:"date_of_birth" binding:"required,datetime=2006-01-02,notfuture"`
	PhoneNumber string `json:"phone_number" binding:"required,min=7,max=20,numeric"`
	CountryCode string `json:"country_code" binding:"required,min=1,max=5"`
}

// LoginRequest is the payload for candidate login.
type LoginRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=255"`
	PhoneNumber string `json:"phone_number" binding:"required,min=7,max=20,numeric"`
	CountryCode string `json:"country_code" binding:"required,min=1,max=5"`
}

// SessionResponse is returned after registration or login.
type SessionResponse struct {
	Token     string            `json:"token"`
	Candidate CandidateIdentity `json:"candidate"`
}
