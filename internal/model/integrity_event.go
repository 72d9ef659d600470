package model

import "time"

// IntegrityEvent is one audit row describing a guard decision.
type IntegrityEvent struct {
	SessionID   string    `json:"session_id"`
	CandidateID string    `json:"candidate_id"`
	Signal      string    `json:"signal"`
	Effect      string    `json:"effect"`
	Detail      string    `json:"detail,omitempty"`
	RecordedAt  time.Time `json:"recorded_at"`
}
