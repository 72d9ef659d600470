package model

import "time"

// QuestionAttempt is the candidate's state for one ordinal.
type QuestionAttempt struct {
	Answered bool   `json:"answered"`
	Flagged  bool   `json:"flagged"`
	Selected Choice `json:"selected,omitempty"`
}

// AttemptSnapshot is the reload-durable copy of an in-progress attempt.
type AttemptSnapshot struct {
	Cursor   int               `json:"cursor"`
	Attempts []QuestionAttempt `json:"attempts"`
	Deadline time.Time         `json:"deadline"`
}

// Progress holds the cross-reload integrity counters of a session.
type Progress struct {
	RefreshCount   int  `json:"refresh_count"`
	TabSwitchCount int  `json:"tab_switch_count"`
	SubmitOnLoad   bool `json:"submit_on_load"`
	PageLoaded     bool `json:"page_loaded"`
	// Submitting is set once the attempt has been handed to the scorer.
	Submitting     bool `json:"submitting"`
}
