package model

import (
	"encoding/json"
	"time"
)

// SubmitRequest is the payload of the scoring boundary. Answers maps a
// question ordinal to the chosen option; unanswered ordinals are absent.
type SubmitRequest struct {
	CandidateID   string         `json:"candidate_id" binding:"required,min=4,max=20"`
	CandidateName string         `json:"candidate_name" binding:"required,min=2,max=255"`
	PhoneNumber   string         `json:"phone_number" binding:"required,min=7,max=20"`
	DateOfBirth   string         `json:"date_of_birth" binding:"required,datetime=2006-01-02"`
	Answers       map[int]Choice `json:"answers" binding:"required,dive,keys,min=1,endkeys,oneof=A B C D"`
}

// AnswerDetail is the per-question correctness breakdown.
type AnswerDetail struct {
	Ordinal         int     `json:"ordinal"`
	CandidateAnswer *Choice `json:"candidate_answer"`
	CorrectAnswer   Choice  `json:"correct_answer"`
	IsCorrect       bool    `json:"is_correct"`
}

// ExamResult is produced once per attempt by the scoring boundary.
type ExamResult struct {
	MarksObtained int            `json:"marks_obtained"`
	TotalMarks    int            `json:"total_marks"`
	Percentage    float64        `json:"percentage"`
	AnswerDetails []AnswerDetail `json:"answer_details"`
}

// ResultRecord is a persisted row of exam_results.
type ResultRecord struct {
	ID            int             `json:"id"`
	CandidateID   string          `json:"candidate_id"`
	CandidateName string          `json:"candidate_name"`
	PhoneNumber   string          `json:"phone_number"`
	DateOfBirth   time.Time       `json:"date_of_birth"`
	ExamDate      time.Time       `json:"exam_date"`
	MarksObtained int             `json:"marks_obtained"`
	TotalMarks    int             `json:"total_marks"`
	Percentage    float64         `json:"percentage"`
	Answers       json.RawMessage `json:"answers"`
}
