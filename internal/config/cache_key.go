package config

import "fmt"

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// ExamSessionKey returns the hash holding everything scoped to one candidate
// session: identity, progress counters, attempt snapshot and result.
func (r *CacheKeyStruct) ExamSessionKey(sessionID string) string {
	return fmt.Sprintf("exam_session:%s", sessionID)
}

// CandidateSessionKey points a candidate at their live session id.
func (r *CacheKeyStruct) CandidateSessionKey(candidateID string) string {
	return fmt.Sprintf("candidate:%s:session", candidateID)
}

// QuestionSetKey caches the ordered public question set.
func (r *CacheKeyStruct) QuestionSetKey() string {
	return "questions:public"
}

// RateLimitPrefix namespaces the per-IP rate limit counters.
func (r *CacheKeyStruct) RateLimitPrefix() string {
	return "ratelimit"
}

var CacheKey = NewCacheKeyStruct()
