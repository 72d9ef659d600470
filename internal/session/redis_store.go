package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/srbmarine/exam-portal/internal/config"
	"github.com/srbmarine/exam-portal/internal/model"
)

// Hash fields of exam_session:{sid}.
const (
	fieldIdentity     = "identity"
	fieldRefreshCount = "refresh_count"
	fieldTabSwitch    = "tab_switch_count"
	fieldSubmitOnLoad = "submit_on_load"
	fieldPageLoaded   = "page_loaded"
	fieldSubmitting   = "submitting"
	fieldAttempt      = "attempt"
	fieldResult       = "result"
)

// RedisStore keeps each session in a single hash with a sliding TTL.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore creates a RedisStore whose hashes expire after ttl of inactivity.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) key(sid string) string {
	return config.CacheKey.ExamSessionKey(sid)
}

func (s *RedisStore) setJSON(ctx context.Context, sid, field string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", field, err)
	}
	key := s.key(sid)
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, key, field, raw)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store %s: %w", field, err)
	}
	return nil
}

func (s *RedisStore) getJSON(ctx context.Context, sid, field string, v any) error {
	raw, err := s.rdb.HGet(ctx, s.key(sid), field).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		return fmt.Errorf("load %s: %w", field, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", field, err)
	}
	return nil
}

func (s *RedisStore) incr(ctx context.Context, sid, field string) (int, error) {
	key := s.key(sid)
	pipe := s.rdb.TxPipeline()
	n := pipe.HIncrBy(ctx, key, field, 1)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("increment %s: %w", field, err)
	}
	return int(n.Val()), nil
}

func (s *RedisStore) setFlag(ctx context.Context, sid, field string) error {
	key := s.key(sid)
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, key, field, "1")
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("set %s: %w", field, err)
	}
	return nil
}

func (s *RedisStore) SaveIdentity(ctx context.Context, sid string, id model.CandidateIdentity) error {
	return s.setJSON(ctx, sid, fieldIdentity, id)
}

func (s *RedisStore) Identity(ctx context.Context, sid string) (model.CandidateIdentity, error) {
	var id model.CandidateIdentity
	err := s.getJSON(ctx, sid, fieldIdentity, &id)
	return id, err
}

func (s *RedisStore) ClearIdentity(ctx context.Context, sid string) error {
	return s.rdb.HDel(ctx, s.key(sid), fieldIdentity).Err()
}

func (s *RedisStore) Progress(ctx context.Context, sid string) (model.Progress, error) {
	vals, err := s.rdb.HMGet(ctx, s.key(sid), fieldRefreshCount, fieldTabSwitch, fieldSubmitOnLoad, fieldPageLoaded, fieldSubmitting).Result()
	if err != nil {
		return model.Progress{}, fmt.Errorf("load progress: %w", err)
	}
	return model.Progress{
		RefreshCount:   atoi(vals[0]),
		TabSwitchCount: atoi(vals[1]),
		SubmitOnLoad:   vals[2] == "1",
		PageLoaded:     vals[3] == "1",
		Submitting:     vals[4] == "1",
	}, nil
}

func atoi(v any) int {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	n, _ := strconv.Atoi(s)
	return n
}

func (s *RedisStore) MarkPageLoaded(ctx context.Context, sid string) error {
	return s.setFlag(ctx, sid, fieldPageLoaded)
}

func (s *RedisStore) IncrRefresh(ctx context.Context, sid string) (int, error) {
	return s.incr(ctx, sid, fieldRefreshCount)
}

func (s *RedisStore) IncrTabSwitch(ctx context.Context, sid string) (int, error) {
	return s.incr(ctx, sid, fieldTabSwitch)
}

func (s *RedisStore) SetSubmitOnLoad(ctx context.Context, sid string) error {
	return s.setFlag(ctx, sid, fieldSubmitOnLoad)
}

func (s *RedisStore) MarkSubmitting(ctx context.Context, sid string) error {
	return s.setFlag(ctx, sid, fieldSubmitting)
}

func (s *RedisStore) SaveAttempt(ctx context.Context, sid string, snap model.AttemptSnapshot) error {
	return s.setJSON(ctx, sid, fieldAttempt, snap)
}

func (s *RedisStore) Attempt(ctx context.Context, sid string) (model.AttemptSnapshot, error) {
	var snap model.AttemptSnapshot
	err := s.getJSON(ctx, sid, fieldAttempt, &snap)
	return snap, err
}

func (s *RedisStore) SaveResult(ctx context.Context, sid string, res model.ExamResult) error {
	return s.setJSON(ctx, sid, fieldResult, res)
}

func (s *RedisStore) Result(ctx context.Context, sid string) (model.ExamResult, error) {
	var res model.ExamResult
	err := s.getJSON(ctx, sid, fieldResult, &res)
	return res, err
}

func (s *RedisStore) ClearProgress(ctx context.Context, sid string) error {
	return s.rdb.HDel(ctx, s.key(sid),
		fieldRefreshCount, fieldTabSwitch, fieldSubmitOnLoad, fieldPageLoaded, fieldSubmitting, fieldAttempt,
	).Err()
}

func (s *RedisStore) Destroy(ctx context.Context, sid string) error {
	return s.rdb.Del(ctx, s.key(sid)).Err()
}
