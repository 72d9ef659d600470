package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/srbmarine/exam-portal/internal/config"
)

const redisConnectTimeout = 5 * time.Second

// NewRedisClient opens the client backing exam sessions, the question
// cache, the integrity queue and rate limit counters.
func NewRedisClient(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	// The integrity worker holds one connection in BLPOP at all times.
	if opt.MinIdleConns == 0 {
		opt.MinIdleConns = 2
	}

	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, redisConnectTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opt.Addr, err)
	}

	log.Info().
		Str("addr", opt.Addr).
		Int("db", opt.DB).
		Int("min_idle_conns", opt.MinIdleConns).
		Msg("Redis connected")

	return rdb, nil
}
