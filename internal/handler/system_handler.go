package handler

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/srbmarine/exam-portal/internal/config"
)

const healthTimeout = 2 * time.Second

// SystemHandler reports liveness and dependency health.
type SystemHandler struct {
	pool      *pgxpool.Pool
	rdb       *redis.Client
	startTime time.Time
	log       zerolog.Logger
}

func NewSystemHandler(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		pool:      pool,
		rdb:       rdb,
		startTime: time.Now(),
		log:       log.With().Str("component", "system_handler").Logger(),
	}
}

type healthReport struct {
	Status     string            `json:"status"`
	Timestamp  string            `json:"timestamp"`
	Uptime     string            `json:"uptime"`
	Goroutines int               `json:"goroutines"`
	Checks     map[string]string `json:"checks"`

	// Integrity events waiting for the audit worker.
	QueueIntegrity int64 `json:"queue_integrity"`
}

// Health godoc
// GET /health
// Always answers; reports 503 when PostgreSQL or Redis is unreachable.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	report := healthReport{
		Status:     "OK",
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Uptime:     formatDuration(time.Since(h.startTime)),
		Goroutines: runtime.NumGoroutine(),
		Checks:     map[string]string{},
	}

	if h.pool != nil {
		report.Checks["postgres"] = h.check(h.pool.Ping(ctx), "postgres")
	}
	if h.rdb != nil {
		report.Checks["redis"] = h.check(h.rdb.Ping(ctx).Err(), "redis")
		report.QueueIntegrity, _ = h.rdb.LLen(ctx, config.WorkerKey.PersistIntegrityQueue).Result()
	}

	status := http.StatusOK
	for _, v := range report.Checks {
		if v != "up" {
			report.Status = "DEGRADED"
			status = http.StatusServiceUnavailable
		}
	}
	c.JSON(status, report)
}

func (h *SystemHandler) check(err error, name string) string {
	if err != nil {
		h.log.Warn().Err(err).Str("dependency", name).Msg("Health check failed")
		return "down"
	}
	return "up"
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}
