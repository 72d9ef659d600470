package middleware

import (
	"fmt"
	"net/http"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/srbmarine/exam-portal/internal/config"
	"github.com/srbmarine/exam-portal/internal/response"
)

// RateLimit limits each client IP to limit requests per window. Counters
// live in Redis when rdb is set, in process memory otherwise.
func RateLimit(rdb *redis.Client, window time.Duration, limit uint) gin.HandlerFunc {
	var store ratelimit.Store
	if rdb != nil {
		store = ratelimit.RedisStore(&ratelimit.RedisOptions{
			RedisClient: rdb,
			Rate:        window,
			Limit:       limit,
		})
	} else {
		store = ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
			Rate:  window,
			Limit: limit,
		})
	}

	return ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: rateLimitExceeded,
		KeyFunc: func(c *gin.Context) string {
			return fmt.Sprintf("%s:%s", config.CacheKey.RateLimitPrefix(), c.ClientIP())
		},
	})
}

func rateLimitExceeded(c *gin.Context, info ratelimit.Info) {
	c.Header("Retry-After", fmt.Sprintf("%.0f", time.Until(info.ResetTime).Seconds()))
	response.AbortFail(c, http.StatusTooManyRequests, response.ErrRateLimitExceeded)
}
