package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hackmate/hackathon-console/internal/config"
	"github.com/hackmate/hackathon-console/internal/response"
)

// Counter increments a windowed counter and returns the new count.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisCounter is a fixed-window Counter shared by every server instance.
type RedisCounter struct {
	rdb *redis.Client
}

// NewRedisCounter creates a new RedisCounter.
func NewRedisCounter(rdb *redis.Client) *RedisCounter {
	return &RedisCounter{rdb: rdb}
}

// Incr bumps key and starts its window on the first hit.
func (r *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := r.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// RateLimiter allows rate requests per interval for each client of a route.
type RateLimiter struct {
	counter  Counter
	route    string
	rate     int
	interval time.Duration
	log      zerolog.Logger
}

// NewRateLimiter creates a RateLimiter (e.g., 10 requests per minute).
func NewRateLimiter(counter Counter, route string, rate int, interval time.Duration, log zerolog.Logger) *RateLimiter {
	return &RateLimiter{
		counter:  counter,
		route:    route,
		rate:     rate,
		interval: interval,
		log:      log.With().Str("component", "ratelimit").Str("route", route).Logger(),
	}
}

// Middleware returns a Gin middleware that rate-limits requests by caller.
// Authenticated callers are keyed by user id, anonymous ones by IP. A counter
// outage lets requests through.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		client := c.ClientIP()
		if claims := GetClaims(c); claims != nil {
			client = string(claims.TokenType) + ":" + strconv.Itoa(claims.UserID)
		}

		n, err := rl.counter.Incr(c.Request.Context(), config.CacheKey.RateLimitKey(rl.route, client), rl.interval)
		if err != nil {
			rl.log.Warn().Err(err).Msg("Rate limit counter unavailable")
			c.Next()
			return
		}

		if n > int64(rl.rate) {
			c.Header("Retry-After", strconv.Itoa(int(rl.interval.Seconds())))
			response.AbortFail(c, http.StatusTooManyRequests, response.ErrRateLimitExceeded)
			return
		}
		c.Next()
	}
}
