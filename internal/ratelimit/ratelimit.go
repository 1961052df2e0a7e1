// Package ratelimit throttles counter terminals with a sliding window
// backed by Redis sorted sets.
package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/graficaloja/backend-pdv/internal/common"
)

// Window is a sliding-window limiter with its thresholds baked in. A nil
// client disables limiting.
type Window struct {
	Client  *redis.Client
	Prefix  string
	Length  time.Duration
	Max     int
	OnError func(error)
}

// Take registers a hit for the key and reports whether it fits the window.
func (w Window) Take(ctx context.Context, key string) (allowed bool, remaining int, reset time.Time, err error) {
	if w.Client == nil || w.Max <= 0 || w.Length <= 0 {
		return true, w.Max, time.Now().Add(w.Length), nil
	}

	now := time.Now()
	reset = now.Add(w.Length)
	cutoff := float64(now.Add(-w.Length).UnixNano())
	redisKey := w.Prefix + key

	pipe := w.Client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "-inf", fmt.Sprintf("%f", cutoff))
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()})
	countCmd := pipe.ZCard(ctx, redisKey)
	pipe.Expire(ctx, redisKey, w.Length)
	if _, err = pipe.Exec(ctx); err != nil {
		return false, 0, reset, err
	}

	current := int(countCmd.Val())
	remaining = w.Max - current
	if remaining < 0 {
		remaining = 0
	}
	return current <= w.Max, remaining, reset, nil
}

// Middleware enforces the window per client IP. Redis failures let requests
// through so a cache outage cannot take the counter down.
func (w Window) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		allowed, remaining, reset, err := w.Take(r.Context(), common.ClientIP(r))
		if err != nil {
			if w.OnError != nil {
				w.OnError(err)
			}
			next.ServeHTTP(rw, r)
			return
		}

		headers := rw.Header()
		headers.Set("X-RateLimit-Limit", strconv.Itoa(w.Max))
		headers.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

		if !allowed {
			retryAfter := int(time.Until(reset).Seconds())
			if retryAfter < 0 {
				retryAfter = 0
			}
			headers.Set("Retry-After", strconv.Itoa(retryAfter))
			common.JSONError(rw, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests", nil)
			return
		}

		next.ServeHTTP(rw, r)
	})
}
