package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/theater-seat-booking/internal/config"
)

// takeToken refills the bucket in whole intervals and takes one token.
// KEYS[1] bucket hash
// ARGV now_ms, capacity, refill, interval_ms, ttl_s
// Returns {allowed, tokens_left, wait_ms}.
var takeToken = redis.NewScript(`
local now = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill = tonumber(ARGV[3])
local interval = tonumber(ARGV[4])

local tokens = tonumber(redis.call('HGET', KEYS[1], 'tokens'))
local stamp = tonumber(redis.call('HGET', KEYS[1], 'stamp'))
if not tokens or not stamp then
	tokens = capacity
	stamp = now
end

local periods = math.floor(math.max(0, now - stamp) / interval)
if periods > 0 then
	tokens = math.min(capacity, tokens + periods * refill)
	stamp = stamp + periods * interval
end

local allowed = 0
local wait = 0
if tokens >= 1 then
	tokens = tokens - 1
	allowed = 1
else
	wait = math.max(0, stamp + interval - now)
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'stamp', stamp)
redis.call('EXPIRE', KEYS[1], tonumber(ARGV[5]))
return {allowed, tokens, wait}
`)

// NewTokenBucket limits booking and import traffic with one token bucket
// per theater and caller, kept in Redis so every API instance draws from
// the same budget. Redis errors fail open.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log logrus.FieldLogger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passThrough
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := bucketKey(cfg, c)
			klog := log.WithField("key", key)

			raw, err := takeToken.Run(c.Request().Context(), rdb, []string{key},
				time.Now().UnixMilli(),
				cfg.Capacity,
				cfg.RefillTokens,
				cfg.RefillInterval.Milliseconds(),
				int64(cfg.TTL/time.Second),
			).Result()
			if err != nil {
				klog.WithError(err).Warn("ratelimit: redis unavailable, allowing request")
				return next(c)
			}
			st, err := parseBucketState(raw)
			if err != nil {
				klog.WithError(err).Warn("ratelimit: allowing request")
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(st.Remaining, 10))
			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			if st.Allowed {
				return next(c)
			}

			secs := retryAfterSeconds(st.Wait)
			h.Set("Retry-After", strconv.Itoa(secs))
			klog.WithField("retry_after", secs).Info("ratelimit: request blocked")
			return c.JSON(http.StatusTooManyRequests, map[string]any{
				"error":       "rate limit exceeded",
				"retry_after": secs,
			})
		}
	}
}

// bucketState is the decoded reply of takeToken.
type bucketState struct {
	Allowed   bool
	Remaining int64
	Wait      time.Duration
}

func parseBucketState(v any) (bucketState, error) {
	arr, ok := v.([]interface{})
	if !ok || len(arr) != 3 {
		return bucketState{}, fmt.Errorf("unexpected script reply %#v", v)
	}
	var n [3]int64
	for i, x := range arr {
		switch t := x.(type) {
		case int64:
			n[i] = t
		case string:
			p, err := strconv.ParseInt(t, 10, 64)
			if err != nil {
				return bucketState{}, fmt.Errorf("script reply %d: %w", i, err)
			}
			n[i] = p
		default:
			return bucketState{}, fmt.Errorf("script reply %d has type %T", i, x)
		}
	}
	return bucketState{
		Allowed:   n[0] == 1,
		Remaining: n[1],
		Wait:      time.Duration(n[2]) * time.Millisecond,
	}, nil
}

func retryAfterSeconds(wait time.Duration) int {
	if wait <= 0 {
		return 0
	}
	return int(math.Ceil(wait.Seconds()))
}

// bucketKey is <prefix>:theater:<id>:caller:<subject>, with the client IP
// standing in for unauthenticated callers. PerRoute appends the route.
func bucketKey(cfg config.RateLimitConfig, c echo.Context) string {
	theater := c.Param("theaterID")
	if theater == "" {
		theater = "-"
	}
	caller := currentUserID(c)
	if caller == "anon" {
		caller = "ip:" + c.RealIP()
	}
	key := fmt.Sprintf("%s:theater:%s:caller:%s", cfg.Prefix, theater, caller)
	if cfg.PerRoute {
		key += ":" + c.Request().Method + " " + c.Path()
	}
	return key
}
