package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/cinema-catalog-bot/internal/config"
)

var limiterScript = redis.NewScript(`
    local key = KEYS[1]
    local now_ms = tonumber(ARGV[1])
    local capacity = tonumber(ARGV[2])
    local refill_tokens = tonumber(ARGV[3])
    local interval_ms = tonumber(ARGV[4])
    local ttl_seconds = tonumber(ARGV[5])

    local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
    local tokens = tonumber(state[1])
    local last_refill = tonumber(state[2])

    if tokens == nil or last_refill == nil then
        tokens = capacity
        last_refill = now_ms
    end

    if interval_ms > 0 and refill_tokens > 0 then
        local elapsed = math.max(0, now_ms - last_refill)
        local intervals = math.floor(elapsed / interval_ms)
        if intervals > 0 then
            tokens = math.min(capacity, tokens + (intervals * refill_tokens))
            last_refill = last_refill + (intervals * interval_ms)
        end
    end

    local allowed = 0
    local retry_after_ms = 0
    if tokens > 0 then
        allowed = 1
        tokens = tokens - 1
    else
        retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
    end

    redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
    redis.call('EXPIRE', key, ttl_seconds)

    return { allowed, tokens, retry_after_ms }
`)

// TokenBucket is a Redis backed token bucket shared by every process
// using the same Redis and prefix.  A nil client allows everything.
type TokenBucket struct {
	rdb      *redis.Client
	cfg      config.RateLimitConfig
	capacity int
	log      zerolog.Logger
}

// NewTokenBucket builds a bucket of the given capacity; refill rate and
// TTL come from cfg.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, capacity int, log zerolog.Logger) *TokenBucket {
	if capacity < 1 {
		capacity = cfg.Capacity
	}
	if !cfg.Enabled {
		rdb = nil
	}
	return &TokenBucket{rdb: rdb, cfg: cfg, capacity: capacity, log: log}
}

type decision struct {
	allowed   bool
	remaining int64
	retry     time.Duration
}

func (b *TokenBucket) take(ctx context.Context, key string) (decision, error) {
	if b.rdb == nil {
		return decision{allowed: true, remaining: int64(b.capacity)}, nil
	}
	args := []interface{}{
		time.Now().UnixMilli(),
		b.capacity,
		b.cfg.RefillTokens,
		b.cfg.RefillInterval.Milliseconds(),
		int64(b.cfg.TTL / time.Second),
	}
	vals, err := limiterScript.Run(ctx, b.rdb, []string{b.cfg.Prefix + ":" + key}, args...).Result()
	if err != nil {
		return decision{}, fmt.Errorf("rate limit script: %w", err)
	}
	return parseDecision(vals)
}

func parseDecision(vals interface{}) (decision, error) {
	arr, ok := vals.([]interface{})
	if !ok || len(arr) != 3 {
		return decision{}, fmt.Errorf("unexpected rate limit result %#v", vals)
	}
	return decision{
		allowed:   asInt64(arr[0]) == 1,
		remaining: asInt64(arr[1]),
		retry:     time.Duration(asInt64(arr[2])) * time.Millisecond,
	}, nil
}

// Allow takes one token for key.
func (b *TokenBucket) Allow(ctx context.Context, key string) (bool, error) {
	d, err := b.take(ctx, key)
	if err != nil {
		return false, err
	}
	return d.allowed, nil
}

// Middleware limits HTTP requests per client ip and route.  Redis errors
// let the request through.
func (b *TokenBucket) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := rateKey(c)
			d, err := b.take(c.Request().Context(), key)
			if err != nil {
				b.log.Warn().Err(err).Str("key", key).Msg("rate limiter unavailable")
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(b.capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(d.remaining, 10))
			if !d.allowed {
				secs := int(math.Ceil(d.retry.Seconds()))
				h.Set("Retry-After", strconv.Itoa(secs))
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error":       "too_many_requests",
					"retry_after": secs,
				})
			}
			return next(c)
		}
	}
}

func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n
		}
	}
	return 0
}

func rateKey(c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	return strings.Join([]string{"http", ip, currentUserID(c), c.Request().Method, c.Path()}, ":")
}
