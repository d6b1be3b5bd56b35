// Package ratelimit implements a Redis sliding-window request limiter.
package ratelimit

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"unipulse/backend/internal/gateway/util"
	"unipulse/backend/internal/shared"
)

const keyPrefix = "unipulse:rate_limit:"

// Limiter counts requests per key in Redis. A nil *Limiter allows everything,
// so rate limiting is switched off by leaving REDIS_ADDR empty.
type Limiter struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// New connects to Redis and verifies the connection with a ping. It returns
// a nil Limiter when cfg.Addr is empty.
func New(cfg shared.RedisConfig, logger *zap.Logger) (*Limiter, error) {
	if cfg.Addr == "" {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("connected to Redis", zap.String("addr", cfg.Addr))
	return &Limiter{rdb: rdb, logger: logger}, nil
}

// Allow records one hit for key and reports whether it is within limit for
// the trailing window.
func (l *Limiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if l == nil {
		return true, nil
	}

	now := time.Now()
	fullKey := keyPrefix + key

	pipe := l.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, fullKey, "0", strconv.FormatInt(now.Add(-window).UnixNano(), 10))
	pipe.ZAdd(ctx, fullKey, redis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()})
	card := pipe.ZCard(ctx, fullKey)
	pipe.Expire(ctx, fullKey, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return card.Val() <= int64(limit), nil
}

// Middleware limits requests per client IP and route. Redis failures let the
// request through.
func (l *Limiter) Middleware(name string, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l == nil || limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			key := name + ":" + clientIP(r)
			allowed, err := l.Allow(r.Context(), key, limit, window)
			if err != nil {
				l.logger.Warn("rate limit check failed", zap.String("key", key), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				util.WriteJSONError(w, http.StatusTooManyRequests, "too many requests, please try again later")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Healthy verifies Redis connectivity
func (l *Limiter) Healthy(ctx context.Context) bool {
	if l == nil {
		return false
	}
	return l.rdb.Ping(ctx).Err() == nil
}

// Close releases the Redis connection
func (l *Limiter) Close() error {
	if l == nil {
		return nil
	}
	return l.rdb.Close()
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
