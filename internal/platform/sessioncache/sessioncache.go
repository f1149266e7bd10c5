// Package sessioncache keeps a short-lived token -> employee mapping in front
// of the session table.
package sessioncache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/competency-advisor/internal/platform/logger"
)

type Cache interface {
	Get(ctx context.Context, token string) (employeeID int64, ok bool, err error)
	Set(ctx context.Context, token string, employeeID int64, ttl time.Duration) error
	Delete(ctx context.Context, token string) error
}

type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

type redisCache struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
}

func NewRedis(ctx context.Context, log *logger.Logger, opts Options) (Cache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(opts.Addr) == "" {
		return nil, fmt.Errorf("missing redis addr")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return newRedisCache(log, rdb, opts.Prefix), nil
}

func newRedisCache(log *logger.Logger, rdb *goredis.Client, prefix string) *redisCache {
	if prefix == "" {
		prefix = "session:"
	}
	return &redisCache{log: log.With("service", "RedisSessionCache"), rdb: rdb, prefix: prefix}
}

func (c *redisCache) Get(ctx context.Context, token string) (int64, bool, error) {
	raw, err := c.rdb.Get(ctx, c.prefix+token).Result()
	if errors.Is(err, goredis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.log.Warn("dropping malformed session cache entry", "error", err)
		_ = c.rdb.Del(ctx, c.prefix+token).Err()
		return 0, false, nil
	}
	return id, true, nil
}

func (c *redisCache) Set(ctx context.Context, token string, employeeID int64, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.rdb.Set(ctx, c.prefix+token, strconv.FormatInt(employeeID, 10), ttl).Err()
}

func (c *redisCache) Delete(ctx context.Context, token string) error {
	return c.rdb.Del(ctx, c.prefix+token).Err()
}

// Nop never hits; used when no redis address is configured.
type Nop struct{}

func (Nop) Get(context.Context, string) (int64, bool, error)        { return 0, false, nil }
func (Nop) Set(context.Context, string, int64, time.Duration) error { return nil }
func (Nop) Delete(context.Context, string) error                    { return nil }

func (c *redisCache) Close() error { return c.rdb.Close() }
