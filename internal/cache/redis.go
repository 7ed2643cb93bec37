package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sentiment-lens/pkg/logger"

	"github.com/redis/go-redis/v9"
)

var (
	newRedisClient = func(opts *redis.Options) *redis.Client {
		return redis.NewClient(opts)
	}
	pingRedis = func(ctx context.Context, client *redis.Client) error {
		return client.Ping(ctx).Err()
	}
	parseRedisURL = redis.ParseURL
)

// Cache calls fail fast.
const (
	dialTimeout = 2 * time.Second
	ioTimeout   = 500 * time.Millisecond
)

// InitRedis connects to addr, either host:port or a redis:// URL. An empty
// addr disables caching and returns a nil client.
func InitRedis(ctx context.Context, addr string) (*redis.Client, error) {
	log := logger.Get().WithComponent("cache")
	addr = strings.TrimSpace(addr)
	if addr == "" {
		log.Info("REDIS_URL not set, price cache disabled")
		return nil, nil
	}

	opts := &redis.Options{Addr: addr}
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		parsed, err := parseRedisURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		opts = parsed
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = dialTimeout
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = ioTimeout
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = ioTimeout
	}

	client := newRedisClient(opts)
	if err := pingRedis(ctx, client); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
	}
	log.WithFields(logger.Fields{"addr": opts.Addr}).Info("connected to redis")
	return client, nil
}
