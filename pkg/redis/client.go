package redis

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/pixcheckout/pkg/config"
	"github.com/angelmondragon/pixcheckout/pkg/logger"
)

const (
	keyNamespace    = "pix"
	keyVersion      = "v1"
	roleCountPrefix = "role_count"

	ttlJitterFraction = 0.1
)

var errNotInitialized = errors.New("redis client not initialized")

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	Del(context.Context, ...string) *redis.IntCmd
}

// Client wraps the redis connection helpers needed by the checkout.
type Client struct {
	store cmdable
	raw   *redis.Client
}

// New bootstraps a Redis client with pooling/timeouts and verifies connectivity.
func New(ctx context.Context, cfg config.RedisConfig, logg *logger.Logger) (*Client, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "redis_addr", opts.Addr), "redis connection established")
	}
	return &Client{store: raw, raw: raw}, nil
}

func optionsFromConfig(cfg config.RedisConfig) (*redis.Options, error) {
	if cfg.URL == "" && cfg.Address == "" {
		return nil, errors.New("redis url or address is required")
	}
	var opts *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     cfg.Address,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}
	if opts.DB == 0 {
		opts.DB = cfg.DB
	}
	if opts.PoolSize == 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if opts.MinIdleConns == 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	return opts, nil
}

// RoleCountKey namespaces the cached role match count for a user.
func (c *Client) RoleCountKey(userID, role string) string {
	return c.buildKey(roleCountPrefix, userID, role)
}

// GetRoleCount returns the cached count. found is false on a cache miss.
func (c *Client) GetRoleCount(ctx context.Context, userID, role string) (count int64, found bool, err error) {
	if c.store == nil {
		return 0, false, errNotInitialized
	}
	count, err = c.store.Get(ctx, c.RoleCountKey(userID, role)).Int64()
	switch {
	case errors.Is(err, redis.Nil):
		return 0, false, nil
	case err != nil:
		return 0, false, fmt.Errorf("reading cached role count: %w", err)
	}
	return count, true, nil
}

// SetRoleCount caches a role match count. The ttl is shortened by up to
// ttlJitterFraction so entries written together do not expire together.
func (c *Client) SetRoleCount(ctx context.Context, userID, role string, count int64, ttl time.Duration) error {
	if c.store == nil {
		return errNotInitialized
	}
	return c.store.Set(ctx, c.RoleCountKey(userID, role), count, jitter(ttl)).Err()
}

// DeleteRoleCount drops cached counts for the given roles, used after grants
// and revocations.
func (c *Client) DeleteRoleCount(ctx context.Context, userID string, roles ...string) error {
	if c.store == nil {
		return errNotInitialized
	}
	if len(roles) == 0 {
		return nil
	}
	keys := make([]string, 0, len(roles))
	for _, role := range roles {
		keys = append(keys, c.RoleCountKey(userID, role))
	}
	return c.store.Del(ctx, keys...).Err()
}

func jitter(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return ttl
	}
	maxJitter := int64(float64(ttl) * ttlJitterFraction)
	if maxJitter <= 0 {
		return ttl
	}
	return ttl - time.Duration(rand.Int64N(maxJitter+1))
}

// Ping verifies connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if c.store == nil {
		return errNotInitialized
	}
	return c.store.Ping(ctx).Err()
}

// Close shuts down the underlying client if available.
func (c *Client) Close() error {
	if c.raw == nil {
		return nil
	}
	return c.raw.Close()
}

func (c *Client) buildKey(parts ...string) string {
	clean := []string{keyNamespace, keyVersion}
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		clean = append(clean, part)
	}
	return strings.Join(clean, ":")
}
