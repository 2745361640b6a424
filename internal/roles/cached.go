package roles

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/angelmondragon/pixcheckout/pkg/enums"
	"github.com/angelmondragon/pixcheckout/pkg/logger"
)

// CountCache stores role match counts. Implemented by pkg/redis.Client.
type CountCache interface {
	GetRoleCount(ctx context.Context, userID, role string) (int64, bool, error)
	SetRoleCount(ctx context.Context, userID, role string, count int64, ttl time.Duration) error
	DeleteRoleCount(ctx context.Context, userID string, roles ...string) error
}

// CachedLookup serves counts from the cache and falls back to next on a miss
// or a cache error. Concurrent misses for the same user and role share one
// call to next, which runs detached from any single caller's cancellation.
// Failed lookups are never cached.
type CachedLookup struct {
	next   Lookup
	cache  CountCache
	ttl    time.Duration
	logg   *logger.Logger
	flight singleflight.Group
}

func NewCachedLookup(next Lookup, cache CountCache, ttl time.Duration, logg *logger.Logger) *CachedLookup {
	if logg == nil {
		logg = logger.Nop()
	}
	return &CachedLookup{next: next, cache: cache, ttl: ttl, logg: logg}
}

func (c *CachedLookup) CountRoles(ctx context.Context, userID uuid.UUID, role enums.AppRole) (int64, error) {
	user := userID.String()

	count, found, err := c.cache.GetRoleCount(ctx, user, role.String())
	switch {
	case err != nil:
		c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "roles.cache.get_failed")
	case found:
		return count, nil
	}

	// The shared call outlives any single caller: a joiner that gives up
	// must not cancel the lookup for the others waiting on it.
	shared := context.WithoutCancel(ctx)
	ch := c.flight.DoChan(user+":"+role.String(), func() (any, error) {
		count, err := c.next.CountRoles(shared, userID, role)
		if err != nil {
			return int64(0), err
		}
		if c.ttl > 0 {
			if err := c.cache.SetRoleCount(shared, user, role.String(), count, c.ttl); err != nil {
				c.logg.Warn(c.logg.WithField(shared, "error", err.Error()), "roles.cache.set_failed")
			}
		}
		return count, nil
	})
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return 0, res.Err
		}
		return res.Val.(int64), nil
	}
}

// Invalidate drops cached counts after the user's roles change. With no
// roles given every known role is dropped.
func (c *CachedLookup) Invalidate(ctx context.Context, userID uuid.UUID, roles ...enums.AppRole) error {
	if len(roles) == 0 {
		roles = enums.AppRoles()
	}
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, role.String())
	}
	return c.cache.DeleteRoleCount(ctx, userID.String(), names...)
}
