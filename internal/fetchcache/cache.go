// Package fetchcache keeps recent platform lookups in memory so repeated lookups of the
// same student within the TTL skip the third-party round trip.
package fetchcache

import (
	"context"
	"strings"
	"time"

	"github.com/maypok86/otter/v2"

	"rollcall/internal/hackerrank"
	"rollcall/internal/leetcode"
	"rollcall/internal/ports"
)

const maximumSize = 10_000

type cache[V any] struct {
	entries *otter.Cache[string, V]
}

func newCache[V any](ttl time.Duration) cache[V] {
	return cache[V]{entries: otter.Must(&otter.Options[string, V]{
		MaximumSize:      maximumSize,
		ExpiryCalculator: otter.ExpiryWriting[string, V](ttl),
	})}
}

// get only remembers present values: an absent result is retried on the next lookup.
func (c cache[V]) get(key string, load func() (V, bool)) V {
	key = strings.ToLower(key)
	if v, ok := c.entries.GetIfPresent(key); ok {
		return v
	}
	v, ok := load()
	if ok {
		c.entries.Set(key, v)
	}
	return v
}

type badgeCache struct {
	next  ports.BadgeSource
	cache cache[[]hackerrank.Badge]
}

// Badges wraps next with a TTL cache. A zero TTL returns next unchanged.
func Badges(next ports.BadgeSource, ttl time.Duration) ports.BadgeSource {
	if ttl <= 0 {
		return next
	}
	return &badgeCache{next: next, cache: newCache[[]hackerrank.Badge](ttl)}
}

func (c *badgeCache) Badges(ctx context.Context, username string) []hackerrank.Badge {
	return c.cache.get(username, func() ([]hackerrank.Badge, bool) {
		badges := c.next.Badges(ctx, username)
		return badges, badges != nil
	})
}

type statsCache struct {
	next  ports.StatsSource
	cache cache[*leetcode.Stats]
}

// Stats wraps next with a TTL cache. A zero TTL returns next unchanged.
func Stats(next ports.StatsSource, ttl time.Duration) ports.StatsSource {
	if ttl <= 0 {
		return next
	}
	return &statsCache{next: next, cache: newCache[*leetcode.Stats](ttl)}
}

func (c *statsCache) Stats(ctx context.Context, username string) *leetcode.Stats {
	return c.cache.get(username, func() (*leetcode.Stats, bool) {
		stats := c.next.Stats(ctx, username)
		return stats, stats != nil
	})
}
