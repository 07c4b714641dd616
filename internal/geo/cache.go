package geo

import (
	"context"
	"log/slog"
)

// Stats counts Cache activity.
type Stats struct {
	// Queries is the number of backend calls (cache misses).
	Queries int `json:"queries"`

	// Hits is the number of lookups answered from memory.
	Hits int `json:"hits"`

	// Failures is the number of addresses the backend could not resolve.
	Failures int `json:"failures"`
}

// Cache memoizes a Resolver for a single run.
//
// Each address reaches the backend at most once. A failed lookup is
// remembered as "no country" and never retried within the run.
// A Cache is owned by one run and is not safe for concurrent use.
type Cache struct {
	resolver Resolver
	entries  map[string]string
	stats    Stats
	logger   *slog.Logger
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithCacheLogger sets a custom logger.
func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(c *Cache) {
		c.logger = logger
	}
}

// NewCache creates an empty cache in front of resolver.
func NewCache(resolver Resolver, opts ...CacheOption) *Cache {
	c := &Cache{
		resolver: resolver,
		entries:  make(map[string]string),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup returns the country code for ip. ok is false when the address
// could not be resolved, now or earlier in the run.
func (c *Cache) Lookup(ctx context.Context, ip string) (code string, ok bool) {
	if code, seen := c.entries[ip]; seen {
		c.stats.Hits++
		return code, code != ""
	}

	c.stats.Queries++
	code, err := c.resolver.Resolve(ctx, ip)
	if err == nil {
		code = normalizeCode(code)
	}
	if err != nil || code == "" {
		c.stats.Failures++
		c.logger.Debug("geolocation failed", "ip", ip, "error", err)
		c.entries[ip] = ""
		return "", false
	}

	c.entries[ip] = code
	return code, true
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	return c.stats
}
