// Package memcache is an in-process token cache backend. It does not survive
// a restart and is not shared between processes.
package memcache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gitlab.com/timkado/api/openim-client/internal/domain"
)

const defaultSweepInterval = time.Minute

type entry struct {
	data      []byte
	expiresAt time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithSweepInterval sets how often expired entries are dropped in the background.
func WithSweepInterval(d time.Duration) Option {
	return func(c *Cache) { c.sweepInterval = d }
}

// Cache implements domain.TokenCache on a sync.Map.
type Cache struct {
	store         sync.Map
	logger        domain.Logger
	now           func() time.Time
	sweepInterval time.Duration
	stopOnce      sync.Once
	stop          chan struct{}
}

// New starts the background sweeper; call Close to stop it.
func New(logger domain.Logger, opts ...Option) *Cache {
	c := &Cache{
		logger:        logger,
		now:           time.Now,
		sweepInterval: defaultSweepInterval,
		stop:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	go c.startCleanup()
	return c
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, ok := c.store.Load(key)
	if !ok {
		c.logger.Debug(ctx, "Token cache miss", "key", key)
		return nil, false
	}

	e := val.(entry)
	if !c.now().Before(e.expiresAt) {
		c.store.CompareAndDelete(key, val)
		c.logger.Debug(ctx, "Token cache entry expired", "key", key)
		return nil, false
	}

	c.logger.Debug(ctx, "Token cache hit", "key", key)
	return append([]byte(nil), e.data...), true
}

func (c *Cache) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("memory cache put for key '%s': ttl must be positive, got %s", key, ttl)
	}
	c.store.Store(key, entry{
		data:      append([]byte(nil), value...),
		expiresAt: c.now().Add(ttl),
	})
	c.logger.Debug(ctx, "Successfully cached token", "key", key, "ttl", ttl.String())
	return nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	c.store.Delete(key)
	c.logger.Debug(ctx, "Deleted cached token", "key", key)
	return nil
}

// Len counts live and not-yet-swept entries.
func (c *Cache) Len() int {
	n := 0
	c.store.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Close stops the sweeper. It is safe to call more than once.
func (c *Cache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Cache) startCleanup() {
	ticker := time.NewTicker(c.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *Cache) sweep() {
	now := c.now()
	c.store.Range(func(key, val any) bool {
		if !now.Before(val.(entry).expiresAt) {
			c.store.CompareAndDelete(key, val)
		}
		return true
	})
}
