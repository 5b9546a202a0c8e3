package memcache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/timkado/api/openim-client/internal/adapters/logger"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newCache(t *testing.T) (*Cache, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := New(logger.NewNop(), WithClock(clock.Now), WithSweepInterval(time.Hour))
	t.Cleanup(c.Close)
	return c, clock
}

func TestCache_PutGetExpire(t *testing.T) {
	c, clock := newCache(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "k", []byte("v"), time.Second))
	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	clock.Advance(2 * time.Second)
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCache_ReturnedBytesAreCopies(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()

	value := []byte("abc")
	require.NoError(t, c.Put(ctx, "k", value, time.Minute))
	value[0] = 'x'

	got, _ := c.Get(ctx, "k")
	got[1] = 'y'

	again, _ := c.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
}

func TestCache_NonPositiveTTLRejected(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "k", []byte("v"), time.Minute))
	assert.Error(t, c.Put(ctx, "k", []byte("w"), 0))
	assert.Error(t, c.Put(ctx, "k", []byte("w"), -time.Second))

	got, ok := c.Get(ctx, "k")
	require.True(t, ok, "rejected put must leave the existing entry alone")
	assert.Equal(t, []byte("v"), got)
}

func TestCache_Delete(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, c.Put(ctx, "b", []byte("2"), time.Minute))
	require.NoError(t, c.Delete(ctx, "a"))
	require.NoError(t, c.Delete(ctx, "a"))

	_, ok := c.Get(ctx, "a")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "b")
	assert.True(t, ok)
}

func TestCache_Sweep(t *testing.T) {
	c, clock := newCache(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "short", []byte("1"), time.Second))
	require.NoError(t, c.Put(ctx, "long", []byte("2"), time.Hour))
	clock.Advance(time.Minute)

	c.sweep()
	assert.Equal(t, 1, c.Len())
}

func TestCache_CloseIsIdempotent(t *testing.T) {
	c := New(logger.NewNop(), WithSweepInterval(time.Millisecond))
	c.Close()
	c.Close()
}
