package profiles

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZorinDanil/vestnik/internal/models"
)

type countingFetcher struct {
	calls int64
	delay time.Duration
	err   error
}

func (f *countingFetcher) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	atomic.AddInt64(&f.calls, 1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &models.Profile{UserID: userID, Name: "name-" + userID}, nil
}

func TestCache_ResolveOncePerKey(t *testing.T) {
	f := &countingFetcher{}
	c := NewCache(f, zerolog.Nop())

	p1, err := c.Resolve(context.Background(), "u1")
	require.NoError(t, err)
	p2, err := c.Resolve(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, p1, p2)
	assert.Equal(t, int64(1), atomic.LoadInt64(&f.calls))
	assert.Equal(t, 1, c.Len())
}

func TestCache_ConcurrentMissesCoalesce(t *testing.T) {
	f := &countingFetcher{delay: 20 * time.Millisecond}
	c := NewCache(f, zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := c.Resolve(context.Background(), "u1")
			assert.NoError(t, err)
			assert.Equal(t, "name-u1", p.Name)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&f.calls), "concurrent misses must share one fetch")
}

func TestCache_ErrorsAreNotCached(t *testing.T) {
	f := &countingFetcher{err: errors.New("down")}
	c := NewCache(f, zerolog.Nop())

	_, err := c.Resolve(context.Background(), "u1")
	require.Error(t, err)
	assert.Zero(t, c.Len())

	f.err = nil
	p, err := c.Resolve(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "name-u1", p.Name)
	assert.Equal(t, int64(2), atomic.LoadInt64(&f.calls))
}

func TestCache_Invalidate(t *testing.T) {
	f := &countingFetcher{}
	c := NewCache(f, zerolog.Nop())

	_, err := c.Resolve(context.Background(), "u1")
	require.NoError(t, err)

	c.Invalidate("u1")
	_, ok := c.Peek("u1")
	assert.False(t, ok)

	_, err = c.Resolve(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), atomic.LoadInt64(&f.calls))
}

func TestCache_HitReturnsSnapshotWithoutRefetch(t *testing.T) {
	f := &countingFetcher{}
	c := NewCache(f, zerolog.Nop())

	first, err := c.Resolve(context.Background(), "u1")
	require.NoError(t, err)

	// The remote copy changing does not affect the stored snapshot.
	snap, ok := c.Peek("u1")
	require.True(t, ok)
	assert.Same(t, first, snap)
}
