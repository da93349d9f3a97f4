package bucket

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careflow/internal/ratelimit/models"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time           { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestInMemoryBucketStoreAllow(t *testing.T) {
	ctx := context.Background()
	limit := models.Limit{Requests: 3, Window: time.Minute}

	t.Run("admits until the window is full", func(t *testing.T) {
		clock := &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
		store := NewInMemoryBucketStore(WithClock(clock.Now))

		for i := range 3 {
			result, err := store.Allow(ctx, "ip:10.0.0.1:public", limit)
			require.NoError(t, err)
			assert.True(t, result.Allowed)
			assert.Equal(t, 3, result.Limit)
			assert.Equal(t, 2-i, result.Remaining)
			clock.Advance(time.Second)
		}

		result, err := store.Allow(ctx, "ip:10.0.0.1:public", limit)
		require.NoError(t, err)
		assert.False(t, result.Allowed)
		assert.Equal(t, 0, result.Remaining)
		assert.Equal(t, time.Date(2025, 3, 1, 9, 1, 0, 0, time.UTC), result.ResetAt)
		assert.Equal(t, 57, result.RetryAfter)
	})

	t.Run("old requests slide out of the window", func(t *testing.T) {
		clock := &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
		store := NewInMemoryBucketStore(WithClock(clock.Now))
		for range 3 {
			_, err := store.Allow(ctx, "k", limit)
			require.NoError(t, err)
		}
		clock.Advance(time.Minute + time.Millisecond)

		result, err := store.Allow(ctx, "k", limit)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.Equal(t, 2, result.Remaining)
	})

	t.Run("keys are independent", func(t *testing.T) {
		store := NewInMemoryBucketStore()
		one := models.Limit{Requests: 1, Window: time.Minute}

		first, err := store.Allow(ctx, "sub:a:write", one)
		require.NoError(t, err)
		other, err := store.Allow(ctx, "sub:b:write", one)
		require.NoError(t, err)
		again, err := store.Allow(ctx, "sub:a:write", one)
		require.NoError(t, err)

		assert.True(t, first.Allowed)
		assert.True(t, other.Allowed)
		assert.False(t, again.Allowed)
		assert.GreaterOrEqual(t, again.RetryAfter, 1)
	})

	t.Run("reset clears the counter", func(t *testing.T) {
		store := NewInMemoryBucketStore()
		one := models.Limit{Requests: 1, Window: time.Hour}
		_, err := store.Allow(ctx, "k", one)
		require.NoError(t, err)
		require.NoError(t, store.Reset(ctx, "k"))

		result, err := store.Allow(ctx, "k", one)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	})
}

func TestInMemoryBucketStoreConcurrentCallers(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryBucketStore()
	limit := models.Limit{Requests: 50, Window: time.Minute}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := store.Allow(ctx, "shared", limit)
			if err != nil {
				t.Error(fmt.Errorf("caller %d: %w", i, err))
				return
			}
			if result.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, allowed)
}

func TestRetryAfter(t *testing.T) {
	assert.Equal(t, 1, retryAfter(0))
	assert.Equal(t, 1, retryAfter(200*time.Millisecond))
	assert.Equal(t, 2, retryAfter(1100*time.Millisecond))
	assert.Equal(t, 60, retryAfter(time.Minute))
}
