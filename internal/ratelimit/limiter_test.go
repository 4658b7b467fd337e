package ratelimit

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAcquire_BurstUpToCapacity(t *testing.T) {
	l := New(5, testLogger())
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 5; i++ {
		require.True(t, l.Acquire(ctx, 0))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestAcquire_WaitsForRefillAfterCapacity(t *testing.T) {
	// 600 per minute refills one token every 100ms.
	l := New(600, testLogger())
	ctx := context.Background()

	for i := 0; i < 600; i++ {
		require.True(t, l.Acquire(ctx, 0))
	}

	start := time.Now()
	require.True(t, l.Acquire(ctx, 0))
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestAcquire_TimeoutDoesNotConsume(t *testing.T) {
	// One token per second.
	l := New(60, testLogger())
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		require.True(t, l.Acquire(ctx, 0))
	}

	assert.False(t, l.Acquire(ctx, 10*time.Millisecond))

	// The failed attempt must not have pushed the next token further out.
	start := time.Now()
	require.True(t, l.Acquire(ctx, 2*time.Second))
	assert.Less(t, time.Since(start), 1100*time.Millisecond)
}

func TestAcquire_CancelledContext(t *testing.T) {
	l := New(1, testLogger())
	require.True(t, l.Acquire(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.False(t, l.Acquire(ctx, 0))
	assert.ErrorIs(t, l.Wait(ctx), context.Canceled)
}

func TestAcquire_ConcurrentCallersShareBucket(t *testing.T) {
	l := New(10, testLogger())
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	granted := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Acquire(ctx, 50*time.Millisecond) {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, granted)
	assert.False(t, l.Acquire(ctx, 10*time.Millisecond))
}

func TestNew_DefaultsNonPositive(t *testing.T) {
	assert.Equal(t, 60, New(0, testLogger()).PerMinute())
}
