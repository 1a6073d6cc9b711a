package retry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTierBackoffFlatDelay(t *testing.T) {
	tb := NewTierBackoff(5 * time.Second)

	// The delay never grows with the attempt count
	for attempt := 1; attempt <= 10; attempt++ {
		assert.Equal(t, 5*time.Second, tb.NextDelay(attempt))
	}

	assert.Zero(t, tb.NextDelay(0))
	assert.Zero(t, tb.NextDelay(-1))

	tb.Reset()
	assert.Equal(t, 5*time.Second, tb.NextDelay(1))
}

func TestExponentialBackoffGrowth(t *testing.T) {
	eb := &ExponentialBackoff{
		BaseDelay:    time.Second,
		MaxDelay:     60 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0, // deterministic for the test
	}

	assert.Equal(t, time.Second, eb.NextDelay(1))
	assert.Equal(t, 2*time.Second, eb.NextDelay(2))
	assert.Equal(t, 4*time.Second, eb.NextDelay(3))
	assert.Equal(t, 8*time.Second, eb.NextDelay(4))
}

func TestExponentialBackoffCapsAtMax(t *testing.T) {
	eb := &ExponentialBackoff{
		BaseDelay:    time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0,
	}

	assert.Equal(t, 10*time.Second, eb.NextDelay(20))
}

func TestExponentialBackoffJitterBounds(t *testing.T) {
	eb := DefaultExponentialBackoff()

	for attempt := 1; attempt <= 6; attempt++ {
		for i := 0; i < 50; i++ {
			delay := eb.NextDelay(attempt)
			assert.GreaterOrEqual(t, delay, time.Duration(0))
			// Jitter can push at most 10% past the capped delay
			maxWithJitter := time.Duration(float64(eb.MaxDelay) * (1 + eb.JitterFactor))
			assert.LessOrEqual(t, delay, maxWithJitter)
		}
	}
}

func TestConstantBackoff(t *testing.T) {
	cb := &ConstantBackoff{Delay: 2 * time.Second}

	assert.Equal(t, 2*time.Second, cb.NextDelay(1))
	assert.Equal(t, 2*time.Second, cb.NextDelay(99))
	assert.Zero(t, cb.NextDelay(0))
}

func TestWait(t *testing.T) {
	// Zero and negative delays return immediately
	require.NoError(t, Wait(context.Background(), 0))
	require.NoError(t, Wait(context.Background(), -time.Second))

	start := time.Now()
	require.NoError(t, Wait(context.Background(), 20*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestWaitCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := Wait(ctx, 5*time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}
