package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenBucketAllowsUpToCapacity(t *testing.T) {
	tb := NewTokenBucket(3, time.Minute)

	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow(), "bucket should be empty after capacity requests")
}

func TestTokenBucketRefillsAfterPeriod(t *testing.T) {
	tb := NewTokenBucket(2, 30*time.Millisecond)

	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())

	time.Sleep(40 * time.Millisecond)

	assert.True(t, tb.Allow(), "bucket should refill after the period elapses")
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())
}

func TestTokenBucketReset(t *testing.T) {
	tb := NewTokenBucket(1, time.Hour)

	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())

	tb.Reset()
	assert.True(t, tb.Allow())
}

func TestTokenBucketWaitBlocksUntilRefill(t *testing.T) {
	tb := NewTokenBucket(1, 30*time.Millisecond)

	assert.True(t, tb.Allow())

	start := time.Now()
	tb.Wait()
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 10*time.Millisecond, "Wait should block until the refill")
	assert.Less(t, elapsed, time.Second)
}

func TestTokenBucketConcurrentAccess(t *testing.T) {
	tb := NewTokenBucket(100, time.Minute)

	done := make(chan int, 10)
	for g := 0; g < 10; g++ {
		go func() {
			allowed := 0
			for i := 0; i < 20; i++ {
				if tb.Allow() {
					allowed++
				}
			}
			done <- allowed
		}()
	}

	total := 0
	for g := 0; g < 10; g++ {
		total += <-done
	}

	// 200 requests against 100 tokens: exactly the capacity gets through
	assert.Equal(t, 100, total)
}
