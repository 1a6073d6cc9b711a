// Package retry provides backoff and retry logic for handling transient
// failures in network operations, particularly for twitterapi.io calls.
//
// Features:
//   - Multiple backoff strategies (flat per-tier, exponential, constant)
//   - Jitter to avoid thundering herd problems
//   - Context support for cancellation
//   - Configurable retry predicates
//
// The flat TierBackoff is the baseline rate-limit policy (free tier waits
// longer than paid); since every strategy implements BackoffStrategy, an
// exponential or jittered policy can be substituted without changing the
// caller contract.
//
// Basic usage:
//
//	cfg := &retry.Config{
//		MaxAttempts: 4,
//		Backoff:     retry.NewTierBackoff(5 * time.Second),
//		RetryIf:     retry.DefaultRetryIf,
//		Context:     ctx,
//	}
//	err := retry.Do(operation, cfg)
package retry
