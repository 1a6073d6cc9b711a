package scraper

import (
	goerrors "errors"

	"context"

	"tweetharvest/pkg/errors"
	"tweetharvest/pkg/logger"
	"tweetharvest/pkg/models"
	"tweetharvest/pkg/ratelimit"
	"tweetharvest/pkg/retry"
)

// Fetcher retrieves one page of API results per call, absorbing the
// recoverable failure modes:
//
//   - a rate-limit signal waits out the configured per-tier backoff and
//     retries the same page, as often as needed;
//   - transient network and server failures are retried a bounded number of
//     times, then surface as a fatal fetch error;
//   - an authentication failure surfaces immediately, no retry.
type Fetcher struct {
	client           APIClient
	limiter          ratelimit.Limiter
	rateLimitBackoff retry.BackoffStrategy
	transientBackoff retry.BackoffStrategy
	maxRetries       int
	logger           logger.Logger
}

// NewFetcher creates a fetcher around the given API client
func NewFetcher(client APIClient, limiter ratelimit.Limiter, rateLimitBackoff retry.BackoffStrategy, maxRetries int, log logger.Logger) *Fetcher {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Fetcher{
		client:           client,
		limiter:          limiter,
		rateLimitBackoff: rateLimitBackoff,
		transientBackoff: retry.DefaultExponentialBackoff(),
		maxRetries:       maxRetries,
		logger:           log,
	}
}

// SetTransientBackoff overrides the backoff used for network/server retries
func (f *Fetcher) SetTransientBackoff(b retry.BackoffStrategy) {
	f.transientBackoff = b
}

// SearchPage fetches one page of search results for the query
func (f *Fetcher) SearchPage(ctx context.Context, query, cursor string) (*models.Page, error) {
	return f.fetchPage(ctx, "advanced_search", func() (*models.Page, error) {
		return f.client.SearchPage(ctx, query, cursor)
	})
}

// ThreadPage fetches one page of a tweet's conversation thread
func (f *Fetcher) ThreadPage(ctx context.Context, tweetID, cursor string) (*models.Page, error) {
	return f.fetchPage(ctx, "thread_context", func() (*models.Page, error) {
		return f.client.ThreadContextPage(ctx, tweetID, cursor)
	})
}

// fetchPage runs one page request through the client-side limiter, the
// bounded transient retry and the unbounded rate-limit backoff loop
func (f *Fetcher) fetchPage(ctx context.Context, endpoint string, op func() (*models.Page, error)) (*models.Page, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Client-side pacing before the request goes out
		if f.limiter != nil && !f.limiter.Allow() {
			f.logger.Debug("request quota spent, waiting for refill")
			f.limiter.Wait()
		}

		page, err := retry.DoWithResult(op, &retry.Config{
			MaxAttempts: f.maxRetries,
			Backoff:     f.transientBackoff,
			RetryIf:     isTransient,
			Context:     ctx,
			Logger:      f.logger,
		})
		if err == nil {
			return page, nil
		}

		var apiErr *errors.Error
		if goerrors.As(err, &apiErr) && apiErr.Type == errors.ErrorTypeRateLimit {
			// Absorbed: wait out the per-tier delay and retry the same page
			delay := f.rateLimitBackoff.NextDelay(1)
			logger.LogRateLimit(endpoint, delay.Seconds())
			if err := retry.Wait(ctx, delay); err != nil {
				return nil, err
			}
			continue
		}

		// Auth failures and exhausted transient retries are fatal to the run
		return nil, err
	}
}

// isTransient reports whether an error is a bounded-retry candidate.
// Rate-limit signals are handled by the outer backoff loop instead.
func isTransient(err error) bool {
	var apiErr *errors.Error
	if goerrors.As(err, &apiErr) {
		return apiErr.Type == errors.ErrorTypeNetwork || apiErr.Type == errors.ErrorTypeServerError
	}
	return false
}
