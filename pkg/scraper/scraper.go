package scraper

import (
	"context"
	"fmt"
	"time"

	"tweetharvest/pkg/checkpoint"
	"tweetharvest/pkg/config"
	"tweetharvest/pkg/logger"
	"tweetharvest/pkg/models"
	"tweetharvest/pkg/query"
	"tweetharvest/pkg/ratelimit"
	"tweetharvest/pkg/retry"
	"tweetharvest/pkg/twitterapi"
)

// ratelimitWindow is the refill period for the client-side request budget
const ratelimitWindow = time.Minute

// State is the harvester's position in its run lifecycle
type State string

const (
	StateInit       State = "init"
	StateFetching   State = "fetching"
	StateProcessing State = "processing"
	StateAdvancing  State = "advancing"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// Summary reports what one run did
type Summary struct {
	Query         string
	QueryKey      string
	Pages         int
	Fetched       int
	New           int
	Updated       int
	Upserted      int
	Skipped       int
	Conversations int
	State         State
}

// Scraper drives the ingest pipeline: build query, fetch page, dedup,
// persist, advance checkpoint, repeat until the result set is exhausted.
// Pages are processed strictly one at a time; the checkpoint only advances
// after a page has been fully persisted, so a crash at any point causes at
// most one page to be re-processed by the next run.
type Scraper struct {
	fetcher *Fetcher
	store   TweetStore
	dedup   *Deduplicator
	cfg     *config.Config
	logger  logger.Logger

	state State
}

// New creates a scraper wired to the real twitterapi.io client
func New(cfg *config.Config, store TweetStore) (*Scraper, error) {
	log := logger.GetLogger()

	client := twitterapi.NewClient(cfg.API.BaseURL, cfg.API.Key, cfg.API.Timeout, log)
	client.SetQueryType(cfg.API.QueryType)

	return NewWithClient(cfg, client, store), nil
}

// NewWithClient creates a scraper around an explicit API client
func NewWithClient(cfg *config.Config, client APIClient, store TweetStore) *Scraper {
	log := logger.GetLogger()

	limiter := ratelimit.NewTokenBucket(cfg.RateLimit.RequestsPerMinute, ratelimitWindow)
	fetcher := NewFetcher(client, limiter, retry.NewTierBackoff(cfg.BackoffForTier()), cfg.RateLimit.MaxRetries, log)

	return &Scraper{
		fetcher: fetcher,
		store:   store,
		dedup:   NewDeduplicator(store, log),
		cfg:     cfg,
		logger:  log,
		state:   StateInit,
	}
}

// Fetcher exposes the underlying fetcher (to swap backoff policies)
func (s *Scraper) Fetcher() *Fetcher {
	return s.fetcher
}

// State returns the harvester's current lifecycle state
func (s *Scraper) State() State {
	return s.state
}

// Run executes one harvest to completion. On failure the checkpoint is left
// at the last successfully advanced page, so re-running resumes rather than
// restarting from page one.
func (s *Scraper) Run(ctx context.Context) (*Summary, error) {
	s.state = StateInit

	builder := &query.Builder{
		Handle:             s.cfg.Query.Handle,
		IncludeRetweets:    s.cfg.Query.IncludeRetweets,
		IncludeQuotes:      s.cfg.Query.IncludeQuotes,
		IncludeSelfThreads: s.cfg.Query.IncludeSelfThreads,
		Since:              s.cfg.Query.Since,
		Until:              s.cfg.Query.Until,
	}

	q, err := builder.Build()
	if err != nil {
		s.state = StateFailed
		return nil, err
	}
	key, err := builder.Key()
	if err != nil {
		s.state = StateFailed
		return nil, err
	}

	summary := &Summary{Query: q, QueryKey: key}

	cpMgr, err := checkpoint.NewManager(key)
	if err != nil {
		s.state = StateFailed
		summary.State = StateFailed
		return summary, fmt.Errorf("failed to create checkpoint manager: %w", err)
	}

	cp, err := cpMgr.Load()
	if err != nil {
		s.state = StateFailed
		summary.State = StateFailed
		return summary, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if cp == nil {
		cp, err = cpMgr.Create(key, q)
		if err != nil {
			s.state = StateFailed
			summary.State = StateFailed
			return summary, err
		}
	} else {
		s.logger.InfoWithFields("Resuming from checkpoint", map[string]interface{}{
			"query":  q,
			"cursor": cp.Cursor,
			"page":   cp.LastProcessedPage,
		})
	}

	s.logger.InfoWithFields("Harvest starting", map[string]interface{}{
		"query": q,
		"tier":  string(s.cfg.API.Tier),
	})

	// Conversations touched during this run, with the tweet ids already
	// handled per conversation
	seen := make(map[string]map[string]struct{})

	for {
		// Stop requests are honored between pages, never mid-page
		if err := ctx.Err(); err != nil {
			s.state = StateFailed
			summary.State = StateFailed
			return summary, err
		}

		s.state = StateFetching
		page, err := s.fetcher.SearchPage(ctx, q, cp.Cursor)
		if err != nil {
			s.state = StateFailed
			summary.State = StateFailed
			return summary, fmt.Errorf("fetch failed at page %d: %w", cp.LastProcessedPage+1, err)
		}

		s.state = StateProcessing
		items := page.Items()
		summary.Fetched += len(items)

		upserted, err := s.processBatch(ctx, items, seen, summary)
		if err != nil {
			s.state = StateFailed
			summary.State = StateFailed
			return summary, err
		}

		s.state = StateAdvancing
		if err := cpMgr.Advance(cp, page.NextCursor, upserted); err != nil {
			s.state = StateFailed
			summary.State = StateFailed
			return summary, fmt.Errorf("failed to advance checkpoint: %w", err)
		}
		summary.Pages++
		logger.LogPage(q, cp.LastProcessedPage, len(items), upserted)

		if s.conversationCapReached(seen) {
			s.logger.InfoWithFields("Conversation cap reached, stopping", map[string]interface{}{
				"conversations": len(seen),
				"cap":           s.cfg.Storage.MaxConversations,
			})
			break
		}
		if page.TerminalSearch() {
			break
		}
	}

	s.state = StateDone
	summary.State = StateDone
	summary.Conversations = len(seen)

	s.logger.InfoWithFields("Harvest complete", map[string]interface{}{
		"query":    q,
		"pages":    summary.Pages,
		"fetched":  summary.Fetched,
		"new":      summary.New,
		"updated":  summary.Updated,
		"upserted": summary.Upserted,
		"skipped":  summary.Skipped,
	})

	return summary, nil
}

// processBatch deduplicates and persists one page worth of tweets, plus the
// conversation threads of new replies when thread fetching is enabled.
// Returns the number of rows upserted.
func (s *Scraper) processBatch(ctx context.Context, items []models.Tweet, seen map[string]map[string]struct{}, summary *Summary) (int, error) {
	fresh, known, err := s.dedup.Partition(ctx, items)
	if err != nil {
		return 0, err
	}
	summary.New += len(fresh)
	summary.Updated += len(known)

	// Known records take the update path of the same upsert; they are never
	// inserted as a second row.
	result, err := s.store.UpsertTweets(ctx, append(fresh, known...))
	summary.Upserted += result.Upserted
	summary.Skipped += result.Skipped
	logger.LogUpsert(len(fresh), len(known), result.Skipped, err)
	if err != nil {
		return result.Upserted, err
	}
	total := result.Upserted

	for i := range fresh {
		t := &fresh[i]
		convID := t.ConversationID
		if convID == "" {
			continue
		}
		if _, ok := seen[convID]; !ok {
			if s.conversationCapReached(seen) {
				continue
			}
			seen[convID] = make(map[string]struct{})
		}
		if _, done := seen[convID][t.ID]; done {
			continue
		}
		seen[convID][t.ID] = struct{}{}

		if !s.cfg.Storage.FetchThreads {
			continue
		}

		n, err := s.ingestThread(ctx, t.ID, convID, seen[convID])
		if err != nil {
			return total, err
		}
		total += n
		summary.Upserted += n
	}

	return total, nil
}

// ingestThread pages through a tweet's conversation context and persists
// every tweet it finds, recording ids so sibling replies in the same
// conversation are not fetched twice
func (s *Scraper) ingestThread(ctx context.Context, tweetID, convID string, convSeen map[string]struct{}) (int, error) {
	total := 0
	cursor := ""

	for {
		page, err := s.fetcher.ThreadPage(ctx, tweetID, cursor)
		if err != nil {
			return total, fmt.Errorf("thread fetch failed for %s: %w", tweetID, err)
		}

		items := page.Items()
		if len(items) > 0 {
			result, err := s.store.UpsertTweets(ctx, items)
			total += result.Upserted
			if err != nil {
				return total, err
			}
			for i := range items {
				if items[i].ConversationID == convID && items[i].ID != "" {
					convSeen[items[i].ID] = struct{}{}
				}
			}
		}

		if page.Terminal() {
			return total, nil
		}
		cursor = page.NextCursor
	}
}

// conversationCapReached applies the optional distinct-conversation limit
func (s *Scraper) conversationCapReached(seen map[string]map[string]struct{}) bool {
	limit := s.cfg.Storage.MaxConversations
	return limit > 0 && len(seen) >= limit
}
