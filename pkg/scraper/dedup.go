package scraper

import (
	"context"

	"tweetharvest/pkg/logger"
	"tweetharvest/pkg/models"
)

// Deduplicator partitions a fetched batch into records absent from the store
// and records already present. Presence is decided solely by the tweet id,
// checked against the store's primary key index; the store contents are
// never loaded into memory.
type Deduplicator struct {
	store  TweetStore
	logger logger.Logger
}

// NewDeduplicator creates a deduplicator backed by the given store
func NewDeduplicator(store TweetStore, log logger.Logger) *Deduplicator {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Deduplicator{store: store, logger: log}
}

// Partition splits a batch into fresh records and already-known records.
// Records without an id are dropped outright.
func (d *Deduplicator) Partition(ctx context.Context, tweets []models.Tweet) (fresh, known []models.Tweet, err error) {
	ids := make([]string, 0, len(tweets))
	for i := range tweets {
		if tweets[i].ID != "" {
			ids = append(ids, tweets[i].ID)
		}
	}
	if len(ids) == 0 {
		return nil, nil, nil
	}

	existing, err := d.store.ExistingIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}

	for i := range tweets {
		t := tweets[i]
		if t.ID == "" {
			d.logger.Warn("dropping tweet without id")
			continue
		}
		if _, ok := existing[t.ID]; ok {
			known = append(known, t)
		} else {
			fresh = append(fresh, t)
		}
	}

	return fresh, known, nil
}
