package scraper

import (
	"context"

	"tweetharvest/pkg/models"
	"tweetharvest/pkg/storage"
)

// APIClient defines the twitterapi.io operations the harvester depends on
type APIClient interface {
	SearchPage(ctx context.Context, query, cursor string) (*models.Page, error)
	ThreadContextPage(ctx context.Context, tweetID, cursor string) (*models.Page, error)
}

// TweetStore defines the persistence operations the harvester depends on
type TweetStore interface {
	UpsertTweets(ctx context.Context, tweets []models.Tweet) (storage.UpsertResult, error)
	ExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error)
}
