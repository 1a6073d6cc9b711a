package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tweetharvest/pkg/checkpoint"
	"tweetharvest/pkg/config"
	"tweetharvest/pkg/models"
	"tweetharvest/pkg/scraper"
	"tweetharvest/pkg/storage"
)

func testConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.API.Key = "integration-test-key"
	cfg.API.BaseURL = baseURL
	cfg.Query.Handle = "alice"
	cfg.RateLimit.RequestsPerMinute = 1000
	cfg.RateLimit.FreeTierBackoff = 20 * time.Millisecond
	cfg.Storage.DatabasePath = filepath.Join(t.TempDir(), "tweets.sqlite3")
	return cfg
}

func reply(id, convID, text string) models.Tweet {
	return models.Tweet{
		ID:             id,
		ConversationID: convID,
		Text:           text,
		IsReply:        true,
		Author:         &models.Author{UserName: "alice"},
	}
}

func searchPage(nextCursor string, tweets ...models.Tweet) *models.Page {
	return &models.Page{
		Tweets:      tweets,
		HasNextPage: nextCursor != "",
		NextCursor:  nextCursor,
	}
}

func openStore(t *testing.T, cfg *config.Config) *storage.Store {
	t.Helper()

	store, err := storage.Open(cfg.Storage.DatabasePath, cfg.Storage.UpsertBatchSize)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestFullHarvest(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	mock := NewMockTwitterAPIServer()
	defer mock.Close()

	mock.SetSearchPage("", searchPage("cursor-2",
		reply("1001", "900", "first reply"),
		reply("1002", "900", "second reply"),
	))
	mock.SetSearchPage("cursor-2", searchPage("",
		reply("1003", "901", "third reply"),
	))

	cfg := testConfig(t, mock.URL())
	store := openStore(t, cfg)

	s, err := scraper.New(cfg, store)
	require.NoError(t, err)

	summary, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, scraper.StateDone, summary.State)
	assert.Equal(t, 2, summary.Pages)
	assert.Equal(t, 3, summary.Fetched)
	assert.Equal(t, 3, summary.New)
	assert.Equal(t, 2, summary.Conversations)

	count, err := store.CountTweets(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	convs, err := store.CountConversations(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, convs)

	// Every request carried the configured API key
	for _, key := range mock.SeenAPIKeys() {
		assert.Equal(t, "integration-test-key", key)
	}
	assert.Equal(t, []string{"", "cursor-2"}, mock.SeenCursors())

	// The finished run left a checkpoint recording its progress
	mgr, err := checkpoint.NewManager(summary.QueryKey)
	require.NoError(t, err)
	cp, err := mgr.Load()
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, 2, cp.LastProcessedPage)
	assert.Empty(t, cp.Cursor)
}

func TestHarvestSurvivesRateLimit(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	mock := NewMockTwitterAPIServer()
	defer mock.Close()

	mock.SetSearchPage("", searchPage("", reply("1001", "900", "only reply")))
	mock.FailCursor("", http.StatusTooManyRequests, 2)

	cfg := testConfig(t, mock.URL())
	store := openStore(t, cfg)

	s, err := scraper.New(cfg, store)
	require.NoError(t, err)

	summary, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, scraper.StateDone, summary.State)
	assert.Equal(t, 1, summary.Pages)
	// Two 429 responses then the page itself
	assert.Equal(t, 3, mock.RequestCount())
}

func TestHarvestResumesAfterFailure(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	mock := NewMockTwitterAPIServer()
	defer mock.Close()

	mock.SetSearchPage("", searchPage("cursor-2", reply("1001", "900", "first reply")))
	mock.SetSearchPage("cursor-2", searchPage("", reply("1002", "900", "second reply")))

	// Page two persistently rejects the key, killing the first run
	mock.FailCursor("cursor-2", http.StatusUnauthorized, 1000)

	cfg := testConfig(t, mock.URL())
	store := openStore(t, cfg)

	s, err := scraper.New(cfg, store)
	require.NoError(t, err)

	summary, err := s.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, scraper.StateFailed, summary.State)
	assert.Equal(t, 1, summary.Pages)

	count, err := store.CountTweets(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, count, "page one was persisted before the failure")

	// The endpoint recovers; the re-run resumes at the saved cursor
	mock.FailCursor("cursor-2", http.StatusUnauthorized, 0)

	s2, err := scraper.New(cfg, store)
	require.NoError(t, err)
	summary2, err := s2.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, scraper.StateDone, summary2.State)
	assert.Equal(t, 1, summary2.Pages, "resume starts at the checkpoint, not page one")

	count, err = store.CountTweets(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	cursors := mock.SeenCursors()
	assert.Equal(t, "cursor-2", cursors[len(cursors)-1])
}

func TestHarvestWithThreadContext(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	mock := NewMockTwitterAPIServer()
	defer mock.Close()

	mock.SetSearchPage("", searchPage("", reply("1001", "900", "the reply")))
	mock.SetThreadPage("1001", &models.Page{
		Replies: []models.Tweet{
			reply("900", "900", "conversation root"),
			reply("1001", "900", "the reply"),
			reply("1005", "900", "a sibling reply"),
		},
	})

	cfg := testConfig(t, mock.URL())
	cfg.Storage.FetchThreads = true
	store := openStore(t, cfg)

	s, err := scraper.New(cfg, store)
	require.NoError(t, err)

	summary, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Conversations)

	count, err := store.CountTweets(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, count, "the full conversation was persisted")
}

func TestHarvestThenExport(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	mock := NewMockTwitterAPIServer()
	defer mock.Close()

	mock.SetSearchPage("", searchPage("",
		reply("1001", "900", "first reply"),
		reply("1002", "900", "second reply"),
		reply("1003", "901", "other thread"),
	))

	cfg := testConfig(t, mock.URL())
	store := openStore(t, cfg)

	s, err := scraper.New(cfg, store)
	require.NoError(t, err)
	_, err = s.Run(context.Background())
	require.NoError(t, err)

	exportPath := filepath.Join(t.TempDir(), "tweets.json")
	n, err := store.ExportConversations(context.Background(), exportPath)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	data, err := os.ReadFile(exportPath)
	require.NoError(t, err)

	var conversations []struct {
		ConversationID string            `json:"conversationId"`
		Tweets         []json.RawMessage `json:"tweets"`
	}
	require.NoError(t, json.Unmarshal(data, &conversations))
	require.Len(t, conversations, 2)

	total := 0
	for _, c := range conversations {
		total += len(c.Tweets)
	}
	assert.Equal(t, 3, total)
}

func TestRepeatedHarvestIsIdempotent(t *testing.T) {
	mock := NewMockTwitterAPIServer()
	defer mock.Close()

	mock.SetSearchPage("", searchPage("",
		reply("1001", "900", "first reply"),
		reply("1002", "900", "second reply"),
	))

	cfg := testConfig(t, mock.URL())
	store := openStore(t, cfg)

	for i := 0; i < 3; i++ {
		// Fresh checkpoint space per run so each starts from page one
		t.Setenv("XDG_DATA_HOME", t.TempDir())

		s, err := scraper.New(cfg, store)
		require.NoError(t, err)
		_, err = s.Run(context.Background())
		require.NoError(t, err)
	}

	count, err := store.CountTweets(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, count, "re-running the harvest never duplicates rows")
}
