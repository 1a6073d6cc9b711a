package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTweetUnmarshalKeepsRawPayload(t *testing.T) {
	payload := `{
		"id": "1234567890",
		"text": "hello world",
		"conversationId": "1234500000",
		"isReply": true,
		"author": {"userName": "alice", "id": "42"},
		"some_future_field": {"nested": true}
	}`

	var tweet Tweet
	require.NoError(t, json.Unmarshal([]byte(payload), &tweet))

	assert.Equal(t, "1234567890", tweet.ID)
	assert.Equal(t, "hello world", tweet.Text)
	assert.Equal(t, "1234500000", tweet.ConversationID)
	assert.True(t, tweet.IsReply)
	assert.Equal(t, "alice", tweet.AuthorUsername())

	// Raw must be the original payload, including fields the struct
	// doesn't model
	require.NotEmpty(t, tweet.Raw)
	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(tweet.Raw, &raw))
	assert.Contains(t, raw, "some_future_field")
}

func TestTweetRawExcludedFromMarshal(t *testing.T) {
	tweet := Tweet{ID: "1", Text: "x", Raw: json.RawMessage(`{"id":"1"}`)}

	out, err := json.Marshal(&tweet)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "Raw")
}

func TestAuthorUsernameNilAuthor(t *testing.T) {
	tweet := Tweet{ID: "1"}
	assert.Empty(t, tweet.AuthorUsername())
}

func TestPageItemsPrefersReplies(t *testing.T) {
	page := Page{
		Tweets:  []Tweet{{ID: "t1"}},
		Replies: []Tweet{{ID: "r1"}, {ID: "r2"}},
	}
	items := page.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "r1", items[0].ID)

	page.Replies = nil
	items = page.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "t1", items[0].ID)
}

func TestPageTerminal(t *testing.T) {
	assert.True(t, (&Page{HasNextPage: false}).Terminal())
	assert.True(t, (&Page{HasNextPage: true, NextCursor: ""}).Terminal())
	assert.False(t, (&Page{HasNextPage: true, NextCursor: "abc"}).Terminal())
}

func TestPageTerminalSearch(t *testing.T) {
	assert.True(t, (&Page{}).TerminalSearch())
	assert.True(t, (&Page{HasNextPage: true}).TerminalSearch())
	assert.False(t, (&Page{NextCursor: "abc"}).TerminalSearch())

	// Search responses may carry a cursor without has_next_page; the
	// cursor alone means more pages exist
	payload := `{"tweets": [{"id": "1"}], "next_cursor": "cursor-2"}`
	var page Page
	require.NoError(t, json.Unmarshal([]byte(payload), &page))
	assert.False(t, page.TerminalSearch())
}

func TestPageUnmarshal(t *testing.T) {
	payload := `{
		"tweets": [{"id": "1"}, {"id": "2"}],
		"has_next_page": true,
		"next_cursor": "cursor123"
	}`

	var page Page
	require.NoError(t, json.Unmarshal([]byte(payload), &page))

	assert.Len(t, page.Tweets, 2)
	assert.True(t, page.HasNextPage)
	assert.Equal(t, "cursor123", page.NextCursor)
	assert.False(t, page.Terminal())

	// Each tweet on the page keeps its own raw payload
	assert.JSONEq(t, `{"id":"1"}`, string(page.Tweets[0].Raw))
}
