package twitterapi

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tweetharvest/pkg/errors"
	"tweetharvest/pkg/logger"
)

// mockRoundTripper allows us to intercept HTTP requests
type mockRoundTripper struct {
	handler func(req *http.Request) (*http.Response, error)
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.handler(req)
}

// newResponse builds a canned HTTP response
func newResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

// newTestClient creates a client whose transport is served by handler
func newTestClient(handler func(req *http.Request) (*http.Response, error)) *Client {
	client := NewClient("https://api.example.test", "test-key", 30*time.Second, logger.NewNopLogger())
	client.httpClient = &http.Client{
		Transport: &mockRoundTripper{handler: handler},
		Timeout:   30 * time.Second,
	}
	return client
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient("", "key", 10*time.Second, logger.NewNopLogger())

	assert.Equal(t, DefaultBaseURL, client.baseURL)
	assert.Equal(t, "Latest", client.queryType)

	client.SetQueryType("Top")
	assert.Equal(t, "Top", client.queryType)

	// Empty value keeps the current setting
	client.SetQueryType("")
	assert.Equal(t, "Top", client.queryType)
}

func TestSearchPageRequestShape(t *testing.T) {
	var captured *http.Request
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		captured = req
		return newResponse(http.StatusOK, `{"tweets":[],"has_next_page":false,"next_cursor":""}`), nil
	})

	_, err := client.SearchPage(context.Background(), "from:alice filter:replies", "cur123")
	require.NoError(t, err)
	require.NotNil(t, captured)

	assert.Equal(t, http.MethodGet, captured.Method)
	assert.Equal(t, "/twitter/tweet/advanced_search", captured.URL.Path)
	assert.Equal(t, "test-key", captured.Header.Get("X-API-Key"))

	q := captured.URL.Query()
	assert.Equal(t, "from:alice filter:replies", q.Get("query"))
	assert.Equal(t, "Latest", q.Get("queryType"))
	assert.Equal(t, "cur123", q.Get("cursor"))
}

func TestSearchPageParsesResults(t *testing.T) {
	body := `{
		"tweets": [
			{"id": "1", "text": "first", "conversationId": "c1"},
			{"id": "2", "text": "second", "conversationId": "c1"}
		],
		"has_next_page": true,
		"next_cursor": "next-page"
	}`
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		return newResponse(http.StatusOK, body), nil
	})

	page, err := client.SearchPage(context.Background(), "from:alice filter:replies", "")
	require.NoError(t, err)

	require.Len(t, page.Tweets, 2)
	assert.Equal(t, "1", page.Tweets[0].ID)
	assert.Equal(t, "first", page.Tweets[0].Text)
	assert.NotEmpty(t, page.Tweets[0].Raw)
	assert.True(t, page.HasNextPage)
	assert.Equal(t, "next-page", page.NextCursor)
	assert.False(t, page.Terminal())
}

func TestThreadContextPageRequestShape(t *testing.T) {
	var captured *http.Request
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		captured = req
		return newResponse(http.StatusOK, `{"replies":[{"id":"9"}],"has_next_page":false,"next_cursor":""}`), nil
	})

	page, err := client.ThreadContextPage(context.Background(), "12345", "")
	require.NoError(t, err)

	assert.Equal(t, "/twitter/tweet/thread_context", captured.URL.Path)
	assert.Equal(t, "12345", captured.URL.Query().Get("tweetId"))

	require.Len(t, page.Items(), 1)
	assert.Equal(t, "9", page.Items()[0].ID)
	assert.True(t, page.Terminal())
}

func TestStatusCodeMapping(t *testing.T) {
	cases := []struct {
		status   int
		wantType errors.ErrorType
	}{
		{http.StatusUnauthorized, errors.ErrorTypeAuth},
		{http.StatusForbidden, errors.ErrorTypeAuth},
		{http.StatusNotFound, errors.ErrorTypeNotFound},
		{http.StatusTooManyRequests, errors.ErrorTypeRateLimit},
		{http.StatusInternalServerError, errors.ErrorTypeServerError},
		{http.StatusBadGateway, errors.ErrorTypeServerError},
		{http.StatusTeapot, errors.ErrorTypeUnknown},
	}

	for _, c := range cases {
		client := newTestClient(func(req *http.Request) (*http.Response, error) {
			return newResponse(c.status, ""), nil
		})

		_, err := client.SearchPage(context.Background(), "from:alice filter:replies", "")
		require.Error(t, err, "status %d", c.status)

		var apiErr *errors.Error
		require.ErrorAs(t, err, &apiErr, "status %d", c.status)
		assert.Equal(t, c.wantType, apiErr.Type, "status %d", c.status)
		assert.Equal(t, c.status, apiErr.Code)
	}
}

func TestNetworkErrorIsTyped(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		return nil, io.ErrUnexpectedEOF
	})

	_, err := client.SearchPage(context.Background(), "from:alice filter:replies", "")
	require.Error(t, err)

	var apiErr *errors.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, errors.ErrorTypeNetwork, apiErr.Type)
}

func TestMalformedJSONIsParsingError(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		return newResponse(http.StatusOK, `{"tweets": [not json`), nil
	})

	_, err := client.SearchPage(context.Background(), "from:alice filter:replies", "")
	require.Error(t, err)

	var apiErr *errors.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, errors.ErrorTypeParsing, apiErr.Type)
}
