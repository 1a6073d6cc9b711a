package twitterapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"tweetharvest/pkg/errors"
	"tweetharvest/pkg/logger"
	"tweetharvest/pkg/models"
)

const (
	// DefaultBaseURL is the twitterapi.io endpoint
	DefaultBaseURL = "https://api.twitterapi.io"

	advancedSearchPath = "/twitter/tweet/advanced_search"
	threadContextPath  = "/twitter/tweet/thread_context"
)

// Client is a twitterapi.io API client
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	queryType  string
	logger     logger.Logger
}

// NewClient creates a new twitterapi.io client
func NewClient(baseURL, apiKey string, timeout time.Duration, log logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:   baseURL,
		apiKey:    apiKey,
		queryType: "Latest",
		logger:    log,
	}
}

// SetQueryType overrides the result ordering requested from the search API
func (c *Client) SetQueryType(queryType string) {
	if queryType != "" {
		c.queryType = queryType
	}
}

// SearchPage fetches one page of advanced-search results. An empty cursor
// requests the first page.
func (c *Client) SearchPage(ctx context.Context, query, cursor string) (*models.Page, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("queryType", c.queryType)
	params.Set("cursor", cursor)

	var page models.Page
	if err := c.getJSON(ctx, advancedSearchPath, params, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ThreadContextPage fetches one page of a tweet's conversation thread
func (c *Client) ThreadContextPage(ctx context.Context, tweetID, cursor string) (*models.Page, error) {
	params := url.Values{}
	params.Set("tweetId", tweetID)
	params.Set("cursor", cursor)

	var page models.Page
	if err := c.getJSON(ctx, threadContextPath, params, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// getJSON performs an authenticated GET and decodes the JSON response
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, target interface{}) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return errors.Newf(errors.ErrorTypeUnknown, "failed to create request: %v", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"path":   path,
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"path":     path,
			"error":    err.Error(),
			"duration": duration,
		})
		return errors.Newf(errors.ErrorTypeNetwork, "network error: %v", err)
	}
	defer resp.Body.Close()

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"path":     path,
		"status":   resp.StatusCode,
		"duration": duration,
	})

	if err := c.checkResponseStatus(resp, path); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &errors.Error{
			Type:    errors.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
		}
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}

		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"path":         path,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return &errors.Error{
			Type:    errors.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse JSON: %v", err),
			Code:    resp.StatusCode,
		}
	}

	return nil
}

// checkResponseStatus maps HTTP status codes to typed pipeline errors
func (c *Client) checkResponseStatus(resp *http.Response, path string) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.logger.WarnWithFields("authentication error", map[string]interface{}{
			"status": resp.StatusCode,
			"path":   path,
		})
		return &errors.Error{
			Type:    errors.ErrorTypeAuth,
			Message: "API key rejected",
			Code:    resp.StatusCode,
		}
	case resp.StatusCode == http.StatusNotFound:
		return &errors.Error{
			Type:    errors.ErrorTypeNotFound,
			Message: "resource not found",
			Code:    resp.StatusCode,
		}
	case resp.StatusCode == http.StatusTooManyRequests:
		c.logger.WarnWithFields("rate limit exceeded", map[string]interface{}{
			"status": resp.StatusCode,
			"path":   path,
		})
		return &errors.Error{
			Type:    errors.ErrorTypeRateLimit,
			Message: "rate limit exceeded",
			Code:    resp.StatusCode,
		}
	case resp.StatusCode >= 500:
		c.logger.ErrorWithFields("server error", map[string]interface{}{
			"status": resp.StatusCode,
			"path":   path,
		})
		return &errors.Error{
			Type:    errors.ErrorTypeServerError,
			Message: "server error",
			Code:    resp.StatusCode,
		}
	default:
		return &errors.Error{
			Type:    errors.ErrorTypeUnknown,
			Message: fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
			Code:    resp.StatusCode,
		}
	}
}
