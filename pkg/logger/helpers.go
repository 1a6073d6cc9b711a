package logger

import (
	"context"

	"github.com/rs/zerolog"
)

// LogRequest logs HTTP request information
func LogRequest(method, url string, statusCode int, duration float64) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration_ms": duration,
	}

	if statusCode >= 200 && statusCode < 300 {
		GetLogger().DebugWithFields("HTTP request completed", fields)
	} else if statusCode >= 400 && statusCode < 500 {
		GetLogger().WarnWithFields("HTTP request client error", fields)
	} else if statusCode >= 500 {
		GetLogger().ErrorWithFields("HTTP request server error", fields)
	}
}

// LogRateLimit logs rate limiting events
func LogRateLimit(endpoint string, backoffSeconds float64) {
	GetLogger().WithFields(map[string]interface{}{
		"endpoint":        endpoint,
		"backoff_seconds": backoffSeconds,
		"action":          "rate_limited",
	}).Warn("Rate limit reached, backing off")
}

// LogPage logs progress through a paginated result set
func LogPage(query string, page, fetched, upserted int) {
	GetLogger().WithFields(map[string]interface{}{
		"query":    query,
		"page":     page,
		"fetched":  fetched,
		"upserted": upserted,
	}).Info("Page processed")
}

// LogUpsert logs a persistence batch outcome
func LogUpsert(inserted, updated, skipped int, err error) {
	fields := map[string]interface{}{
		"inserted": inserted,
		"updated":  updated,
		"skipped":  skipped,
	}

	if err != nil {
		GetLogger().WithFields(fields).WithError(err).Error("Upsert batch failed")
	} else {
		GetLogger().DebugWithFields("Upsert batch committed", fields)
	}
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

// nopLogger is a logger that does nothing (useful for testing)
type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                               { return nil }
