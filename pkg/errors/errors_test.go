package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorString(t *testing.T) {
	err := &Error{Type: ErrorTypeRateLimit, Message: "rate limit exceeded", Code: 429}
	assert.Equal(t, "rate_limit error (code 429): rate limit exceeded", err.Error())
}

func TestNewf(t *testing.T) {
	err := Newf(ErrorTypeNetwork, "dial failed: %s", "connection refused")
	assert.Equal(t, ErrorTypeNetwork, err.Type)
	assert.Equal(t, "dial failed: connection refused", err.Message)
	assert.Zero(t, err.Code)
}

func TestIsRetryable(t *testing.T) {
	retryable := []ErrorType{ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError}
	for _, typ := range retryable {
		assert.True(t, IsRetryable(typ), "%s should be retryable", typ)
	}

	fatal := []ErrorType{
		ErrorTypeConfiguration,
		ErrorTypeAuth,
		ErrorTypeNotFound,
		ErrorTypeParsing,
		ErrorTypePersistence,
		ErrorTypeUnknown,
	}
	for _, typ := range fatal {
		assert.False(t, IsRetryable(typ), "%s should not be retryable", typ)
	}
}

func TestIsRetryableStatusCode(t *testing.T) {
	assert.True(t, IsRetryableStatusCode(0))
	assert.True(t, IsRetryableStatusCode(429))
	assert.True(t, IsRetryableStatusCode(500))
	assert.True(t, IsRetryableStatusCode(503))

	assert.False(t, IsRetryableStatusCode(401))
	assert.False(t, IsRetryableStatusCode(403))
	assert.False(t, IsRetryableStatusCode(404))
	assert.False(t, IsRetryableStatusCode(200))
}
