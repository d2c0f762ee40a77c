package errors_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eastglh/panelsync/pkg/errors"
)

func TestSentinelHelpers(t *testing.T) {
	wrapped := fmt.Errorf("insert: %w", errors.ErrDuplicate)
	assert.True(t, errors.IsDuplicate(wrapped))
	assert.False(t, errors.IsNotFound(wrapped))

	assert.True(t, errors.IsNotFound(fmt.Errorf("panel: %w", errors.ErrNotFound)))
	assert.False(t, errors.IsDuplicate(nil))
}

func TestAPIError(t *testing.T) {
	err := errors.NewAPIError("https://example.org/panels/3/", 503, "unexpected status")

	assert.Equal(t, "API error from https://example.org/panels/3/ (status 503): unexpected status", err.Error())
	assert.True(t, errors.IsUpstreamUnavailable(err))

	var apiErr *errors.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 503, apiErr.StatusCode)
}

func TestWrapAPI(t *testing.T) {
	cause := errors.New("connection refused")
	err := errors.WrapAPI("https://example.org", 0, cause)

	assert.True(t, errors.IsUpstreamUnavailable(err))
	assert.True(t, errors.Is(err, cause))
	assert.Nil(t, errors.WrapAPI("https://example.org", 0, nil))
}

func TestConfigError(t *testing.T) {
	err := errors.NewConfigError("database", "DB_ENDPOINT is required", errors.ErrInvalidInput)

	assert.Equal(t, "configuration error in database: DB_ENDPOINT is required", err.Error())
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestSyncError(t *testing.T) {
	cause := errors.New("write failed")
	err := errors.NewSyncError("Adult onset neurodegenerative disorder", cause)

	assert.Contains(t, err.Error(), "Adult onset neurodegenerative disorder")
	assert.True(t, errors.Is(err, cause))
}

func TestWrapConnection(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := errors.WrapConnection(cause)

	assert.True(t, errors.IsConnection(err))
	assert.Nil(t, errors.WrapConnection(nil))
}
