package apierr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyPassesThroughTypedErrors(t *testing.T) {
	orig := Forbidden()

	got := Classify(fmt.Errorf("wrapped: %w", orig))

	require.NotNil(t, got)
	assert.Equal(t, http.StatusForbidden, got.Status)
	assert.Equal(t, CodeForbidden, got.Code)
	assert.Same(t, orig, got)
}

func TestClassifyDeadlineExceeded(t *testing.T) {
	got := Classify(fmt.Errorf("query: %w", context.DeadlineExceeded))

	require.NotNil(t, got)
	assert.Equal(t, http.StatusGatewayTimeout, got.Status)
	assert.Equal(t, CodeUnavailable, got.Code)
}

func TestClassifyUnknownErrorHidesDetails(t *testing.T) {
	cause := errors.New("pq: connection refused to 10.0.0.5")

	got := Classify(cause)

	require.NotNil(t, got)
	assert.Equal(t, http.StatusInternalServerError, got.Status)
	assert.Equal(t, CodeInternal, got.Code)
	// Внутренняя причина не должна утечь в тело ответа
	assert.NotContains(t, got.Message, "10.0.0.5")
	assert.ErrorIs(t, got, cause)
}

func TestClassifyNil(t *testing.T) {
	assert.Nil(t, Classify(nil))
}

func TestUnavailableClampsStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadGateway, Unavailable(500, "x", nil).Status)
	assert.Equal(t, http.StatusServiceUnavailable, Unavailable(503, "x", nil).Status)
	assert.Equal(t, http.StatusGatewayTimeout, Unavailable(504, "x", nil).Status)
}

func TestRateLimitedDetails(t *testing.T) {
	e := RateLimited("2026-01-01T00:00:15Z")
	require.NotNil(t, e.Details)
	assert.Equal(t, "2026-01-01T00:00:15Z", e.Details["reset_at"])

	assert.Nil(t, RateLimited("").Details)
}

func TestBodyShape(t *testing.T) {
	b := Unauthenticated().Body()
	assert.Equal(t, "Authentication required.", b.Error)
	assert.Equal(t, CodeUnauthenticated, b.Code)
}
