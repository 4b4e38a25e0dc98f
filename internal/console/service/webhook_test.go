package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mysched/admin-console/internal/apierr"
	"github.com/mysched/admin-console/internal/infra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func probeConfig() infra.WebhookConfig {
	return infra.WebhookConfig{
		Timeout:       2 * time.Second,
		MaxRetries:    1,
		RatePerSec:    1000,
		Burst:         1000,
		CBMaxRequests: 3,
		CBInterval:    time.Minute,
		CBTimeout:     time.Minute,
	}
}

func TestProbeSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewProber(probeConfig(), zap.NewNop())
	res, err := p.Probe(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, http.StatusOK, res.Status)
}

func TestProbeClientErrorIsNotFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewProber(probeConfig(), zap.NewNop())
	res, err := p.Probe(context.Background(), srv.URL)

	// 4xx — вебхук жив, просто отвечает отказом; это не сбой пробы
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, http.StatusNotFound, res.Status)
}

func TestProbeServerErrorMapsToBadGateway(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewProber(probeConfig(), zap.NewNop())
	_, err := p.Probe(context.Background(), srv.URL)

	var ae *apierr.Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, http.StatusBadGateway, ae.Status)
	assert.Equal(t, apierr.CodeUnavailable, ae.Code)
}

func TestProbeUnreachableHost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close() // порт закрыт — соединение падает

	p := NewProber(probeConfig(), zap.NewNop())
	_, err := p.Probe(context.Background(), url)

	var ae *apierr.Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, http.StatusBadGateway, ae.Status)
}

func TestProbeInvalidURL(t *testing.T) {
	p := NewProber(probeConfig(), zap.NewNop())

	for _, raw := range []string{"", "not-a-url", "ftp://example.com/hook", "http://"} {
		_, err := p.Probe(context.Background(), raw)
		var ae *apierr.Error
		require.True(t, errors.As(err, &ae), "url %q", raw)
		assert.Equal(t, apierr.CodeValidation, ae.Code, "url %q", raw)
	}
}

func TestProbeRetriesBeforeFailing(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := probeConfig()
	cfg.MaxRetries = 3
	p := NewProber(cfg, zap.NewNop())

	res, err := p.Probe(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, 2, attempts)
}

func TestProbeCircuitOpensAfterRepeatedFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewProber(probeConfig(), zap.NewNop())
	ctx := context.Background()

	// Предохранитель размыкается после 6 подряд неудачных проб
	for i := 0; i < 6; i++ {
		_, err := p.Probe(ctx, srv.URL)
		require.Error(t, err)
	}

	_, err := p.Probe(ctx, srv.URL)
	var ae *apierr.Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, http.StatusServiceUnavailable, ae.Status)
}
