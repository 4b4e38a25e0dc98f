package guard

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mysched/admin-console/internal/apierr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRequest(method, target string, headers map[string]string) *http.Request {
	r := httptest.NewRequest(method, target, nil)
	r.Host = "console.mysched.io"
	for k, v := range headers {
		r.Header.Set(k, v)
	}
	return r
}

func assertCode(t *testing.T, err error, status int, code apierr.Code) {
	t.Helper()
	var ae *apierr.Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, status, ae.Status)
	assert.Equal(t, code, ae.Code)
}

func TestOriginMatchesSelf(t *testing.T) {
	v := NewOriginVerifier(nil)

	r := newRequest(http.MethodPost, "http://console.mysched.io/api/classes", map[string]string{
		"Origin": "http://console.mysched.io",
	})
	assert.NoError(t, v.Verify(r))
}

func TestOriginMatchesAllowedList(t *testing.T) {
	v := NewOriginVerifier([]string{"https://admin.mysched.io"})

	r := newRequest(http.MethodPost, "http://console.mysched.io/api/classes", map[string]string{
		"Origin": "https://admin.mysched.io",
	})
	assert.NoError(t, v.Verify(r))
}

func TestOriginMismatchRejectedWithoutRefererFallback(t *testing.T) {
	v := NewOriginVerifier(nil)

	// Referer валиден, но раз Origin присутствует и не совпал — отказ
	r := newRequest(http.MethodPost, "http://console.mysched.io/api/classes", map[string]string{
		"Origin":  "https://evil.example",
		"Referer": "http://console.mysched.io/classes",
	})
	assertCode(t, v.Verify(r), http.StatusForbidden, apierr.CodeForbiddenOrigin)
}

func TestRefererFallbackWhenOriginAbsent(t *testing.T) {
	v := NewOriginVerifier(nil)

	r := newRequest(http.MethodPost, "http://console.mysched.io/api/classes", map[string]string{
		"Referer": "http://console.mysched.io/classes/42",
	})
	assert.NoError(t, v.Verify(r))
}

func TestMutatingWithoutHeadersRejected(t *testing.T) {
	v := NewOriginVerifier(nil)

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		r := newRequest(method, "http://console.mysched.io/api/classes", nil)
		assertCode(t, v.Verify(r), http.StatusForbidden, apierr.CodeMissingOrigin)
	}
}

func TestSafeMethodWithoutHeadersAllowed(t *testing.T) {
	v := NewOriginVerifier(nil)

	r := newRequest(http.MethodGet, "http://console.mysched.io/api/classes", nil)
	assert.NoError(t, v.Verify(r))
}

func TestOriginCaseInsensitive(t *testing.T) {
	v := NewOriginVerifier([]string{"HTTPS://Admin.MySched.io"})

	r := newRequest(http.MethodPost, "http://console.mysched.io/api/classes", map[string]string{
		"Origin": "https://admin.mysched.io",
	})
	assert.NoError(t, v.Verify(r))
}

func TestForwardedProtoDefinesSelfOrigin(t *testing.T) {
	v := NewOriginVerifier(nil)

	// За TLS-терминирующим прокси запрос приходит по http,
	// но собственный origin сайта — https
	r := newRequest(http.MethodPost, "http://console.mysched.io/api/classes", map[string]string{
		"Origin":            "https://console.mysched.io",
		"X-Forwarded-Proto": "https",
	})
	assert.NoError(t, v.Verify(r))
}

func TestBadRefererRejectedForMutating(t *testing.T) {
	v := NewOriginVerifier(nil)

	r := newRequest(http.MethodPost, "http://console.mysched.io/api/classes", map[string]string{
		"Referer": "https://evil.example/phish",
	})
	assertCode(t, v.Verify(r), http.StatusForbidden, apierr.CodeForbiddenOrigin)
}
