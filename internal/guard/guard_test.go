package guard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mysched/admin-console/internal/apierr"
	"github.com/mysched/admin-console/internal/domain"
	"github.com/mysched/admin-console/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeThrottler struct {
	err   error
	calls int
	key   ratelimit.Key
}

func (f *fakeThrottler) Throttle(_ context.Context, key ratelimit.Key, _ ratelimit.Config) error {
	f.calls++
	f.key = key
	return f.err
}

type fakeResolver struct {
	admin domain.AdminIdentity
	err   error
	calls int
}

func (f *fakeResolver) ResolveAdmin(_ *http.Request) (domain.AdminIdentity, error) {
	f.calls++
	if f.err != nil {
		return domain.AdminIdentity{}, f.err
	}
	return f.admin, nil
}

type auditCall struct {
	actor, subject, message string
}

type fakeAuditor struct {
	calls []auditCall
}

func (f *fakeAuditor) RecordError(_ context.Context, actor, subject, message string, _ map[string]any) {
	f.calls = append(f.calls, auditCall{actor, subject, message})
}

type guardFixture struct {
	guard    *Guard
	throttle *fakeThrottler
	identity *fakeResolver
	auditor  *fakeAuditor
}

func newFixture() *guardFixture {
	f := &guardFixture{
		throttle: &fakeThrottler{},
		identity: &fakeResolver{admin: domain.AdminIdentity{ID: "adm-1", Email: "ops@mysched.io"}},
		auditor:  &fakeAuditor{},
	}
	f.guard = New(NewOriginVerifier(nil), f.throttle, f.identity, f.auditor, NewMetrics(nil), zap.NewNop())
	return f
}

func postRequest() *http.Request {
	r := httptest.NewRequest(http.MethodPost, "http://console.mysched.io/api/classes", nil)
	r.Host = "console.mysched.io"
	r.RemoteAddr = "203.0.113.7:55000"
	r.Header.Set("Origin", "http://console.mysched.io")
	return r
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) apierr.Body {
	t.Helper()
	var body apierr.Body
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestWrapSuccessPath(t *testing.T) {
	f := newFixture()

	handlerCalls := 0
	h := f.guard.Wrap("classes.create", Config{Origin: true, Rate: &RateConfig{}, Audit: true},
		func(r *http.Request, g *Helpers) error {
			handlerCalls++
			assert.Equal(t, "adm-1", g.Admin.ID)
			return g.JSON(map[string]string{"ok": "yes"}, http.StatusCreated)
		})

	rec := httptest.NewRecorder()
	h(rec, postRequest())

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, handlerCalls)
	assert.Equal(t, 1, f.throttle.calls)
	assert.Equal(t, 1, f.identity.calls)
	assert.Empty(t, f.auditor.calls)

	// Заголовки безопасности на успешном ответе
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "same-origin", rec.Header().Get("Referrer-Policy"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestWrapOriginRejectShortCircuits(t *testing.T) {
	f := newFixture()

	handlerCalled := false
	h := f.guard.Wrap("classes.create", Config{Origin: true, Rate: &RateConfig{}, Audit: true},
		func(r *http.Request, g *Helpers) error {
			handlerCalled = true
			return nil
		})

	r := postRequest()
	r.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()
	h(rec, r)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, apierr.CodeForbiddenOrigin, decodeErrorBody(t, rec).Code)
	// Ничего после origin не выполняется
	assert.False(t, handlerCalled)
	assert.Zero(t, f.throttle.calls)
	assert.Zero(t, f.identity.calls)
}

func TestWrapRateLimited(t *testing.T) {
	f := newFixture()
	f.throttle.err = apierr.RateLimited("2026-01-01T00:00:15Z")

	handlerCalled := false
	h := f.guard.Wrap("classes.create", Config{Origin: true, Rate: &RateConfig{}, Audit: true},
		func(r *http.Request, g *Helpers) error {
			handlerCalled = true
			return nil
		})

	rec := httptest.NewRecorder()
	h(rec, postRequest())

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.False(t, handlerCalled)
	assert.Zero(t, f.identity.calls)
	// Scope попадает в ключ квоты, subject — IP клиента
	assert.Equal(t, ratelimit.Key{Scope: "classes.create", Subject: "203.0.113.7"}, f.throttle.key)
}

func TestWrapUnauthenticated(t *testing.T) {
	f := newFixture()
	f.identity.err = apierr.Unauthenticated()

	handlerCalled := false
	h := f.guard.Wrap("whoami", Config{}, func(r *http.Request, g *Helpers) error {
		handlerCalled = true
		return nil
	})

	rec := httptest.NewRecorder()
	h(rec, postRequest())

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, apierr.CodeUnauthenticated, decodeErrorBody(t, rec).Code)
	assert.False(t, handlerCalled)
}

func TestWrapNonAdminForbidden(t *testing.T) {
	f := newFixture()
	f.identity.err = apierr.Forbidden()

	h := f.guard.Wrap("whoami", Config{}, func(r *http.Request, g *Helpers) error { return nil })

	rec := httptest.NewRecorder()
	h(rec, postRequest())

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, apierr.CodeForbidden, decodeErrorBody(t, rec).Code)
}

func TestWrapHandlerFailureAuditedOnce(t *testing.T) {
	f := newFixture()

	h := f.guard.Wrap("classes.create", Config{Origin: true, Audit: true},
		func(r *http.Request, g *Helpers) error {
			return errors.New("pg: broken pipe")
		})

	rec := httptest.NewRecorder()
	h(rec, postRequest())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeErrorBody(t, rec)
	assert.Equal(t, apierr.CodeInternal, body.Code)
	assert.NotContains(t, body.Error, "broken pipe")

	// Ровно одно ERROR-событие, актор — резолвнутый админ
	require.Len(t, f.auditor.calls, 1)
	assert.Equal(t, "adm-1", f.auditor.calls[0].actor)
	assert.Equal(t, "classes.create", f.auditor.calls[0].subject)
}

func TestWrapClientErrorsNotAudited(t *testing.T) {
	f := newFixture()

	h := f.guard.Wrap("classes.create", Config{Origin: true, Audit: true},
		func(r *http.Request, g *Helpers) error {
			return apierr.Validation("Class code is required.")
		})

	rec := httptest.NewRecorder()
	h(rec, postRequest())

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.auditor.calls)
}

func TestWrapSystemActorWhenIdentityStageFails(t *testing.T) {
	f := newFixture()
	f.identity.err = apierr.Internal(errors.New("admin lookup: timeout"))

	h := f.guard.Wrap("whoami", Config{Audit: true}, func(r *http.Request, g *Helpers) error { return nil })

	rec := httptest.NewRecorder()
	h(rec, postRequest())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Len(t, f.auditor.calls, 1)
	assert.Equal(t, "system", f.auditor.calls[0].actor)
}

func TestWrapAuditDisabled(t *testing.T) {
	f := newFixture()

	h := f.guard.Wrap("status", Config{Audit: false},
		func(r *http.Request, g *Helpers) error {
			return errors.New("redis down")
		})

	rec := httptest.NewRecorder()
	h(rec, postRequest())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, f.auditor.calls)
}

func TestWrapIdempotentUnderRepeat(t *testing.T) {
	f := newFixture()
	f.identity.err = apierr.Unauthenticated()

	h := f.guard.Wrap("whoami", Config{}, func(r *http.Request, g *Helpers) error { return nil })

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h(rec, postRequest())
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
}

func TestWrapNoDoubleWriteAfterHandlerOutput(t *testing.T) {
	f := newFixture()

	h := f.guard.Wrap("classes.create", Config{Audit: true},
		func(r *http.Request, g *Helpers) error {
			_ = g.JSON(map[string]string{"partial": "yes"}, http.StatusOK)
			return errors.New("late failure")
		})

	rec := httptest.NewRecorder()
	h(rec, postRequest())

	// Статус остаётся тем, что записал обработчик
	assert.Equal(t, http.StatusOK, rec.Code)
	// Ошибка всё равно аудируется
	require.Len(t, f.auditor.calls, 1)
}
