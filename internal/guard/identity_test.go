package guard

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mysched/admin-console/internal/apierr"
	"github.com/mysched/admin-console/internal/infra/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeVerifier struct {
	claims *auth.SessionClaims
	err    error
}

func (f *fakeVerifier) Verify(string) (*auth.SessionClaims, error) { return f.claims, f.err }

type fakeDirectory struct {
	isAdmin bool
	err     error
}

func (f *fakeDirectory) IsAdmin(context.Context, string) (bool, error) { return f.isAdmin, f.err }

type fakeRevocation struct {
	revoked bool
	err     error
}

func (f *fakeRevocation) IsRevoked(context.Context, string) (bool, error) {
	return f.revoked, f.err
}

func adminClaims() *auth.SessionClaims {
	return &auth.SessionClaims{
		Email: "ops@mysched.io",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:      "jti-1",
			Subject: "adm-1",
		},
	}
}

func resolverFixture(v *fakeVerifier, d *fakeDirectory, rc *fakeRevocation) *SessionResolver {
	return NewSessionResolver("sched_session", v, d, rc, zap.NewNop())
}

func requestWithCookie(value string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
	if value != "" {
		r.AddCookie(&http.Cookie{Name: "sched_session", Value: value})
	}
	return r
}

func TestResolveAdminSuccess(t *testing.T) {
	s := resolverFixture(&fakeVerifier{claims: adminClaims()}, &fakeDirectory{isAdmin: true}, &fakeRevocation{})

	admin, err := s.ResolveAdmin(requestWithCookie("token"))
	require.NoError(t, err)
	assert.Equal(t, "adm-1", admin.ID)
	assert.Equal(t, "ops@mysched.io", admin.Email)
}

func TestResolveAdminNoCookie(t *testing.T) {
	s := resolverFixture(&fakeVerifier{claims: adminClaims()}, &fakeDirectory{isAdmin: true}, &fakeRevocation{})

	_, err := s.ResolveAdmin(requestWithCookie(""))
	assertCode(t, err, http.StatusUnauthorized, apierr.CodeUnauthenticated)
}

func TestResolveAdminBadToken(t *testing.T) {
	s := resolverFixture(&fakeVerifier{err: errors.New("bad signature")}, &fakeDirectory{isAdmin: true}, &fakeRevocation{})

	_, err := s.ResolveAdmin(requestWithCookie("token"))
	assertCode(t, err, http.StatusUnauthorized, apierr.CodeUnauthenticated)
}

func TestResolveAdminRevokedSession(t *testing.T) {
	s := resolverFixture(&fakeVerifier{claims: adminClaims()}, &fakeDirectory{isAdmin: true}, &fakeRevocation{revoked: true})

	_, err := s.ResolveAdmin(requestWithCookie("token"))
	assertCode(t, err, http.StatusUnauthorized, apierr.CodeUnauthenticated)
}

func TestResolveAdminRevocationCheckFailsOpen(t *testing.T) {
	// Redis недоступен: подпись уже проверена, запрос проходит с warn
	s := resolverFixture(&fakeVerifier{claims: adminClaims()}, &fakeDirectory{isAdmin: true}, &fakeRevocation{err: errors.New("redis down")})

	admin, err := s.ResolveAdmin(requestWithCookie("token"))
	require.NoError(t, err)
	assert.Equal(t, "adm-1", admin.ID)
}

func TestResolveAdminNotAdmin(t *testing.T) {
	s := resolverFixture(&fakeVerifier{claims: adminClaims()}, &fakeDirectory{isAdmin: false}, &fakeRevocation{})

	_, err := s.ResolveAdmin(requestWithCookie("token"))
	assertCode(t, err, http.StatusForbidden, apierr.CodeForbidden)
}

func TestResolveAdminDirectoryFailure(t *testing.T) {
	s := resolverFixture(&fakeVerifier{claims: adminClaims()}, &fakeDirectory{err: errors.New("pg down")}, &fakeRevocation{})

	_, err := s.ResolveAdmin(requestWithCookie("token"))
	assertCode(t, err, http.StatusInternalServerError, apierr.CodeInternal)
}
