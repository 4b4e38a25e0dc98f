package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCodec(t *testing.T, ttl time.Duration) *SessionCodec {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return NewSessionCodec(&key.PublicKey, key, ttl)
}

func TestIssueAndVerify(t *testing.T) {
	codec := testCodec(t, time.Hour)

	token, claims, err := codec.Issue("adm-1", "ops@mysched.io")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.NotEmpty(t, claims.ID)

	got, err := codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "adm-1", got.Subject)
	assert.Equal(t, "ops@mysched.io", got.Email)
	assert.Equal(t, claims.ID, got.ID)
}

func TestVerifyRejectsExpired(t *testing.T) {
	codec := testCodec(t, -time.Minute)

	token, _, err := codec.Issue("adm-1", "ops@mysched.io")
	require.NoError(t, err)

	_, err = codec.Verify(token)
	assert.Error(t, err)
}

func TestVerifyRejectsForeignKey(t *testing.T) {
	issuing := testCodec(t, time.Hour)
	verifying := testCodec(t, time.Hour)

	token, _, err := issuing.Issue("adm-1", "ops@mysched.io")
	require.NoError(t, err)

	_, err = verifying.Verify(token)
	assert.Error(t, err)
}

func TestVerifyRejectsNoneAlgorithm(t *testing.T) {
	codec := testCodec(t, time.Hour)

	// alg=none не должен проходить валидацию метода подписи
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "adm-1"},
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = codec.Verify(token)
	assert.Error(t, err)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	codec := testCodec(t, time.Hour)

	for _, raw := range []string{"", "garbage", "a.b.c"} {
		_, err := codec.Verify(raw)
		assert.Error(t, err, "token %q", raw)
	}
}

func TestIssueRequiresPrivateKey(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	codec := NewSessionCodec(&key.PublicKey, nil, time.Hour)

	_, _, err = codec.Issue("adm-1", "ops@mysched.io")
	assert.Error(t, err)
}
