package auth

import (
	"crypto/rsa"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionClaims — содержимое сессионного токена администратора.
// Subject несёт user id, ID (jti) используется для отзыва при logout.
type SessionClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// SessionCodec подписывает и проверяет сессионные токены (RS256).
// Выпуск требует приватный ключ; для verify-only инстансов он может
// отсутствовать.
type SessionCodec struct {
	publicKey  *rsa.PublicKey
	privateKey *rsa.PrivateKey
	ttl        time.Duration
	issuer     string
}

func NewSessionCodec(pub *rsa.PublicKey, priv *rsa.PrivateKey, ttl time.Duration) *SessionCodec {
	return &SessionCodec{
		publicKey:  pub,
		privateKey: priv,
		ttl:        ttl,
		issuer:     "mysched-console",
	}
}

// TTL возвращает срок жизни выпускаемых сессий.
func (c *SessionCodec) TTL() time.Duration { return c.ttl }

// Issue формирует и подписывает новый сессионный токен.
func (c *SessionCodec) Issue(userID, email string) (string, *SessionClaims, error) {
	if c.privateKey == nil {
		return "", nil, fmt.Errorf("session codec has no private key")
	}

	now := time.Now()
	claims := &SessionClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    c.issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(c.privateKey)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, claims, nil
}

// Verify проверяет подпись и срок жизни токена из куки.
func (c *SessionCodec) Verify(tokenStr string) (*SessionClaims, error) {
	tokenStr = strings.TrimSpace(tokenStr)

	token, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.publicKey, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid session token: %w", err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok {
		return nil, fmt.Errorf("invalid claims")
	}
	return claims, nil
}

// ParseRSAPublicKey превращает []byte в объект для проверки подписи
func ParseRSAPublicKey(data []byte) (*rsa.PublicKey, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("public key data is empty")
	}
	key, err := jwt.ParseRSAPublicKeyFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	return key, nil
}

// ParseRSAPrivateKey превращает []byte в объект для подписи токенов
func ParseRSAPrivateKey(data []byte) (*rsa.PrivateKey, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("private key data is empty")
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return key, nil
}
