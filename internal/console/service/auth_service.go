package service

import (
	"context"
	"net/http"
	"time"

	"github.com/mysched/admin-console/internal/apierr"
	"github.com/mysched/admin-console/internal/domain"
	"github.com/mysched/admin-console/internal/infra"
	"github.com/mysched/admin-console/internal/infra/auth"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AdminProvider описывает требования к хранилищу учётных записей.
type AdminProvider interface {
	GetAdminByEmail(ctx context.Context, email string) (*domain.Admin, error)
}

type AuthService struct {
	repo   AdminProvider
	codec  *auth.SessionCodec
	rdb    *redis.Client
	logger *zap.Logger
}

func NewAuthService(repo AdminProvider, codec *auth.SessionCodec, rdb *redis.Client, logger *zap.Logger) *AuthService {
	return &AuthService{
		repo:   repo,
		codec:  codec,
		rdb:    rdb,
		logger: logger.Named("auth-service"),
	}
}

// Login проверяет учётные данные и выпускает сессионный токен.
// Не уточняем, что именно неверно (email или пароль) для защиты от перебора.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.SessionResponse, error) {
	invalid := apierr.New(http.StatusUnauthorized, "invalid_credentials", "Invalid email or password.")

	admin, err := s.repo.GetAdminByEmail(ctx, email)
	if err != nil {
		return "", nil, apierr.Internal(err)
	}
	if admin == nil {
		return "", nil, invalid
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return "", nil, invalid
	}

	token, claims, err := s.codec.Issue(admin.UserID, admin.Email)
	if err != nil {
		return "", nil, apierr.Internal(err)
	}

	return token, &domain.SessionResponse{
		Admin:     domain.AdminIdentity{ID: admin.UserID, Email: admin.Email},
		ExpiresIn: int64(time.Until(claims.ExpiresAt.Time).Seconds()),
	}, nil
}

// Revoke помечает сессию отозванной до конца её жизни. Недействительный
// токен не ошибка: logout должен быть идемпотентным.
func (s *AuthService) Revoke(ctx context.Context, tokenStr string) {
	claims, err := s.codec.Verify(tokenStr)
	if err != nil {
		return
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return
	}
	if err := s.rdb.Set(ctx, infra.RedisKeyRevokedSession+claims.ID, "1", ttl).Err(); err != nil {
		s.logger.Warn("failed to revoke session", zap.Error(err))
	}
}

// IsRevoked реализует guard.RevocationChecker.
func (s *AuthService) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.rdb.Exists(ctx, infra.RedisKeyRevokedSession+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
