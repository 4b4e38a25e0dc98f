package guard

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mysched/admin-console/internal/apierr"
	"github.com/mysched/admin-console/internal/domain"
	"github.com/mysched/admin-console/internal/infra/auth"
	"go.uber.org/zap"
)

// SessionVerifier проверяет подпись и срок жизни сессионного токена.
// Реализуется auth.SessionCodec.
type SessionVerifier interface {
	Verify(tokenStr string) (*auth.SessionClaims, error)
}

// AdminDirectory отвечает на вопрос «является ли user администратором».
// Реализуется postgres-репозиторием.
type AdminDirectory interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// RevocationChecker проверяет, не отозвана ли сессия (logout).
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// SessionResolver резолвит администратора из сессионной куки:
// кука → подпись токена → отзыв → членство в allow-list.
// 401 и 403 намеренно неразличимы по тексту — только по статусу и коду.
type SessionResolver struct {
	cookieName string
	codec      SessionVerifier
	directory  AdminDirectory
	revoked    RevocationChecker
	logger     *zap.Logger
}

func NewSessionResolver(cookieName string, codec SessionVerifier, directory AdminDirectory, revoked RevocationChecker, logger *zap.Logger) *SessionResolver {
	return &SessionResolver{
		cookieName: cookieName,
		codec:      codec,
		directory:  directory,
		revoked:    revoked,
		logger:     logger.Named("identity"),
	}
}

// ResolveAdmin выполняется не более одного раза на запрос; результат
// дальше едет в Helpers, вложенные вызовы его не перерезолвивают.
func (s *SessionResolver) ResolveAdmin(r *http.Request) (domain.AdminIdentity, error) {
	ctx := r.Context()

	cookie, err := r.Cookie(s.cookieName)
	if err != nil || cookie.Value == "" {
		return domain.AdminIdentity{}, apierr.Unauthenticated()
	}

	claims, err := s.codec.Verify(cookie.Value)
	if err != nil {
		s.logger.Debug("session verification failed", zap.Error(err))
		return domain.AdminIdentity{}, apierr.Unauthenticated()
	}

	// Отзыв сессии хранится в Redis; при его недоступности пропускаем
	// проверку с warn — подпись и срок жизни токена уже проверены.
	if revoked, err := s.revoked.IsRevoked(ctx, claims.ID); err != nil {
		s.logger.Warn("revocation check unavailable", zap.Error(err))
	} else if revoked {
		return domain.AdminIdentity{}, apierr.Unauthenticated()
	}

	ok, err := s.directory.IsAdmin(ctx, claims.Subject)
	if err != nil {
		return domain.AdminIdentity{}, apierr.Internal(fmt.Errorf("admin lookup: %w", err))
	}
	if !ok {
		return domain.AdminIdentity{}, apierr.Forbidden()
	}

	return domain.AdminIdentity{ID: claims.Subject, Email: claims.Email}, nil
}
