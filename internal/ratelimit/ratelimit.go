package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mysched/admin-console/internal/apierr"
	"go.uber.org/zap"
)

// Дефолты для анонимной защиты от перебора. Роуты могут переопределять.
const (
	DefaultWindow = 15 * time.Second
	DefaultLimit  = int64(20)
)

// Key — структурный ключ квоты. Scope (имя роута/назначение) является
// частью ключа, а не дисциплиной вызывающего кода: квоты разных роутов
// не пересекаются по построению.
type Key struct {
	Scope   string
	Subject string
}

func (k Key) String() string {
	return k.Scope + ":" + k.Subject
}

// Config задаёт окно и потолок для одного места вызова.
type Config struct {
	Window time.Duration
	Limit  int64
}

// Store — инжектируемое хранилище счётчиков. Incr обязан быть атомарным
// по ключу: два параллельных запроса не должны оба увидеть count < limit.
type Store interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

type Limiter struct {
	store  Store
	logger *zap.Logger

	// подменяется в тестах для прохода границы окна
	now func() time.Time
}

func New(store Store, logger *zap.Logger) *Limiter {
	return &Limiter{
		store:  store,
		logger: logger.Named("ratelimit"),
		now:    time.Now,
	}
}

// Throttle реализует fixed-window: бакет = floor(now/window), квота
// полностью сбрасывается на границе бакета. Всплески на стыке окон —
// осознанный компромисс в пользу простоты.
func (l *Limiter) Throttle(ctx context.Context, key Key, cfg Config) error {
	// Локальные адреса и пустой subject не троттлим (health-чеки, dev)
	if key.Subject == "" || isLocalAddress(key.Subject) {
		return nil
	}

	window := cfg.Window
	if window <= 0 {
		window = DefaultWindow
	}
	limit := cfg.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	now := l.now()
	bucket := now.UnixMilli() / window.Milliseconds()

	count, err := l.store.Incr(ctx, fmt.Sprintf("%s:%d", key.String(), bucket), window)
	if err != nil {
		// Fail open: отказ хранилища не должен валить весь трафик.
		// Для single-instance деплоя это безопасно; для multi-instance
		// деплоя деградация квоты видна по логу.
		l.logger.Warn("rate limit store unavailable, failing open",
			zap.String("scope", key.Scope),
			zap.Error(err),
		)
		return nil
	}

	if count > limit {
		resetAt := time.UnixMilli((bucket + 1) * window.Milliseconds()).UTC()
		return apierr.RateLimited(resetAt.Format(time.RFC3339))
	}
	return nil
}

// isLocalAddress отсекает loopback в любом из привычных написаний,
// включая адрес с портом, zone id и IPv4-in-IPv6.
func isLocalAddress(value string) bool {
	v := strings.ToLower(strings.Trim(strings.TrimSpace(value), `"`))
	if v == "" || v == "0" {
		return true
	}
	v = strings.TrimPrefix(v, "[")
	v = strings.TrimSuffix(v, "]")
	if i := strings.Index(v, "%"); i >= 0 {
		v = v[:i]
	}
	// срезаем порт только для форм host:port без лишних двоеточий (IPv4/hostname)
	if i := strings.LastIndex(v, ":"); i >= 0 && strings.Count(v, ":") == 1 {
		v = v[:i]
	}
	switch v {
	case "localhost", "127.0.0.1", "::1", "0:0:0:0:0:0:0:1":
		return true
	}
	return strings.HasPrefix(v, "::ffff:127.")
}
