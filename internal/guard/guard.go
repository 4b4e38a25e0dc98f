package guard

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/mysched/admin-console/internal/apierr"
	"github.com/mysched/admin-console/internal/audit"
	"github.com/mysched/admin-console/internal/domain"
	"github.com/mysched/admin-console/internal/ratelimit"
	"go.uber.org/zap"
)

// RateConfig включает троттлинг роута. Нулевые поля берут дефолты лимитера.
type RateConfig struct {
	Window time.Duration
	Limit  int64
}

// Config — декларативная политика одного роута.
type Config struct {
	Origin bool        // same-origin проверка до любой мутирующей логики
	Rate   *RateConfig // nil — без троттлинга
	Audit  bool        // писать ERROR-событие аудита при сбое 5xx
}

// Throttler — контракт rate limiter'а (см. internal/ratelimit).
type Throttler interface {
	Throttle(ctx context.Context, key ratelimit.Key, cfg ratelimit.Config) error
}

// IdentityResolver резолвит администратора из запроса.
type IdentityResolver interface {
	ResolveAdmin(r *http.Request) (domain.AdminIdentity, error)
}

// Auditor — error-путь журнала аудита. Best-effort: реализация обязана
// гасить собственные сбои.
type Auditor interface {
	RecordError(ctx context.Context, actor, subject, message string, details map[string]any)
}

// HandlerFunc — защищённый обработчик. Резолвнутый администратор и
// JSON-хелпер приходят через Helpers; ошибка конвертируется guard'ом
// в стандартный ответ.
type HandlerFunc func(r *http.Request, h *Helpers) error

// Helpers передаются обработчику после прохождения пайплайна.
type Helpers struct {
	Admin domain.AdminIdentity

	w     http.ResponseWriter
	wrote bool
}

// JSON пишет ответ со стандартными заголовками безопасности.
func (h *Helpers) JSON(data any, status int) error {
	h.wrote = true
	writeJSON(h.w, status, data)
	return nil
}

// Guard — композиция этапов вокруг обработчика. Порядок фиксирован:
// origin → rate → identity → handler; первый отказ обрывает цепочку.
type Guard struct {
	origins  *OriginVerifier
	limiter  Throttler
	identity IdentityResolver
	auditor  Auditor
	metrics  *Metrics
	logger   *zap.Logger
}

func New(origins *OriginVerifier, limiter Throttler, identity IdentityResolver, auditor Auditor, metrics *Metrics, logger *zap.Logger) *Guard {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Guard{
		origins:  origins,
		limiter:  limiter,
		identity: identity,
		auditor:  auditor,
		metrics:  metrics,
		logger:   logger.Named("guard"),
	}
}

// Именованный этап пайплайна. Каждый этап тестируется отдельно,
// композиция — фиксированный редьюсер в Wrap.
type stage struct {
	name string
	run  func(r *http.Request, st *requestState) error
}

type requestState struct {
	admin domain.AdminIdentity
}

func (g *Guard) buildStages(scope string, cfg Config) []stage {
	stages := make([]stage, 0, 3)

	if cfg.Origin {
		stages = append(stages, stage{"origin", func(r *http.Request, _ *requestState) error {
			return g.origins.Verify(r)
		}})
	}

	if cfg.Rate != nil {
		rc := ratelimit.Config{Window: cfg.Rate.Window, Limit: cfg.Rate.Limit}
		stages = append(stages, stage{"rate", func(r *http.Request, _ *requestState) error {
			key := ratelimit.Key{Scope: scope, Subject: ClientIP(r)}
			return g.limiter.Throttle(r.Context(), key, rc)
		}})
	}

	// Identity выполняется всегда: каждый защищённый роут требует админа
	stages = append(stages, stage{"identity", func(r *http.Request, st *requestState) error {
		admin, err := g.identity.ResolveAdmin(r)
		if err != nil {
			return err
		}
		st.admin = admin
		return nil
	}})

	return stages
}

// Wrap оборачивает обработчик в guard-пайплайн. Scope — имя роута,
// оно же namespace ключей квот и subject событий аудита.
func (g *Guard) Wrap(scope string, cfg Config, handler HandlerFunc) http.HandlerFunc {
	stages := g.buildStages(scope, cfg)

	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		st := &requestState{}

		outcome := "ok"
		var failed error
		for _, s := range stages {
			if err := s.run(r, st); err != nil {
				outcome, failed = s.name, err
				break
			}
		}

		var helpers *Helpers
		if failed == nil {
			helpers = &Helpers{Admin: st.admin, w: w}
			if err := handler(r, helpers); err != nil {
				outcome, failed = "handler", err
			}
		}

		if failed != nil {
			alreadyWrote := helpers != nil && helpers.wrote
			g.respondError(w, r, scope, cfg, st.admin, failed, alreadyWrote)
		}

		g.metrics.Decisions.WithLabelValues(scope, outcome).Inc()
		g.metrics.RequestDuration.WithLabelValues(scope, outcome).Observe(time.Since(start).Seconds())
	}
}

func (g *Guard) respondError(w http.ResponseWriter, r *http.Request, scope string, cfg Config, admin domain.AdminIdentity, err error, alreadyWrote bool) {
	ae := apierr.Classify(err)

	if ae.Status >= 500 {
		// Полная причина — только в серверный лог, клиенту уходит generic
		g.logger.Error("request failed",
			zap.String("scope", scope),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}

	if cfg.Audit && ae.Status >= 500 {
		actor := audit.SystemActor
		if admin.ID != "" {
			actor = admin.ID
		}
		g.auditor.RecordError(r.Context(), actor, scope, ae.Message, ae.Details)
	}

	// Если обработчик уже начал писать ответ, второй WriteHeader невозможен
	if alreadyWrote {
		return
	}
	writeJSON(w, ae.Status, ae.Body())
}

func applySecurityHeaders(h http.Header) {
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("Referrer-Policy", "same-origin")
	h.Set("Cache-Control", "no-store")
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	applySecurityHeaders(w.Header())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
