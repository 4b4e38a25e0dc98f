package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mysched/admin-console/internal/apierr"
	"github.com/mysched/admin-console/internal/console/handler"
	"github.com/mysched/admin-console/internal/guard"
	"github.com/mysched/admin-console/internal/infra"
	"github.com/mysched/admin-console/internal/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type ConsoleServer struct {
	router *chi.Mux
	logger *zap.Logger
	cfg    *infra.Config

	// Guard-пайплайн: origin → rate → identity вокруг каждого /api роута
	guard   *guard.Guard
	origins *guard.OriginVerifier
	limiter guard.Throttler
	metrics prometheus.Gatherer

	// Обработчики бизнес-доменов
	authHandler     *handler.AuthHandler     // /auth/session
	semesterHandler *handler.SemesterHandler // /api/semesters
	sectionHandler  *handler.SectionHandler  // /api/sections
	classHandler    *handler.ClassHandler    // /api/classes
	auditHandler    *handler.AuditHandler    // /api/audit
	statusHandler   *handler.StatusHandler   // /api/status
	webhookHandler  *handler.WebhookHandler  // /api/settings/test-webhook
}

// NewConsoleServer инициализирует сервер админки со всеми зависимостями
func NewConsoleServer(
	cfg *infra.Config,
	logger *zap.Logger,
	g *guard.Guard,
	origins *guard.OriginVerifier,
	limiter guard.Throttler,
	gatherer prometheus.Gatherer,
	authH *handler.AuthHandler,
	semesterH *handler.SemesterHandler,
	sectionH *handler.SectionHandler,
	classH *handler.ClassHandler,
	auditH *handler.AuditHandler,
	statusH *handler.StatusHandler,
	webhookH *handler.WebhookHandler,
) *ConsoleServer {
	s := &ConsoleServer{
		router:          chi.NewRouter(),
		logger:          logger.Named("console-api"),
		cfg:             cfg,
		guard:           g,
		origins:         origins,
		limiter:         limiter,
		metrics:         gatherer,
		authHandler:     authH,
		semesterHandler: semesterH,
		sectionHandler:  sectionH,
		classHandler:    classH,
		auditHandler:    auditH,
		statusHandler:   statusH,
		webhookHandler:  webhookH,
	}

	s.routes()
	return s
}

func (s *ConsoleServer) routes() {
	r := s.router

	// --- 1. Глобальные инфраструктурные Middleware (для всех) ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(infra.TraceMiddleware)
	r.Use(middleware.Recoverer)

	// Политика мутирующих роутов: same-origin + квота + аудит ошибок
	mutating := guard.Config{
		Origin: true,
		Rate:   &guard.RateConfig{Window: s.cfg.Guard.RateWindow, Limit: s.cfg.Guard.RateLimit},
		Audit:  true,
	}
	// Чтение дешевле: без origin-проверки и без квоты
	reading := guard.Config{Audit: true}

	// --- 2. ПУБЛИЧНЫЕ РОУТЫ (Открыты для всех) ---
	r.Group(func(r chi.Router) {
		// Логин доступен без сессии, но под same-origin и квотой
		r.Post("/auth/session", s.public("auth.login", s.authHandler.Login))
		r.Post("/auth/logout", s.public("auth.logout", s.authHandler.Logout))

		// Healthcheck для мониторинга
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics, promhttp.HandlerOpts{}))
	})

	// --- 3. ЗАЩИЩЕННЫЙ ПЕРИМЕТР (Требуют админской сессии) ---
	r.Group(func(r chi.Router) {
		r.Get("/api/whoami", s.guard.Wrap("whoami", reading, s.authHandler.Whoami))

		// Расписание: семестры → потоки → занятия
		r.Route("/api/semesters", func(r chi.Router) {
			r.Get("/", s.guard.Wrap("semesters.list", reading, s.semesterHandler.List))
			r.Post("/", s.guard.Wrap("semesters.create", mutating, s.semesterHandler.Create))
			r.Put("/{id}", s.guard.Wrap("semesters.update", mutating, s.semesterHandler.Update))
			r.Delete("/{id}", s.guard.Wrap("semesters.delete", mutating, s.semesterHandler.Delete))
		})

		r.Route("/api/sections", func(r chi.Router) {
			r.Get("/", s.guard.Wrap("sections.list", reading, s.sectionHandler.List))
			r.Post("/", s.guard.Wrap("sections.create", mutating, s.sectionHandler.Create))
			r.Put("/{id}", s.guard.Wrap("sections.update", mutating, s.sectionHandler.Update))
			r.Delete("/{id}", s.guard.Wrap("sections.delete", mutating, s.sectionHandler.Delete))
		})

		r.Route("/api/classes", func(r chi.Router) {
			r.Get("/", s.guard.Wrap("classes.list", reading, s.classHandler.List))
			r.Post("/", s.guard.Wrap("classes.create", mutating, s.classHandler.Create))
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.guard.Wrap("classes.get", reading, s.classHandler.Get))
				r.Put("/", s.guard.Wrap("classes.update", mutating, s.classHandler.Update))
				r.Post("/archive", s.guard.Wrap("classes.archive", mutating, s.classHandler.Archive))
			})
		})

		// Аудит и статусы (Observability)
		r.Get("/api/audit", s.guard.Wrap("audit.list", reading, s.auditHandler.GetLogs))
		r.Get("/api/status", s.guard.Wrap("status", reading, s.statusHandler.Get))
		r.Post("/api/settings/test-webhook", s.guard.Wrap("settings.test-webhook", mutating, s.webhookHandler.Test))
	})
}

// public оборачивает роуты без сессии в усечённый периметр:
// same-origin проверка и квота по IP, но без резолвинга администратора.
func (s *ConsoleServer) public(scope string, h func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	rc := ratelimit.Config{Window: s.cfg.Guard.RateWindow, Limit: s.cfg.Guard.RateLimit}

	return func(w http.ResponseWriter, r *http.Request) {
		err := s.origins.Verify(r)
		if err == nil {
			key := ratelimit.Key{Scope: scope, Subject: guard.ClientIP(r)}
			err = s.limiter.Throttle(r.Context(), key, rc)
		}
		if err == nil {
			err = h(w, r)
		}
		if err != nil {
			ae := apierr.Classify(err)
			if ae.Status >= 500 {
				s.logger.Error("public route failed",
					zap.String("scope", scope),
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
			}
			_ = handler.WriteJSON(w, ae.Body(), ae.Status)
		}
	}
}

// ServeHTTP позволяет использовать ConsoleServer как стандартный http.Handler
func (s *ConsoleServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
