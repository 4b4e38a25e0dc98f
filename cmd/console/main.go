package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mysched/admin-console/internal/audit"
	"github.com/mysched/admin-console/internal/console/handler"
	"github.com/mysched/admin-console/internal/console/server"
	"github.com/mysched/admin-console/internal/console/service"
	"github.com/mysched/admin-console/internal/guard"
	"github.com/mysched/admin-console/internal/infra"
	"github.com/mysched/admin-console/internal/infra/auth"
	"github.com/mysched/admin-console/internal/ratelimit"
	"github.com/mysched/admin-console/internal/repository/postgres"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// 1. Конфигурация и логгер
	cfg, err := infra.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// 2. Инфраструктура и ресурсы
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("database unreachable", zap.Error(err))
	}
	cancel()
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel = context.WithTimeout(context.Background(), 3*time.Second)
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("redis unreachable", zap.Error(err))
	}
	cancel()
	defer rdb.Close()

	// RS256 ключи для сессионных токенов
	pubKey, err := auth.ParseRSAPublicKey(cfg.Auth.PublicKey)
	if err != nil {
		logger.Fatal("auth public key", zap.Error(err))
	}
	privKey, err := auth.ParseRSAPrivateKey(cfg.Auth.PrivateKey)
	if err != nil {
		logger.Fatal("auth private key", zap.Error(err))
	}
	codec := auth.NewSessionCodec(pubKey, privKey, cfg.Auth.SessionTTL)

	// 3. Репозитории и метрики
	adminRepo := postgres.NewAdminRepo(pool)
	scheduleRepo := postgres.NewScheduleRepo(pool)
	auditRepo := postgres.NewAuditRepo(pool)

	reg := prometheus.NewRegistry()
	metrics := guard.NewMetrics(reg)

	// Журнал аудита: события уходят в Postgres пачками
	trail := audit.NewTrail(auditRepo, logger, cfg.Audit.BufferSize, cfg.Audit.FlushInterval, metrics.AuditBufferFill)
	trail.Start()
	defer trail.Stop()

	// 4. Guard-пайплайн (origin → rate → identity)
	limiter := ratelimit.New(ratelimit.NewRedisStore(rdb, infra.RedisKeyRateLimit), logger)
	authService := service.NewAuthService(adminRepo, codec, rdb, logger)
	resolver := guard.NewSessionResolver(cfg.Auth.SessionCookie, codec, adminRepo, authService, logger)
	origins := guard.NewOriginVerifier(cfg.Guard.AllowedOrigins)
	g := guard.New(origins, limiter, resolver, trail, metrics, logger)

	// 5. Сервисы и обработчики (Dependency Injection)
	scheduleService := service.NewScheduleService(scheduleRepo)
	auditService := service.NewAuditService(auditRepo)
	statusService := service.NewStatusService(pool, rdb)
	prober := service.NewProber(cfg.Webhook, logger)

	srv := server.NewConsoleServer(
		cfg,
		logger,
		g,
		origins,
		limiter,
		reg,
		handler.NewAuthHandler(authService, cfg.Auth),
		handler.NewSemesterHandler(scheduleService, trail),
		handler.NewSectionHandler(scheduleService, trail),
		handler.NewClassHandler(scheduleService, trail),
		handler.NewAuditHandler(auditService),
		handler.NewStatusHandler(statusService),
		handler.NewWebhookHandler(prober),
	)

	httpSrv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      srv,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 6. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("console started", zap.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	<-stop
	logger.Info("console stopping")

	// Даем 5 секунд на завершение запросов
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
	logger.Info("console exited")
}
