package service

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// ComponentStatus — здоровье одной внешней зависимости консоли.
type ComponentStatus struct {
	OK        bool   `json:"ok"`
	LatencyMs int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// StatusReport отдаётся в статус-бар админки.
type StatusReport struct {
	OK         bool                       `json:"ok"`
	Components map[string]ComponentStatus `json:"components"`
}

type StatusService struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
}

func NewStatusService(pool *pgxpool.Pool, rdb *redis.Client) *StatusService {
	return &StatusService{pool: pool, rdb: rdb}
}

// Check пингует Postgres и Redis с коротким таймаутом на каждый.
// Нездоровая зависимость — это данные отчёта, а не ошибка запроса.
func (s *StatusService) Check(ctx context.Context) *StatusReport {
	report := &StatusReport{
		OK:         true,
		Components: make(map[string]ComponentStatus, 2),
	}

	report.Components["postgres"] = s.ping(ctx, func(ctx context.Context) error {
		return s.pool.Ping(ctx)
	})
	report.Components["redis"] = s.ping(ctx, func(ctx context.Context) error {
		return s.rdb.Ping(ctx).Err()
	})

	for _, c := range report.Components {
		if !c.OK {
			report.OK = false
		}
	}
	return report
}

func (s *StatusService) ping(ctx context.Context, probe func(context.Context) error) ComponentStatus {
	ctx, cancel := context.WithTimeout(ctx, 1500*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := probe(ctx)
	status := ComponentStatus{
		OK:        err == nil,
		LatencyMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		status.Error = err.Error()
	}
	return status
}
