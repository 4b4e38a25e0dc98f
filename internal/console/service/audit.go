package service

import (
	"context"
	"fmt"

	"github.com/mysched/admin-console/internal/audit"
	"github.com/mysched/admin-console/internal/repository/postgres"
)

// AuditLogProvider описывает контракт для чтения журнала аудита.
// Используем модель Event из пакета audit, чтобы сохранить единую модель данных.
type AuditLogProvider interface {
	List(ctx context.Context, f postgres.AuditFilter) ([]audit.Event, error)
}

type AuditService struct {
	repo AuditLogProvider
}

func NewAuditService(repo AuditLogProvider) *AuditService {
	return &AuditService{repo: repo}
}

// FetchLogs запрашивает события с фильтрацией по актору и subject'у.
func (s *AuditService) FetchLogs(ctx context.Context, actor, subject string, limit, offset int) ([]audit.Event, error) {
	logs, err := s.repo.List(ctx, postgres.AuditFilter{
		Actor:   actor,
		Subject: subject,
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		return nil, fmt.Errorf("audit_service: failed to fetch logs: %w", err)
	}
	return logs, nil
}
