package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mysched/admin-console/internal/audit"
)

// AuditRepo — персистентный синк журнала аудита. Таблица append-only:
// ни UPDATE, ни DELETE путей здесь нет.
type AuditRepo struct {
	pool *pgxpool.Pool
}

func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

// WriteBatch сохраняет пачку событий одним COPY.
func (r *AuditRepo) WriteBatch(ctx context.Context, events []audit.Event) error {
	if len(events) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(events))
	for _, e := range events {
		var details []byte
		if e.Details != nil {
			details, _ = json.Marshal(e.Details)
		}
		rows = append(rows, []any{
			e.ID, e.TraceID, e.Actor, e.Subject, e.Action, e.RowID, e.Message, details, e.Timestamp,
		})
	}

	_, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"audit_log"},
		[]string{"id", "trace_id", "actor", "subject", "action", "row_id", "message", "details", "at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("postgres: audit batch insert failed: %w", err)
	}
	return nil
}

// AuditFilter — параметры выборки журнала.
type AuditFilter struct {
	Actor   string
	Subject string
	Limit   int
	Offset  int
}

// List возвращает события, свежие сверху.
func (r *AuditRepo) List(ctx context.Context, f AuditFilter) ([]audit.Event, error) {
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 100
	}

	query := `
		SELECT id, trace_id, actor, subject, action, row_id, message, details, at
		FROM audit_log
		WHERE ($1 = '' OR actor = $1)
		  AND ($2 = '' OR subject = $2)
		ORDER BY at DESC
		LIMIT $3 OFFSET $4`

	rows, err := r.pool.Query(ctx, query, f.Actor, f.Subject, f.Limit, f.Offset)
	if err != nil {
		return nil, fmt.Errorf("postgres: list audit events: %w", err)
	}
	defer rows.Close()

	out := make([]audit.Event, 0)
	for rows.Next() {
		var e audit.Event
		var details []byte
		if err := rows.Scan(&e.ID, &e.TraceID, &e.Actor, &e.Subject, &e.Action, &e.RowID, &e.Message, &details, &e.Timestamp); err != nil {
			return nil, err
		}
		if len(details) > 0 {
			_ = json.Unmarshal(details, &e.Details)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
