package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mysched/admin-console/internal/domain"
)

// AdminRepo — allow-list администраторов и их учётные данные.
type AdminRepo struct {
	pool *pgxpool.Pool
}

func NewAdminRepo(pool *pgxpool.Pool) *AdminRepo {
	return &AdminRepo{pool: pool}
}

// GetAdminByEmail возвращает (nil, nil), если администратора нет —
// различение «нет строки» и «ошибка БД» остаётся за вызывающим.
func (r *AdminRepo) GetAdminByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	query := `
		SELECT user_id, email, password_hash, created_at
		FROM admins WHERE lower(email) = lower($1)`

	a := &domain.Admin{}
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&a.UserID, &a.Email, &a.PasswordHash, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("postgres: admin lookup failed: %w", err)
	}
	return a, nil
}

// IsAdmin — проверка членства для identity-этапа guard'а.
func (r *AdminRepo) IsAdmin(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM admins WHERE user_id = $1)`, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("postgres: admin check failed: %w", err)
	}
	return exists, nil
}
