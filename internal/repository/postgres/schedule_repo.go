package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mysched/admin-console/internal/domain"
)

// ScheduleRepo — CRUD по сущностям расписания: семестры, группы, занятия.
type ScheduleRepo struct {
	pool *pgxpool.Pool
}

func NewScheduleRepo(pool *pgxpool.Pool) *ScheduleRepo {
	return &ScheduleRepo{pool: pool}
}

// --- Семестры ---

func (r *ScheduleRepo) ListSemesters(ctx context.Context) ([]domain.Semester, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, code, name, is_active, created_at, updated_at
		FROM semesters ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list semesters: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Semester, 0)
	for rows.Next() {
		var s domain.Semester
		if err := rows.Scan(&s.ID, &s.Code, &s.Name, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *ScheduleRepo) CreateSemester(ctx context.Context, in domain.SemesterInput) (*domain.Semester, error) {
	s := &domain.Semester{}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO semesters (code, name, is_active)
		VALUES ($1, $2, $3)
		RETURNING id, code, name, is_active, created_at, updated_at`,
		in.Code, in.Name, in.IsActive,
	).Scan(&s.ID, &s.Code, &s.Name, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return s, nil
}

func (r *ScheduleRepo) UpdateSemester(ctx context.Context, id int64, in domain.SemesterInput) (*domain.Semester, error) {
	s := &domain.Semester{}
	err := r.pool.QueryRow(ctx, `
		UPDATE semesters SET code = $1, name = $2, is_active = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING id, code, name, is_active, created_at, updated_at`,
		in.Code, in.Name, in.IsActive, id,
	).Scan(&s.ID, &s.Code, &s.Name, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("Semester")
		}
		return nil, mapError(err)
	}
	return s, nil
}

func (r *ScheduleRepo) DeleteSemester(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM semesters WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("Semester")
	}
	return nil
}

// GetActiveSemesterID возвращает (0, nil), если активного семестра нет.
func (r *ScheduleRepo) GetActiveSemesterID(ctx context.Context) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `SELECT id FROM semesters WHERE is_active LIMIT 1`).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("postgres: active semester lookup: %w", err)
	}
	return id, nil
}

// --- Группы ---

// ListSections отдаёт группы с количеством неархивированных занятий.
func (r *ScheduleRepo) ListSections(ctx context.Context, semesterID *int64) ([]domain.Section, error) {
	query := `
		SELECT s.id, s.code, s.semester_id, s.created_at, s.updated_at,
		       COUNT(c.id) FILTER (WHERE c.archived_at IS NULL) AS class_count
		FROM sections s
		LEFT JOIN classes c ON c.section_id = s.id
		WHERE ($1::bigint IS NULL OR s.semester_id = $1)
		GROUP BY s.id
		ORDER BY s.code`

	rows, err := r.pool.Query(ctx, query, semesterID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list sections: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Section, 0)
	for rows.Next() {
		var s domain.Section
		if err := rows.Scan(&s.ID, &s.Code, &s.SemesterID, &s.CreatedAt, &s.UpdatedAt, &s.ClassCount); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *ScheduleRepo) CreateSection(ctx context.Context, code string, semesterID *int64) (*domain.Section, error) {
	s := &domain.Section{}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO sections (code, semester_id)
		VALUES ($1, $2)
		RETURNING id, code, semester_id, created_at, updated_at`,
		code, semesterID,
	).Scan(&s.ID, &s.Code, &s.SemesterID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return s, nil
}

func (r *ScheduleRepo) UpdateSection(ctx context.Context, id int64, code string, semesterID *int64) (*domain.Section, error) {
	s := &domain.Section{}
	err := r.pool.QueryRow(ctx, `
		UPDATE sections SET code = $1, semester_id = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING id, code, semester_id, created_at, updated_at`,
		code, semesterID, id,
	).Scan(&s.ID, &s.Code, &s.SemesterID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("Section")
		}
		return nil, mapError(err)
	}
	return s, nil
}

func (r *ScheduleRepo) DeleteSection(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sections WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("Section")
	}
	return nil
}

// --- Занятия ---

const classColumns = `id, code, title, section_id, instructor, days, starts_at, ends_at, room, archived_at, created_at, updated_at`

func scanClass(row pgx.Row) (*domain.Class, error) {
	c := &domain.Class{}
	err := row.Scan(
		&c.ID, &c.Code, &c.Title, &c.SectionID, &c.Instructor,
		&c.Days, &c.StartsAt, &c.EndsAt, &c.Room,
		&c.ArchivedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *ScheduleRepo) ListClasses(ctx context.Context, sectionID *int64, includeArchived bool) ([]domain.Class, error) {
	query := `
		SELECT ` + classColumns + `
		FROM classes
		WHERE ($1::bigint IS NULL OR section_id = $1)
		  AND ($2 OR archived_at IS NULL)
		ORDER BY code`

	rows, err := r.pool.Query(ctx, query, sectionID, includeArchived)
	if err != nil {
		return nil, fmt.Errorf("postgres: list classes: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Class, 0)
	for rows.Next() {
		var c domain.Class
		if err := rows.Scan(
			&c.ID, &c.Code, &c.Title, &c.SectionID, &c.Instructor,
			&c.Days, &c.StartsAt, &c.EndsAt, &c.Room,
			&c.ArchivedAt, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *ScheduleRepo) GetClass(ctx context.Context, id int64) (*domain.Class, error) {
	c, err := scanClass(r.pool.QueryRow(ctx,
		`SELECT `+classColumns+` FROM classes WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("Class")
		}
		return nil, fmt.Errorf("postgres: get class: %w", err)
	}
	return c, nil
}

func (r *ScheduleRepo) CreateClass(ctx context.Context, in domain.ClassInput) (*domain.Class, error) {
	c, err := scanClass(r.pool.QueryRow(ctx, `
		INSERT INTO classes (code, title, section_id, instructor, days, starts_at, ends_at, room)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+classColumns,
		in.Code, in.Title, in.SectionID, in.Instructor, in.Days, in.StartsAt, in.EndsAt, in.Room,
	))
	if err != nil {
		return nil, mapError(err)
	}
	return c, nil
}

func (r *ScheduleRepo) UpdateClass(ctx context.Context, id int64, in domain.ClassInput) (*domain.Class, error) {
	c, err := scanClass(r.pool.QueryRow(ctx, `
		UPDATE classes
		SET code = $1, title = $2, section_id = $3, instructor = $4,
		    days = $5, starts_at = $6, ends_at = $7, room = $8, updated_at = NOW()
		WHERE id = $9 AND archived_at IS NULL
		RETURNING `+classColumns,
		in.Code, in.Title, in.SectionID, in.Instructor, in.Days, in.StartsAt, in.EndsAt, in.Room, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("Class")
		}
		return nil, mapError(err)
	}
	return c, nil
}

// ArchiveClass — мягкое удаление: строка остаётся для истории аудита.
func (r *ScheduleRepo) ArchiveClass(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE classes SET archived_at = NOW() WHERE id = $1 AND archived_at IS NULL`, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("Class")
	}
	return nil
}
