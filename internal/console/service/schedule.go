package service

import (
	"context"
	"strings"

	"github.com/mysched/admin-console/internal/apierr"
	"github.com/mysched/admin-console/internal/domain"
)

// ScheduleRepository описывает требования к хранилищу расписания.
type ScheduleRepository interface {
	ListSemesters(ctx context.Context) ([]domain.Semester, error)
	CreateSemester(ctx context.Context, in domain.SemesterInput) (*domain.Semester, error)
	UpdateSemester(ctx context.Context, id int64, in domain.SemesterInput) (*domain.Semester, error)
	DeleteSemester(ctx context.Context, id int64) error
	GetActiveSemesterID(ctx context.Context) (int64, error)

	ListSections(ctx context.Context, semesterID *int64) ([]domain.Section, error)
	CreateSection(ctx context.Context, code string, semesterID *int64) (*domain.Section, error)
	UpdateSection(ctx context.Context, id int64, code string, semesterID *int64) (*domain.Section, error)
	DeleteSection(ctx context.Context, id int64) error

	ListClasses(ctx context.Context, sectionID *int64, includeArchived bool) ([]domain.Class, error)
	GetClass(ctx context.Context, id int64) (*domain.Class, error)
	CreateClass(ctx context.Context, in domain.ClassInput) (*domain.Class, error)
	UpdateClass(ctx context.Context, id int64, in domain.ClassInput) (*domain.Class, error)
	ArchiveClass(ctx context.Context, id int64) error
}

type ScheduleService struct {
	repo ScheduleRepository
}

func NewScheduleService(repo ScheduleRepository) *ScheduleService {
	return &ScheduleService{repo: repo}
}

// --- Семестры ---

func (s *ScheduleService) ListSemesters(ctx context.Context) ([]domain.Semester, error) {
	return s.repo.ListSemesters(ctx)
}

func (s *ScheduleService) CreateSemester(ctx context.Context, in domain.SemesterInput) (*domain.Semester, error) {
	if err := validateSemester(&in); err != nil {
		return nil, err
	}
	return s.repo.CreateSemester(ctx, in)
}

func (s *ScheduleService) UpdateSemester(ctx context.Context, id int64, in domain.SemesterInput) (*domain.Semester, error) {
	if err := validateSemester(&in); err != nil {
		return nil, err
	}
	return s.repo.UpdateSemester(ctx, id, in)
}

func (s *ScheduleService) DeleteSemester(ctx context.Context, id int64) error {
	return s.repo.DeleteSemester(ctx, id)
}

func validateSemester(in *domain.SemesterInput) error {
	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	if in.Code == "" {
		return apierr.Validation("Code is required.")
	}
	if len(in.Code) > 40 {
		return apierr.Validation("Code exceeds 40 characters.")
	}
	if in.Name == "" {
		return apierr.Validation("Name is required.")
	}
	return nil
}

// --- Группы ---

func (s *ScheduleService) ListSections(ctx context.Context, semesterID *int64) ([]domain.Section, error) {
	return s.repo.ListSections(ctx, semesterID)
}

func (s *ScheduleService) CreateSection(ctx context.Context, in domain.SectionInput) (*domain.Section, error) {
	code, err := normalizeSectionCode(in.Code)
	if err != nil {
		return nil, err
	}
	semesterID, err := s.resolveSemester(ctx, in.SemesterID)
	if err != nil {
		return nil, err
	}
	return s.repo.CreateSection(ctx, code, semesterID)
}

func (s *ScheduleService) UpdateSection(ctx context.Context, id int64, in domain.SectionInput) (*domain.Section, error) {
	code, err := normalizeSectionCode(in.Code)
	if err != nil {
		return nil, err
	}
	return s.repo.UpdateSection(ctx, id, code, in.SemesterID)
}

func (s *ScheduleService) DeleteSection(ctx context.Context, id int64) error {
	return s.repo.DeleteSection(ctx, id)
}

// resolveSemester подставляет активный семестр, если он не указан явно.
// Отсутствие активного семестра не ошибка: группа остаётся без привязки.
func (s *ScheduleService) resolveSemester(ctx context.Context, explicit *int64) (*int64, error) {
	if explicit != nil {
		return explicit, nil
	}
	active, err := s.repo.GetActiveSemesterID(ctx)
	if err != nil {
		return nil, err
	}
	if active == 0 {
		return nil, nil
	}
	return &active, nil
}

// normalizeSectionCode: trim, схлопывание пробелов, верхний регистр —
// "cs  101a" и "CS 101A" это одна и та же группа.
func normalizeSectionCode(code string) (string, error) {
	code = strings.Join(strings.Fields(code), " ")
	if code == "" {
		return "", apierr.Validation("Code is required.")
	}
	if len(code) > 40 {
		return "", apierr.Validation("Code exceeds 40 characters.")
	}
	return strings.ToUpper(code), nil
}

// --- Занятия ---

func (s *ScheduleService) ListClasses(ctx context.Context, sectionID *int64, includeArchived bool) ([]domain.Class, error) {
	return s.repo.ListClasses(ctx, sectionID, includeArchived)
}

func (s *ScheduleService) GetClass(ctx context.Context, id int64) (*domain.Class, error) {
	return s.repo.GetClass(ctx, id)
}

func (s *ScheduleService) CreateClass(ctx context.Context, in domain.ClassInput) (*domain.Class, error) {
	if err := validateClass(&in); err != nil {
		return nil, err
	}
	return s.repo.CreateClass(ctx, in)
}

func (s *ScheduleService) UpdateClass(ctx context.Context, id int64, in domain.ClassInput) (*domain.Class, error) {
	if err := validateClass(&in); err != nil {
		return nil, err
	}
	return s.repo.UpdateClass(ctx, id, in)
}

func (s *ScheduleService) ArchiveClass(ctx context.Context, id int64) error {
	return s.repo.ArchiveClass(ctx, id)
}

func validateClass(in *domain.ClassInput) error {
	in.Code = strings.TrimSpace(in.Code)
	in.Title = strings.TrimSpace(in.Title)
	if in.Code == "" {
		return apierr.Validation("Code is required.")
	}
	if in.Title == "" {
		return apierr.Validation("Title is required.")
	}
	if (in.StartsAt == "") != (in.EndsAt == "") {
		return apierr.Validation("Both starts_at and ends_at are required when one is set.")
	}
	return nil
}
