package handler

import (
	"net/http"

	"github.com/mysched/admin-console/internal/audit"
	"github.com/mysched/admin-console/internal/console/service"
	"github.com/mysched/admin-console/internal/domain"
	"github.com/mysched/admin-console/internal/guard"
)

type SemesterHandler struct {
	service *service.ScheduleService
	trail   Recorder
}

func NewSemesterHandler(s *service.ScheduleService, trail Recorder) *SemesterHandler {
	return &SemesterHandler{service: s, trail: trail}
}

func (h *SemesterHandler) List(r *http.Request, g *guard.Helpers) error {
	semesters, err := h.service.ListSemesters(r.Context())
	if err != nil {
		return err
	}
	return g.JSON(semesters, http.StatusOK)
}

func (h *SemesterHandler) Create(r *http.Request, g *guard.Helpers) error {
	var in domain.SemesterInput
	if err := decodeJSON(r, &in); err != nil {
		return err
	}

	created, err := h.service.CreateSemester(r.Context(), in)
	if err != nil {
		return err
	}

	h.trail.Record(r.Context(), g.Admin.ID, "semesters", audit.ActionInsert, formatID(created.ID), toDetails(in))
	return g.JSON(created, http.StatusCreated)
}

func (h *SemesterHandler) Update(r *http.Request, g *guard.Helpers) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var in domain.SemesterInput
	if err := decodeJSON(r, &in); err != nil {
		return err
	}

	updated, err := h.service.UpdateSemester(r.Context(), id, in)
	if err != nil {
		return err
	}

	h.trail.Record(r.Context(), g.Admin.ID, "semesters", audit.ActionUpdate, formatID(id), map[string]any{
		"after": toDetails(updated),
	})
	return g.JSON(updated, http.StatusOK)
}

func (h *SemesterHandler) Delete(r *http.Request, g *guard.Helpers) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}

	if err := h.service.DeleteSemester(r.Context(), id); err != nil {
		return err
	}

	h.trail.Record(r.Context(), g.Admin.ID, "semesters", audit.ActionDelete, formatID(id), nil)
	return g.JSON(map[string]bool{"ok": true}, http.StatusOK)
}
