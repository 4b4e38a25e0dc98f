package handler

import (
	"net/http"

	"github.com/mysched/admin-console/internal/audit"
	"github.com/mysched/admin-console/internal/console/service"
	"github.com/mysched/admin-console/internal/domain"
	"github.com/mysched/admin-console/internal/guard"
)

type ClassHandler struct {
	service *service.ScheduleService
	trail   Recorder
}

func NewClassHandler(s *service.ScheduleService, trail Recorder) *ClassHandler {
	return &ClassHandler{service: s, trail: trail}
}

// List поддерживает фильтры ?section_id=<id|all> и ?include_archived=true.
func (h *ClassHandler) List(r *http.Request, g *guard.Helpers) error {
	sectionID, err := queryInt64(r, "section_id")
	if err != nil {
		return err
	}
	includeArchived := r.URL.Query().Get("include_archived") == "true"

	classes, err := h.service.ListClasses(r.Context(), sectionID, includeArchived)
	if err != nil {
		return err
	}
	return g.JSON(classes, http.StatusOK)
}

func (h *ClassHandler) Get(r *http.Request, g *guard.Helpers) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	class, err := h.service.GetClass(r.Context(), id)
	if err != nil {
		return err
	}
	return g.JSON(class, http.StatusOK)
}

func (h *ClassHandler) Create(r *http.Request, g *guard.Helpers) error {
	var in domain.ClassInput
	if err := decodeJSON(r, &in); err != nil {
		return err
	}

	created, err := h.service.CreateClass(r.Context(), in)
	if err != nil {
		return err
	}

	h.trail.Record(r.Context(), g.Admin.ID, "classes", audit.ActionInsert, formatID(created.ID), toDetails(in))
	return g.JSON(created, http.StatusCreated)
}

// Update пишет в аудит diff-контекст: состояние до и после правки.
func (h *ClassHandler) Update(r *http.Request, g *guard.Helpers) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var in domain.ClassInput
	if err := decodeJSON(r, &in); err != nil {
		return err
	}

	before, err := h.service.GetClass(r.Context(), id)
	if err != nil {
		return err
	}
	updated, err := h.service.UpdateClass(r.Context(), id, in)
	if err != nil {
		return err
	}

	h.trail.Record(r.Context(), g.Admin.ID, "classes", audit.ActionUpdate, formatID(id), map[string]any{
		"before": toDetails(before),
		"after":  toDetails(updated),
	})
	return g.JSON(updated, http.StatusOK)
}

// Archive — мягкое удаление занятия.
func (h *ClassHandler) Archive(r *http.Request, g *guard.Helpers) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}

	if err := h.service.ArchiveClass(r.Context(), id); err != nil {
		return err
	}

	h.trail.Record(r.Context(), g.Admin.ID, "classes", audit.ActionDelete, formatID(id), nil)
	return g.JSON(map[string]bool{"ok": true}, http.StatusOK)
}
