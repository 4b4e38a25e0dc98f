package handler

import (
	"net/http"

	"github.com/mysched/admin-console/internal/audit"
	"github.com/mysched/admin-console/internal/console/service"
	"github.com/mysched/admin-console/internal/domain"
	"github.com/mysched/admin-console/internal/guard"
)

type SectionHandler struct {
	service *service.ScheduleService
	trail   Recorder
}

func NewSectionHandler(s *service.ScheduleService, trail Recorder) *SectionHandler {
	return &SectionHandler{service: s, trail: trail}
}

// List поддерживает фильтр ?semester_id=<id|all>.
func (h *SectionHandler) List(r *http.Request, g *guard.Helpers) error {
	semesterID, err := queryInt64(r, "semester_id")
	if err != nil {
		return err
	}

	sections, err := h.service.ListSections(r.Context(), semesterID)
	if err != nil {
		return err
	}
	return g.JSON(sections, http.StatusOK)
}

func (h *SectionHandler) Create(r *http.Request, g *guard.Helpers) error {
	var in domain.SectionInput
	if err := decodeJSON(r, &in); err != nil {
		return err
	}

	created, err := h.service.CreateSection(r.Context(), in)
	if err != nil {
		return err
	}

	h.trail.Record(r.Context(), g.Admin.ID, "sections", audit.ActionInsert, formatID(created.ID), toDetails(in))
	return g.JSON(created, http.StatusCreated)
}

func (h *SectionHandler) Update(r *http.Request, g *guard.Helpers) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var in domain.SectionInput
	if err := decodeJSON(r, &in); err != nil {
		return err
	}

	updated, err := h.service.UpdateSection(r.Context(), id, in)
	if err != nil {
		return err
	}

	h.trail.Record(r.Context(), g.Admin.ID, "sections", audit.ActionUpdate, formatID(id), map[string]any{
		"after": toDetails(updated),
	})
	return g.JSON(updated, http.StatusOK)
}

func (h *SectionHandler) Delete(r *http.Request, g *guard.Helpers) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}

	if err := h.service.DeleteSection(r.Context(), id); err != nil {
		return err
	}

	h.trail.Record(r.Context(), g.Admin.ID, "sections", audit.ActionDelete, formatID(id), nil)
	return g.JSON(map[string]bool{"ok": true}, http.StatusOK)
}
