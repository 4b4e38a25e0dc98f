package handler

import (
	"net/http"
	"strconv"

	"github.com/mysched/admin-console/internal/console/service"
	"github.com/mysched/admin-console/internal/guard"
)

type AuditHandler struct {
	service *service.AuditService
}

func NewAuditHandler(s *service.AuditService) *AuditHandler {
	return &AuditHandler{service: s}
}

// GetLogs возвращает журнал аудита с фильтрацией
// GET /api/audit?actor=...&subject=...&limit=...&offset=...
func (h *AuditHandler) GetLogs(r *http.Request, g *guard.Helpers) error {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	logs, err := h.service.FetchLogs(r.Context(), q.Get("actor"), q.Get("subject"), limit, offset)
	if err != nil {
		return err
	}
	return g.JSON(logs, http.StatusOK)
}
