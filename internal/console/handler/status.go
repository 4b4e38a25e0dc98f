package handler

import (
	"net/http"

	"github.com/mysched/admin-console/internal/console/service"
	"github.com/mysched/admin-console/internal/guard"
)

type StatusHandler struct {
	service *service.StatusService
}

func NewStatusHandler(s *service.StatusService) *StatusHandler {
	return &StatusHandler{service: s}
}

// Get — здоровье зависимостей для статус-бара. Нездоровая зависимость
// остаётся 200: это содержимое отчёта, а не сбой самого роута.
func (h *StatusHandler) Get(r *http.Request, g *guard.Helpers) error {
	return g.JSON(h.service.Check(r.Context()), http.StatusOK)
}
