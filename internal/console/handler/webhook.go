package handler

import (
	"net/http"

	"github.com/mysched/admin-console/internal/console/service"
	"github.com/mysched/admin-console/internal/guard"
)

type WebhookHandler struct {
	prober *service.Prober
}

func NewWebhookHandler(p *service.Prober) *WebhookHandler {
	return &WebhookHandler{prober: p}
}

type testWebhookRequest struct {
	URL string `json:"url"`
}

// Test проверяет доступность вебхука оператора.
// POST /api/settings/test-webhook {"url": "..."}
func (h *WebhookHandler) Test(r *http.Request, g *guard.Helpers) error {
	var req testWebhookRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	result, err := h.prober.Probe(r.Context(), req.URL)
	if err != nil {
		return err
	}
	return g.JSON(result, http.StatusOK)
}
