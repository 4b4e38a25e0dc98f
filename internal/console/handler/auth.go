package handler

import (
	"net/http"
	"time"

	"github.com/mysched/admin-console/internal/apierr"
	"github.com/mysched/admin-console/internal/console/service"
	"github.com/mysched/admin-console/internal/domain"
	"github.com/mysched/admin-console/internal/guard"
	"github.com/mysched/admin-console/internal/infra"
)

type AuthHandler struct {
	service *service.AuthService
	cfg     infra.AuthConfig
}

func NewAuthHandler(s *service.AuthService, cfg infra.AuthConfig) *AuthHandler {
	return &AuthHandler{service: s, cfg: cfg}
}

// Login — публичный роут (origin и rate проверяются сервером отдельно,
// identity-этапа тут по определению нет).
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) error {
	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if req.Email == "" || req.Password == "" {
		return apierr.Validation("Email and password are required.")
	}

	token, session, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	http.SetCookie(w, h.sessionCookie(token, int(h.cfg.SessionTTL.Seconds())))
	return WriteJSON(w, session, http.StatusOK)
}

// Logout идемпотентен: просроченная или битая кука — всё равно 200.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) error {
	if cookie, err := r.Cookie(h.cfg.SessionCookie); err == nil && cookie.Value != "" {
		h.service.Revoke(r.Context(), cookie.Value)
	}

	// Сбрасываем куку у клиента
	http.SetCookie(w, h.sessionCookie("", -1))
	return WriteJSON(w, map[string]bool{"ok": true}, http.StatusOK)
}

// Whoami — защищённый роут: возвращает резолвнутую личность.
func (h *AuthHandler) Whoami(_ *http.Request, g *guard.Helpers) error {
	return g.JSON(g.Admin, http.StatusOK)
}

func (h *AuthHandler) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     h.cfg.SessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Expires:  time.Now().Add(time.Duration(maxAge) * time.Second),
		HttpOnly: true,
		Secure:   h.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}
