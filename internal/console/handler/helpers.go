package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mysched/admin-console/internal/apierr"
)

// Recorder — success/error пути журнала аудита (реализует audit.Trail).
type Recorder interface {
	Record(ctx context.Context, actor, subject, action, rowID string, details map[string]any)
	RecordError(ctx context.Context, actor, subject, message string, details map[string]any)
}

// WriteJSON — ответ публичного роута с теми же заголовками безопасности,
// что ставит guard на защищённых роутах.
func WriteJSON(w http.ResponseWriter, data any, status int) error {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Referrer-Policy", "same-origin")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apierr.Validation("Invalid JSON payload.")
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apierr.Validation("Invalid id.")
	}
	return id, nil
}

// queryInt64 возвращает nil для отсутствующего или "all" значения.
func queryInt64(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" || raw == "all" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, apierr.Validation("Invalid " + name + ".")
	}
	return &v, nil
}

// toDetails приводит доменную структуру к открытой map для аудита.
func toDetails(v any) map[string]any {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
