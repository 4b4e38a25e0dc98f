package guard

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/mysched/admin-console/internal/apierr"
)

// OriginVerifier сверяет заявленный источник запроса со списком
// разрешённых origin'ов сайта. Чистая проверка, без I/O — выполняется
// до любого обращения к БД.
//
// Origin предпочтительнее Referer; часть браузеров и privacy-расширений
// режет оба заголовка, поэтому безопасные методы без заголовков проходят,
// а мутирующие без заголовков — нет.
type OriginVerifier struct {
	allowed map[string]struct{}
}

// NewOriginVerifier нормализует список "scheme://host" из конфига.
func NewOriginVerifier(origins []string) *OriginVerifier {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if n := normalizeOrigin(o); n != "" {
			allowed[n] = struct{}{}
		}
	}
	return &OriginVerifier{allowed: allowed}
}

// Verify возвращает nil, если источник запроса допустим.
func (v *OriginVerifier) Verify(r *http.Request) error {
	self := requestOrigin(r)

	// Origin — самый надёжный сигнал для мутирующих запросов.
	// Если он есть и не совпал — отказ сразу, без фолбэка на Referer.
	origin := r.Header.Get("Origin")
	if origin != "" {
		if n := normalizeOrigin(origin); n != "" {
			if v.isAllowed(n, self) {
				return nil
			}
			return apierr.ForbiddenOrigin()
		}
	}

	referer := r.Header.Get("Referer")
	if referer != "" {
		if u, err := url.Parse(referer); err == nil {
			if v.isAllowed(normalizeOrigin(u.Scheme+"://"+u.Host), self) {
				return nil
			}
		}
	}

	if origin == "" && referer == "" {
		if isMutating(r.Method) {
			return apierr.MissingOrigin()
		}
		// Безопасные методы без заголовков пропускаем
		return nil
	}

	return apierr.ForbiddenOrigin()
}

func (v *OriginVerifier) isAllowed(origin, self string) bool {
	if origin == "" {
		return false
	}
	if origin == self {
		return true
	}
	_, ok := v.allowed[origin]
	return ok
}

func isMutating(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// requestOrigin восстанавливает собственный origin запроса: схема из TLS
// или X-Forwarded-Proto (за прокси), host из самого запроса.
func requestOrigin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}
	return normalizeOrigin(scheme + "://" + r.Host)
}

func normalizeOrigin(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host)
}
