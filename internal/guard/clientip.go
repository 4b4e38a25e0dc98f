package guard

import (
	"net"
	"net/http"
	"regexp"
	"strings"
)

var forwardedForRe = regexp.MustCompile(`(?i)for=("?)(\[?[A-Fa-f0-9:.]+\]?)`)

// ClientIP достаёт адрес клиента из проксирующих заголовков в порядке
// убывания доверия, с фолбэком на RemoteAddr.
func ClientIP(r *http.Request) string {
	for _, header := range []string{"X-Forwarded-For", "X-Real-IP", "CF-Connecting-IP", "Fastly-Client-IP"} {
		if v := firstHeaderValue(r.Header.Get(header)); v != "" {
			return v
		}
	}

	if m := forwardedForRe.FindStringSubmatch(r.Header.Get("Forwarded")); len(m) == 3 {
		return strings.Trim(m[2], "[]")
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

// firstHeaderValue берёт первый элемент списка через запятую
// (первый hop в X-Forwarded-For — исходный клиент).
func firstHeaderValue(value string) string {
	if value == "" {
		return ""
	}
	first := strings.TrimSpace(strings.Split(value, ",")[0])
	return first
}
