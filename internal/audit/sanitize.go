package audit

import "strings"

const redacted = "[REDACTED]"

// Ключи сравниваются после нормализации (lower-case, без разделителей),
// так что "newPassword", "new_password" и "NewPassword" режутся одинаково.
var sensitiveKeys = map[string]struct{}{
	"password":        {},
	"newpassword":     {},
	"currentpassword": {},
	"oldpassword":     {},
	"passcode":        {},
	"secret":          {},
	"secretkey":       {},
	"token":           {},
	"apikey":          {},
	"accesstoken":     {},
	"refreshtoken":    {},
	"sessiontoken":    {},
	"authtoken":       {},
	"resettoken":      {},
	"credential":      {},
	"authorization":   {},
	"bearer":          {},
	"jwt":             {},
	"privatekey":      {},
	"encryptionkey":   {},
	"otp":             {},
	"totp":            {},
	"verificationcode": {},
	"recoverycode":    {},
	"backupcode":      {},
	"magiclink":       {},
	"pin":             {},
	"cvv":             {},
	"cvc":             {},
	"cardnumber":      {},
	"creditcard":      {},
	"accountnumber":   {},
	"routingnumber":   {},
	"iban":            {},
	"ssn":             {},
}

func normalizeKey(key string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(key) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func shouldRedact(key string) bool {
	_, ok := sensitiveKeys[normalizeKey(key)]
	return ok
}

// SanitizeDetails возвращает копию details с вычищенными секретами.
// Вложенные map и слайсы обходятся рекурсивно; исходное значение
// не модифицируется.
func SanitizeDetails(details map[string]any) map[string]any {
	if details == nil {
		return nil
	}
	out, _ := sanitizeValue(details).(map[string]any)
	return out
}

func sanitizeValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		next := make(map[string]any, len(v))
		for key, nested := range v {
			if shouldRedact(key) {
				next[key] = redacted
				continue
			}
			next[key] = sanitizeValue(nested)
		}
		return next
	case []any:
		next := make([]any, len(v))
		for i, entry := range v {
			next[i] = sanitizeValue(entry)
		}
		return next
	default:
		return value
	}
}
