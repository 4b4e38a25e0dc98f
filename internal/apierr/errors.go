package apierr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Code — стабильный машинный код ошибки. Клиенты ветвятся по коду,
// а не парсят человекочитаемый текст.
type Code string

const (
	CodeUnauthenticated Code = "unauthenticated"
	CodeForbidden       Code = "forbidden"
	CodeForbiddenOrigin Code = "forbidden_origin"
	CodeMissingOrigin   Code = "missing_origin_header"
	CodeRateLimited     Code = "rate_limited"
	CodeValidation      Code = "validation_error"
	CodeUnavailable     Code = "dependency_unavailable"
	CodeInternal        Code = "internal_error"
)

// Error — нормализованная форма любого отказа на границе API.
// Message всегда безопасен для выдачи клиенту; внутренние детали
// живут в cause и попадают только в серверные логи.
type Error struct {
	Status  int
	Code    Code
	Message string
	Details map[string]any
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s (%d): %v", e.Code, e.Status, e.cause)
	}
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Body — форма тела ответа об ошибке: {"error": ..., "code": ...}.
type Body struct {
	Error   string         `json:"error"`
	Code    Code           `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *Error) Body() Body {
	return Body{Error: e.Message, Code: e.Code, Details: e.Details}
}

// New — конструктор для кодов вне закрытой таксономии (например, конфликт
// уникальности в конкретном роуте). Статус и код задаются явно.
func New(status int, code Code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

func Unauthenticated() *Error {
	return &Error{Status: http.StatusUnauthorized, Code: CodeUnauthenticated, Message: "Authentication required."}
}

func Forbidden() *Error {
	return &Error{Status: http.StatusForbidden, Code: CodeForbidden, Message: "You do not have access to this resource."}
}

func ForbiddenOrigin() *Error {
	return &Error{Status: http.StatusForbidden, Code: CodeForbiddenOrigin, Message: "Request origin is not allowed."}
}

func MissingOrigin() *Error {
	return &Error{Status: http.StatusForbidden, Code: CodeMissingOrigin, Message: "Request origin is required."}
}

// RateLimited сообщает клиенту момент сброса окна, чтобы UI мог
// показать «попробуйте позже» с конкретным временем.
func RateLimited(resetAt string) *Error {
	e := &Error{Status: http.StatusTooManyRequests, Code: CodeRateLimited, Message: "Too many requests. Please wait and try again."}
	if resetAt != "" {
		e.Details = map[string]any{"reset_at": resetAt}
	}
	return e
}

func Validation(message string) *Error {
	if message == "" {
		message = "Invalid request payload."
	}
	return &Error{Status: http.StatusBadRequest, Code: CodeValidation, Message: message}
}

// Unavailable — внешняя зависимость недоступна. Статус уточняет причину:
// 502 — отказ соединения, 503 — сервис перегружен/предохранитель открыт,
// 504 — таймаут.
func Unavailable(status int, message string, cause error) *Error {
	if status < 502 || status > 504 {
		status = http.StatusBadGateway
	}
	return &Error{Status: status, Code: CodeUnavailable, Message: message, cause: cause}
}

func Internal(cause error) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: CodeInternal, Message: "Internal Server Error", cause: cause}
}

// Classify приводит произвольную ошибку к закрытой таксономии.
// Уже классифицированные ошибки проходят как есть, таймаут контекста
// считается отказом восходящей зависимости, всё остальное — 500
// с generic-сообщением (детали остаются на сервере).
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Unavailable(http.StatusGatewayTimeout, "Upstream dependency timed out.", err)
	}
	return Internal(err)
}
