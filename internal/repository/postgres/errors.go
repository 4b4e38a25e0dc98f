package postgres

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mysched/admin-console/internal/apierr"
)

// mapError переводит известные коды Postgres в клиентские условия.
// Всё нераспознанное уходит наверх как есть и классифицируется в 500.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return apierr.New(http.StatusConflict, "conflict", "Record already exists.")
		case "23503": // foreign_key_violation
			return apierr.New(http.StatusUnprocessableEntity, "related_not_found", "Related record not found.")
		}
	}
	return err
}

// notFound — стандартный ответ для отсутствующей строки по id.
func notFound(what string) error {
	return apierr.New(http.StatusNotFound, "not_found", what+" not found.")
}
