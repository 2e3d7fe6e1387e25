package postgres

import (
	"errors"
	"fmt"

	"github.com/corray333/backend-labs/shop/internal/service/apperr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes translated into the application error taxonomy.
const (
	codeNumericOutOfRange   = "22003"
	codeInvalidTextRepr     = "22P02"
	codeNotNullViolation    = "23502"
	codeForeignKeyViolation = "23503"
	codeUniqueViolation     = "23505"
	codeCheckViolation      = "23514"
)

// TranslateError wraps err with msg and, when err carries a known database condition,
// with the matching apperr sentinel.
func TranslateError(err error, msg string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", msg, apperr.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%s: %w: %s", msg, apperr.ErrConflict, constraintDetail(pgErr))
		case codeForeignKeyViolation:
			return fmt.Errorf("%s: %w: %s", msg, apperr.ErrNotFound, constraintDetail(pgErr))
		case codeNotNullViolation, codeCheckViolation:
			return fmt.Errorf("%s: %w: %s", msg, apperr.ErrValidation, constraintDetail(pgErr))
		case codeNumericOutOfRange, codeInvalidTextRepr:
			return fmt.Errorf("%s: %w: %s", msg, apperr.ErrValidation, pgErr.Message)
		}
	}

	return fmt.Errorf("%s: %w", msg, err)
}

func constraintDetail(pgErr *pgconn.PgError) string {
	if pgErr.Detail != "" {
		return pgErr.Detail
	}
	if pgErr.ConstraintName != "" {
		return pgErr.ConstraintName
	}

	return pgErr.Message
}
