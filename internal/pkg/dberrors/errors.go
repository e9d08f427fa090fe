package dberrors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/yigit/horario/internal/pkg/apperrors"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// pgError unwraps err to a PostgreSQL error with the given SQLSTATE code.
func pgError(err error, code string) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != code {
		return nil, false
	}
	return pgErr, true
}

// IsUniqueViolation checks if the error is a PostgreSQL unique violation on
// constraint, e.g. sections_program_nrc_key. An empty constraint matches
// any unique violation.
func IsUniqueViolation(err error, constraint string) bool {
	pgErr, ok := pgError(err, codeUniqueViolation)
	return ok && (constraint == "" || pgErr.ConstraintName == constraint)
}

// IsForeignKeyViolation checks if the error is a PostgreSQL foreign key violation.
func IsForeignKeyViolation(err error) bool {
	_, ok := pgError(err, codeForeignKeyViolation)
	return ok
}

// Classify tags constraint violations with the matching apperrors sentinel so
// callers do not have to know about pgconn.
func Classify(err error) error {
	var pgErr *pgconn.PgError
	switch {
	case err == nil:
		return nil
	case !errors.As(err, &pgErr):
		return err
	case IsUniqueViolation(err, ""):
		return fmt.Errorf("%w (%s): %w", apperrors.ErrDuplicateKey, pgErr.ConstraintName, err)
	case IsForeignKeyViolation(err):
		return fmt.Errorf("%w (%s): %w", apperrors.ErrForeignKeyViolation, pgErr.ConstraintName, err)
	}
	return err
}
