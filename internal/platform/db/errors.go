package db

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/medbase/medbase/internal/platform/apperr"
)

// Postgres SQLSTATE codes the repositories care about.
const (
	CodeUniqueViolation     = "23505"
	CodeForeignKeyViolation = "23503"
	CodeCheckViolation      = "23514"
)

// Constraints maps unique constraint names to the API field they guard.
type Constraints map[string]string

// Classify turns driver errors into apperr kinds. entity names the record for
// not-found messages and constraints resolves unique violations to fields.
// Errors it does not recognise are returned unchanged.
func Classify(err error, entity string, constraints Constraints) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(entity)
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case CodeUniqueViolation:
		field, ok := constraints[pgErr.ConstraintName]
		if !ok {
			field = pgErr.ConstraintName
		}
		return &apperr.DuplicateError{Field: field, Constraint: pgErr.ConstraintName}
	case CodeForeignKeyViolation:
		return apperr.Validation("referenced record does not exist")
	case CodeCheckViolation:
		return apperr.Validation("value rejected by constraint %s", pgErr.ConstraintName)
	}
	return err
}

// IsUniqueViolation reports whether err is a unique violation on constraint,
// either as a raw driver error or already classified.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == CodeUniqueViolation && pgErr.ConstraintName == constraint
	}
	var dup *apperr.DuplicateError
	if errors.As(err, &dup) {
		return dup.Constraint == constraint
	}
	return false
}
