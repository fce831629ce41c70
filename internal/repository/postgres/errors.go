package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vedran77/frameverse/internal/repository"
)

const uniqueViolation = "23505"

var constraintFields = map[string]string{
	"users_username_key": "username",
	"users_email_key":    "email",
}

// translateError maps unique violations to *repository.DuplicateError.
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		if field, ok := constraintFields[pgErr.ConstraintName]; ok {
			return &repository.DuplicateError{Field: field}
		}
	}
	return err
}
