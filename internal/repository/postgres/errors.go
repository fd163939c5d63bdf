package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// IsPgDuplicateError checks if error is a unique constraint violation
func IsPgDuplicateError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 23505 = unique_violation
		return pgErr.Code == "23505"
	}
	return false
}

// IsPgNoRowsError checks if error is a "no rows" error
func IsPgNoRowsError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsPgForeignKeyError checks if error is a foreign key violation
func IsPgForeignKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 23503 = foreign_key_violation
		return pgErr.Code == "23503"
	}
	return false
}

// Translate maps a driver error onto the domain error built by the matching
// callback (nil callbacks leave the error wrapped as is) and prefixes op.
func Translate(err error, op string, notFound, duplicate func() error) error {
	if err == nil {
		return nil
	}
	switch {
	case notFound != nil && IsPgNoRowsError(err):
		return notFound()
	case duplicate != nil && IsPgDuplicateError(err):
		return duplicate()
	}
	return fmt.Errorf("%s: %w", op, err)
}
