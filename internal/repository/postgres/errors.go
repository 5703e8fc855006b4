package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes the repositories care about
const (
	pgForeignKeyViolation = "23503"
	pgInvalidTextRep      = "22P02" // e.g. malformed uuid literal
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsPgNoRowsError checks if error is a "no rows" error
func IsPgNoRowsError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsPgForeignKeyError checks if error is a foreign key violation.
// Inserting a child under a parent deleted by another session ends here.
func IsPgForeignKeyError(err error) bool {
	return pgCode(err) == pgForeignKeyViolation
}

// IsPgInvalidInputError reports a value the column type rejected, such as
// an id that is not a uuid. Callers treat it as not found.
func IsPgInvalidInputError(err error) bool {
	return pgCode(err) == pgInvalidTextRep
}
