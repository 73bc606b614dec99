package repository

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/doculens/doculens-api/internal/apperr"
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// execExpectingRow runs a write that must match exactly one row and maps
// a zero-row result to apperr.ErrNotFound.
func execExpectingRow(ctx context.Context, db *sql.DB, query, op string, args ...interface{}) error {
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, op)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, op)
	}
	if affected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
