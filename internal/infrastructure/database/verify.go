package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrDeleteNotVerified is returned when a delete did not reduce the table's
// row count by exactly one. The surrounding transaction is rolled back.
var ErrDeleteNotVerified = errors.New("database: delete not verified by row count")

// Querier is the subset of *sql.DB and *sql.Tx used by the helpers below.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CountRows returns the number of rows in table. The table name must be a
// trusted constant.
func CountRows(ctx context.Context, q Querier, table string) (int64, error) {
	var n int64
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil { //nolint:gosec // table is a package constant
		return 0, fmt.Errorf("counting %s: %w", table, err)
	}
	return n, nil
}

// DeleteVerified removes the row with the given id from table and checks,
// by counting before and after, that exactly one row went away.
//
// Run it on the transaction that loaded the row, so the count and the delete
// see the same snapshot.
func DeleteVerified(ctx context.Context, q Querier, table, id string) error {
	before, err := CountRows(ctx, q, table)
	if err != nil {
		return err
	}

	if _, err := q.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id); err != nil { //nolint:gosec // table is a package constant
		return fmt.Errorf("deleting from %s: %w", table, err)
	}

	after, err := CountRows(ctx, q, table)
	if err != nil {
		return err
	}
	if before-after != 1 {
		return fmt.Errorf("%w: %s count went from %d to %d", ErrDeleteNotVerified, table, before, after)
	}
	return nil
}
