package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Constraint classes reported by MapError. Callers match them with errors.Is.
var (
	ErrForeignKey = errors.New("foreign key violation")
	ErrUnique     = errors.New("unique violation")
	ErrTimeout    = errors.New("database timeout")
)

// MapError classifies driver errors from Postgres (pgconn) and SQLite
// (modernc) into the sentinels above, keeping the original as the cause.
// Unrecognised errors are returned unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.ForeignKeyViolation:
			return fmt.Errorf("%w (%s): %w", ErrForeignKey, pgErr.ConstraintName, err)
		case pgerrcode.UniqueViolation:
			return fmt.Errorf("%w (%s): %w", ErrUnique, pgErr.ConstraintName, err)
		case pgerrcode.QueryCanceled, pgerrcode.LockNotAvailable:
			return fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return err
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return fmt.Errorf("%w: %w", ErrForeignKey, err)
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %w", ErrUnique, err)
		case sqlite3.SQLITE_BUSY:
			return fmt.Errorf("%w: %w", ErrTimeout, err)
		case sqlite3.SQLITE_CONSTRAINT:
			// extended codes disabled on this connection
			msg := liteErr.Error()
			if strings.Contains(msg, "FOREIGN KEY") {
				return fmt.Errorf("%w: %w", ErrForeignKey, err)
			}
			if strings.Contains(msg, "UNIQUE") {
				return fmt.Errorf("%w: %w", ErrUnique, err)
			}
		}
	}

	return err
}
