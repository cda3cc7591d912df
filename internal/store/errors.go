package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"procodus.dev/climate-monitor/internal/monitor"
)

// Postgres SQLSTATE codes.
const (
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeNotNullViolation    = "23502"
)

// classify turns a gorm or driver error into a monitor error.
// kind and id name the row the operation addressed.
func classify(op, kind string, id uint, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &monitor.NotFoundError{Kind: kind, ID: id}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeForeignKeyViolation:
			return &monitor.NotFoundError{Kind: "asset", ID: id}
		case codeCheckViolation, codeNotNullViolation:
			return &monitor.ValidationError{Field: pgErr.ColumnName, Reason: pgErr.Message}
		}
	}
	return &monitor.StoreError{Op: op, Err: err}
}
