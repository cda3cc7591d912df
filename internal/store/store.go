package store

import (
	"context"
	"database/sql"
	"errors"

	"gorm.io/gorm"

	"procodus.dev/climate-monitor/internal/monitor"
)

// DefaultBatchSize is the number of readings ScanReadings loads per round trip.
const DefaultBatchSize = 1000

// Store is the gorm-backed implementation of the monitor store interfaces.
type Store struct {
	db        *gorm.DB
	batchSize int
}

var (
	_ monitor.ReadingStore       = (*Store)(nil)
	_ monitor.RuleStore          = (*Store)(nil)
	_ monitor.AssetStore         = (*Store)(nil)
	_ monitor.MaintenanceCounter = (*Store)(nil)
)

// New creates a Store on an open database connection.
func New(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("database cannot be nil")
	}
	return &Store{db: db, batchSize: DefaultBatchSize}, nil
}

// WithBatchSize returns a copy of the store that scans readings in batches of n.
func (s *Store) WithBatchSize(n int) *Store {
	if n <= 0 {
		n = DefaultBatchSize
	}
	return &Store{db: s.db, batchSize: n}
}

// ReadOnly runs fn against a store bound to one read-only REPEATABLE READ transaction,
// so every query fn makes sees the same snapshot.
func (s *Store) ReadOnly(ctx context.Context, fn func(*Store) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, batchSize: s.batchSize})
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	return txErr("read-only transaction", err)
}

// Transaction runs fn against a store bound to one read-write transaction.
// Every write fn made is rolled back when it returns an error.
func (s *Store) Transaction(ctx context.Context, fn func(*Store) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, batchSize: s.batchSize})
	})
	return txErr("transaction", err)
}

// txErr passes domain errors through and wraps anything else as a StoreError.
func txErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		notFound   *monitor.NotFoundError
		validation *monitor.ValidationError
		storeErr   *monitor.StoreError
	)
	if errors.As(err, &notFound) || errors.As(err, &validation) || errors.As(err, &storeErr) {
		return err
	}
	return &monitor.StoreError{Op: op, Err: err}
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return &monitor.StoreError{Op: "ping", Err: err}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return &monitor.StoreError{Op: "ping", Err: err}
	}
	return nil
}
