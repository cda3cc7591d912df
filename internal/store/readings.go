package store

import (
	"context"

	"gorm.io/gorm"

	"procodus.dev/climate-monitor/internal/monitor"
)

// ReadingQuery narrows ListReadings. Zero fields do not filter.
type ReadingQuery struct {
	AssetID *uint
	Limit   int
}

func readingScope(filter monitor.ReadingFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if len(filter.AssetIDs) == 0 {
			return db
		}
		return db.Where("readings.asset_id IN ?", filter.AssetIDs)
	}
}

// LatestReadings returns the readings carrying each asset's maximum timestamp.
func (s *Store) LatestReadings(ctx context.Context, filter monitor.ReadingFilter) ([]monitor.Reading, error) {
	db := s.db.WithContext(ctx)
	latest := db.Model(&Reading{}).
		Scopes(readingScope(filter)).
		Select("readings.asset_id, MAX(readings.timestamp) AS max_ts").
		Group("readings.asset_id")

	var rows []Reading
	err := db.Model(&Reading{}).
		Joins("JOIN (?) AS latest ON latest.asset_id = readings.asset_id AND latest.max_ts = readings.timestamp", latest).
		Order("readings.asset_id, readings.id").
		Find(&rows).Error
	if err != nil {
		return nil, classify("latest readings", "reading", 0, err)
	}
	return readingsToDomain(rows), nil
}

// RecentReadings returns up to limit readings, newest first.
func (s *Store) RecentReadings(ctx context.Context, limit int) ([]monitor.Reading, error) {
	var rows []Reading
	err := s.db.WithContext(ctx).
		Order("timestamp DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, classify("recent readings", "reading", 0, err)
	}
	return readingsToDomain(rows), nil
}

// ScanReadings streams matching readings to fn in primary key order.
func (s *Store) ScanReadings(ctx context.Context, filter monitor.ReadingFilter, fn func([]monitor.Reading) error) error {
	var rows []Reading
	result := s.db.WithContext(ctx).
		Scopes(readingScope(filter)).
		FindInBatches(&rows, s.batchSize, func(_ *gorm.DB, _ int) error {
			return fn(readingsToDomain(rows))
		})
	if result.Error != nil {
		return classify("scan readings", "reading", 0, result.Error)
	}
	return nil
}

// CountReadings returns the number of stored readings.
func (s *Store) CountReadings(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&Reading{}).Count(&n).Error; err != nil {
		return 0, classify("count readings", "reading", 0, err)
	}
	return n, nil
}

// ListReadings returns readings newest first.
func (s *Store) ListReadings(ctx context.Context, q ReadingQuery) ([]monitor.Reading, error) {
	db := s.db.WithContext(ctx).Order("timestamp DESC, id DESC")
	if q.AssetID != nil {
		db = db.Where("asset_id = ?", *q.AssetID)
	}
	if q.Limit > 0 {
		db = db.Limit(q.Limit)
	}
	var rows []Reading
	if err := db.Find(&rows).Error; err != nil {
		return nil, classify("list readings", "reading", 0, err)
	}
	return readingsToDomain(rows), nil
}

// CreateReading appends a reading. An unknown asset is a NotFoundError.
func (s *Store) CreateReading(ctx context.Context, reading *monitor.Reading) error {
	row := Reading{
		Timestamp:   reading.Timestamp.UTC(),
		Temperature: reading.Temperature,
		Humidity:    reading.Humidity,
		AssetID:     reading.AssetID,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return classify("create reading", "asset", reading.AssetID, err)
	}
	*reading = row.toDomain()
	return nil
}

// DeleteReading removes a reading.
func (s *Store) DeleteReading(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&Reading{}, id)
	if result.Error != nil {
		return classify("delete reading", "reading", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return &monitor.NotFoundError{Kind: "reading", ID: id}
	}
	return nil
}
