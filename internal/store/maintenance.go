package store

import (
	"context"

	"procodus.dev/climate-monitor/internal/monitor"
)

// CountMaintenance returns the number of maintenance records.
func (s *Store) CountMaintenance(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&Maintenance{}).Count(&n).Error; err != nil {
		return 0, classify("count maintenance", "maintenance", 0, err)
	}
	return n, nil
}

// ListMaintenance returns maintenance records newest first, optionally for one asset.
func (s *Store) ListMaintenance(ctx context.Context, assetID *uint) ([]monitor.Maintenance, error) {
	db := s.db.WithContext(ctx).Order("performed_at DESC, id DESC")
	if assetID != nil {
		db = db.Where("asset_id = ?", *assetID)
	}
	var rows []Maintenance
	if err := db.Find(&rows).Error; err != nil {
		return nil, classify("list maintenance", "maintenance", 0, err)
	}
	out := make([]monitor.Maintenance, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

// CreateMaintenance stores a maintenance record. An unknown asset is a NotFoundError.
func (s *Store) CreateMaintenance(ctx context.Context, record *monitor.Maintenance) error {
	row := Maintenance{
		PerformedAt: record.PerformedAt.UTC(),
		Kind:        record.Kind,
		Description: record.Description,
		Technician:  record.Technician,
		AssetID:     record.AssetID,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return classify("create maintenance", "asset", record.AssetID, err)
	}
	*record = row.toDomain()
	return nil
}

// DeleteMaintenance removes a maintenance record.
func (s *Store) DeleteMaintenance(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&Maintenance{}, id)
	if result.Error != nil {
		return classify("delete maintenance", "maintenance", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return &monitor.NotFoundError{Kind: "maintenance", ID: id}
	}
	return nil
}
