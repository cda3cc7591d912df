package store

import (
	"context"

	"procodus.dev/climate-monitor/internal/monitor"
)

// GetAsset returns one asset.
func (s *Store) GetAsset(ctx context.Context, id uint) (monitor.Asset, error) {
	var row Asset
	if err := s.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return monitor.Asset{}, classify("get asset", "asset", id, err)
	}
	return row.toDomain(), nil
}

// ListAssets returns the assets matching filter, ordered by id.
func (s *Store) ListAssets(ctx context.Context, filter monitor.AssetFilter) ([]monitor.Asset, error) {
	db := s.db.WithContext(ctx).Order("id")
	if filter.Location != "" {
		db = db.Where("location = ?", filter.Location)
	}
	if filter.Kind != "" {
		db = db.Where("kind = ?", string(filter.Kind))
	}
	if len(filter.IDs) > 0 {
		db = db.Where("id IN ?", filter.IDs)
	}
	var rows []Asset
	if err := db.Find(&rows).Error; err != nil {
		return nil, classify("list assets", "asset", 0, err)
	}
	out := make([]monitor.Asset, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

// CountAssets returns the number of registered assets.
func (s *Store) CountAssets(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&Asset{}).Count(&n).Error; err != nil {
		return 0, classify("count assets", "asset", 0, err)
	}
	return n, nil
}

// CreateAsset registers an asset and fills in its id.
func (s *Store) CreateAsset(ctx context.Context, asset *monitor.Asset) error {
	row := assetFromDomain(*asset)
	row.ID = 0
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return classify("create asset", "asset", 0, err)
	}
	*asset = row.toDomain()
	return nil
}

// UpdateAsset replaces the name, location, kind and installation date of an asset.
func (s *Store) UpdateAsset(ctx context.Context, asset *monitor.Asset) error {
	row := assetFromDomain(*asset)
	result := s.db.WithContext(ctx).
		Model(&Asset{ID: asset.ID}).
		Select("Name", "Location", "Kind", "InstalledOn", "UpdatedAt").
		Updates(&row)
	if result.Error != nil {
		return classify("update asset", "asset", asset.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return &monitor.NotFoundError{Kind: "asset", ID: asset.ID}
	}
	return nil
}

// DeleteAsset removes an asset together with its readings, maintenance records and specific rules.
func (s *Store) DeleteAsset(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&Asset{}, id)
	if result.Error != nil {
		return classify("delete asset", "asset", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return &monitor.NotFoundError{Kind: "asset", ID: id}
	}
	return nil
}

// Locations returns the distinct asset locations in alphabetical order.
func (s *Store) Locations(ctx context.Context) ([]string, error) {
	var locations []string
	err := s.db.WithContext(ctx).
		Model(&Asset{}).
		Distinct("location").
		Order("location").
		Pluck("location", &locations).Error
	if err != nil {
		return nil, classify("list locations", "asset", 0, err)
	}
	if locations == nil {
		locations = []string{}
	}
	return locations, nil
}
