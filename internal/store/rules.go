package store

import (
	"context"

	"procodus.dev/climate-monitor/internal/monitor"
)

// RulesByScope returns the rules whose scope equals one of scopes, ordered by id.
// With no scopes every rule is returned.
func (s *Store) RulesByScope(ctx context.Context, scopes ...monitor.Scope) ([]monitor.ThresholdRule, error) {
	db := s.db.WithContext(ctx).Order("id")
	if len(scopes) > 0 {
		var (
			global bool
			ids    []uint
		)
		for _, scope := range scopes {
			if scope.IsGlobal() {
				global = true
			} else if id, ok := scope.AssetID(); ok {
				ids = append(ids, id)
			}
		}
		switch {
		case global && len(ids) > 0:
			db = db.Where("is_global = ? OR asset_id IN ?", true, ids)
		case global:
			db = db.Where("is_global = ?", true)
		case len(ids) > 0:
			db = db.Where("is_global = ? AND asset_id IN ?", false, ids)
		default:
			return []monitor.ThresholdRule{}, nil
		}
	}

	var rows []ThresholdRule
	if err := db.Find(&rows).Error; err != nil {
		return nil, classify("list rules", "rule", 0, err)
	}
	out := make([]monitor.ThresholdRule, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

// GetRule returns one rule.
func (s *Store) GetRule(ctx context.Context, id uint) (monitor.ThresholdRule, error) {
	var row ThresholdRule
	if err := s.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return monitor.ThresholdRule{}, classify("get rule", "rule", id, err)
	}
	return row.toDomain(), nil
}

// CreateRule stores a new rule and fills in its id and timestamps.
func (s *Store) CreateRule(ctx context.Context, rule *monitor.ThresholdRule) error {
	row := ruleFromDomain(*rule)
	row.ID = 0
	assetID, _ := rule.Scope.AssetID()
	// notify_active has a column default; select it explicitly so false is written
	err := s.db.WithContext(ctx).
		Select("Name", "IsGlobal", "AssetID", "TempMin", "TempMax", "HumMin", "HumMax", "NotifyActive", "CreatedAt", "UpdatedAt").
		Create(&row).Error
	if err != nil {
		return classify("create rule", "asset", assetID, err)
	}
	*rule = row.toDomain()
	return nil
}

// UpdateRule replaces the content of an existing rule.
func (s *Store) UpdateRule(ctx context.Context, rule *monitor.ThresholdRule) error {
	row := ruleFromDomain(*rule)
	assetID, _ := rule.Scope.AssetID()
	result := s.db.WithContext(ctx).
		Model(&ThresholdRule{ID: rule.ID}).
		Select("Name", "IsGlobal", "AssetID", "TempMin", "TempMax", "HumMin", "HumMax", "NotifyActive", "UpdatedAt").
		Updates(&row)
	if result.Error != nil {
		return classify("update rule", "asset", assetID, result.Error)
	}
	if result.RowsAffected == 0 {
		return &monitor.NotFoundError{Kind: "rule", ID: rule.ID}
	}
	updated, err := s.GetRule(ctx, rule.ID)
	if err != nil {
		return err
	}
	*rule = updated
	return nil
}

// DeleteRule removes a rule.
func (s *Store) DeleteRule(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&ThresholdRule{}, id)
	if result.Error != nil {
		return classify("delete rule", "rule", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return &monitor.NotFoundError{Kind: "rule", ID: id}
	}
	return nil
}
