package monitor

import (
	"context"
)

// ReadingFilter narrows a reading query. An empty AssetIDs matches every asset.
type ReadingFilter struct {
	AssetIDs []uint
}

// ReadingStore is the read side of the reading store.
type ReadingStore interface {
	// LatestReadings returns, per matching asset, the readings carrying that asset's
	// maximum timestamp. Several readings may be returned for one asset when timestamps tie.
	LatestReadings(ctx context.Context, filter ReadingFilter) ([]Reading, error)
	// RecentReadings returns up to limit readings ordered by timestamp desc, id desc.
	RecentReadings(ctx context.Context, limit int) ([]Reading, error)
	// ScanReadings streams matching readings to fn in batches.
	ScanReadings(ctx context.Context, filter ReadingFilter, fn func([]Reading) error) error
	CountReadings(ctx context.Context) (int64, error)
}

// RuleStore is the threshold rule store.
type RuleStore interface {
	// RulesByScope returns rules whose scope equals one of scopes, or every rule when none is given.
	RulesByScope(ctx context.Context, scopes ...Scope) ([]ThresholdRule, error)
	GetRule(ctx context.Context, id uint) (ThresholdRule, error)
	CreateRule(ctx context.Context, rule *ThresholdRule) error
	UpdateRule(ctx context.Context, rule *ThresholdRule) error
	DeleteRule(ctx context.Context, id uint) error
}

// AssetFilter narrows an asset query. Zero fields do not filter.
type AssetFilter struct {
	Location string
	Kind     AssetKind
	IDs      []uint
}

// AssetStore is the read side of the asset registry.
type AssetStore interface {
	GetAsset(ctx context.Context, id uint) (Asset, error)
	ListAssets(ctx context.Context, filter AssetFilter) ([]Asset, error)
	CountAssets(ctx context.Context) (int64, error)
}

// MaintenanceCounter counts maintenance records.
type MaintenanceCounter interface {
	CountMaintenance(ctx context.Context) (int64, error)
}
