package monitor

import (
	"context"
	"errors"
	"fmt"
)

// MaxRecentReadings is the largest limit Summarize accepts.
const MaxRecentReadings = 500

// ComposerConfig holds the stores the dashboard summary is read from.
type ComposerConfig struct {
	Readings    ReadingStore
	Rules       RuleStore
	Assets      AssetStore
	Maintenance MaintenanceCounter
}

// Composer assembles the dashboard summary.
type Composer struct {
	readings    ReadingStore
	assets      AssetStore
	maintenance MaintenanceCounter
	evaluator   *Evaluator
}

// NewComposer creates a Composer from the given stores.
func NewComposer(cfg *ComposerConfig) (*Composer, error) {
	if cfg == nil {
		return nil, errors.New("composer config cannot be nil")
	}
	if cfg.Assets == nil {
		return nil, errors.New("asset store cannot be nil")
	}
	if cfg.Maintenance == nil {
		return nil, errors.New("maintenance store cannot be nil")
	}
	evaluator, err := NewEvaluator(cfg.Readings, cfg.Rules)
	if err != nil {
		return nil, err
	}
	return &Composer{
		readings:    cfg.Readings,
		assets:      cfg.Assets,
		maintenance: cfg.Maintenance,
		evaluator:   evaluator,
	}, nil
}

// Summarize returns store counts, the number of alerting assets and the limit most recent
// readings enriched with the current name and location of their asset.
func (c *Composer) Summarize(ctx context.Context, limit int) (DashboardSummary, error) {
	if limit <= 0 {
		return DashboardSummary{}, &ValidationError{Field: "limit", Reason: "must be positive"}
	}
	if limit > MaxRecentReadings {
		return DashboardSummary{}, &ValidationError{Field: "limit", Reason: fmt.Sprintf("must be at most %d", MaxRecentReadings)}
	}

	var (
		summary DashboardSummary
		err     error
	)
	if summary.AssetCount, err = c.assets.CountAssets(ctx); err != nil {
		return DashboardSummary{}, storeErr("count assets", err)
	}
	if summary.ReadingCount, err = c.readings.CountReadings(ctx); err != nil {
		return DashboardSummary{}, storeErr("count readings", err)
	}
	if summary.MaintenanceCount, err = c.maintenance.CountMaintenance(ctx); err != nil {
		return DashboardSummary{}, storeErr("count maintenance", err)
	}

	states, err := c.evaluator.EvaluateAll(ctx)
	if err != nil {
		return DashboardSummary{}, err
	}
	summary.ActiveAlertCount = ActiveAlertCount(states)

	summary.RecentReadings, err = c.recentReadings(ctx, limit)
	if err != nil {
		return DashboardSummary{}, err
	}
	return summary, nil
}

func (c *Composer) recentReadings(ctx context.Context, limit int) ([]EnrichedReading, error) {
	readings, err := c.readings.RecentReadings(ctx, limit)
	if err != nil {
		return nil, storeErr("load recent readings", err)
	}
	sortNewestFirst(readings)
	if len(readings) > limit {
		readings = readings[:limit]
	}

	out := make([]EnrichedReading, 0, len(readings))
	if len(readings) == 0 {
		return out, nil
	}

	ids := make([]uint, 0, len(readings))
	seen := make(map[uint]struct{}, len(readings))
	for _, r := range readings {
		if _, ok := seen[r.AssetID]; ok {
			continue
		}
		seen[r.AssetID] = struct{}{}
		ids = append(ids, r.AssetID)
	}
	assets, err := c.assets.ListAssets(ctx, AssetFilter{IDs: ids})
	if err != nil {
		return nil, storeErr("load assets", err)
	}
	byID := make(map[uint]Asset, len(assets))
	for _, a := range assets {
		byID[a.ID] = a
	}

	for _, r := range readings {
		asset, ok := byID[r.AssetID]
		if !ok {
			continue
		}
		out = append(out, EnrichedReading{
			Reading:       r,
			AssetName:     asset.Name,
			AssetLocation: asset.Location,
		})
	}
	return out, nil
}
