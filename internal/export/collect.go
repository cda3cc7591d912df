package export

import (
	"context"
	"errors"
	"sort"
	"time"

	"procodus.dev/climate-monitor/internal/monitor"
)

// Source is the storage a Dataset is collected from.
type Source interface {
	ListAssets(ctx context.Context, filter monitor.AssetFilter) ([]monitor.Asset, error)
	ListMaintenance(ctx context.Context, assetID *uint) ([]monitor.Maintenance, error)
	ScanReadings(ctx context.Context, filter monitor.ReadingFilter, fn func([]monitor.Reading) error) error
}

// Collect loads every asset, reading and maintenance record from src and computes the global
// and per-location statistics. Run it inside one snapshot for a consistent export.
func Collect(ctx context.Context, src Source, now time.Time) (*Dataset, error) {
	if src == nil {
		return nil, errors.New("export source cannot be nil")
	}

	ds := &Dataset{GeneratedAt: now.UTC()}
	var err error
	if ds.Assets, err = src.ListAssets(ctx, monitor.AssetFilter{}); err != nil {
		return nil, err
	}
	if ds.Maintenance, err = src.ListMaintenance(ctx, nil); err != nil {
		return nil, err
	}

	var global monitor.Accumulator
	err = src.ScanReadings(ctx, monitor.ReadingFilter{}, func(batch []monitor.Reading) error {
		ds.Readings = append(ds.Readings, batch...)
		global.AddAll(batch)
		return nil
	})
	if err != nil {
		return nil, err
	}
	ds.Global = monitor.GlobalStatistics{Summary: global.Summary(), TotalReadings: global.Count()}

	counts := make(map[string]int)
	for _, a := range ds.Assets {
		counts[a.Location]++
	}
	for loc, readings := range monitor.GroupByLocation(ds.Assets, ds.Readings) {
		ds.Locations = append(ds.Locations, monitor.LocationStatistics{
			Location:   loc,
			AssetCount: counts[loc],
			Summary:    monitor.Aggregate(readings),
		})
	}
	sort.Slice(ds.Locations, func(i, j int) bool { return ds.Locations[i].Location < ds.Locations[j].Location })
	return ds, nil
}
