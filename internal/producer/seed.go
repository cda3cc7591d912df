package producer

import (
	"context"
	"fmt"
	"log/slog"

	"procodus.dev/climate-monitor/internal/monitor"
	"procodus.dev/climate-monitor/pkg/generator"
	"procodus.dev/climate-monitor/pkg/metrics"
)

// AssetCatalog is the part of the asset registry the generator needs.
type AssetCatalog interface {
	ListAssets(ctx context.Context, filter monitor.AssetFilter) ([]monitor.Asset, error)
	CreateAsset(ctx context.Context, asset *monitor.Asset) error
}

// SeedAssets makes sure the catalog holds at least n assets, creating synthetic ones as needed,
// and returns every asset in the catalog.
func SeedAssets(ctx context.Context, catalog AssetCatalog, gen *generator.Generator, n int,
	m *metrics.GeneratorMetrics, logger *slog.Logger,
) ([]monitor.Asset, error) {
	assets, err := catalog.ListAssets(ctx, monitor.AssetFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}

	for len(assets) < n {
		fake, err := gen.Asset()
		if err != nil {
			if m != nil {
				m.GenerationFailures.WithLabelValues("seed").Inc()
			}
			return nil, err
		}
		asset := monitor.Asset{
			Name:        fake.Name(),
			Location:    fake.Location,
			Kind:        monitor.KindAirConditioner,
			InstalledOn: fake.InstalledOn,
		}
		if err := catalog.CreateAsset(ctx, &asset); err != nil {
			if m != nil {
				m.GenerationFailures.WithLabelValues("seed").Inc()
			}
			return nil, fmt.Errorf("failed to create asset: %w", err)
		}
		if m != nil {
			m.AssetsSeeded.Inc()
		}
		logger.Info("seeded asset", "asset_id", asset.ID, "name", asset.Name, "location", asset.Location)
		assets = append(assets, asset)
	}

	return assets, nil
}
