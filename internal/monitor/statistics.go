package monitor

import (
	"context"
	"errors"
	"sort"
)

// Statistics computes StatisticsSummary values for an asset, a location, or globally.
// It selects the reading set; the arithmetic is done by Accumulator.
type Statistics struct {
	readings ReadingStore
	assets   AssetStore
}

// NewStatistics creates a Statistics service over the given stores.
func NewStatistics(readings ReadingStore, assets AssetStore) (*Statistics, error) {
	if readings == nil {
		return nil, errors.New("reading store cannot be nil")
	}
	if assets == nil {
		return nil, errors.New("asset store cannot be nil")
	}
	return &Statistics{readings: readings, assets: assets}, nil
}

// ForAsset summarizes every reading of one asset. A missing asset is a NotFoundError;
// an asset without readings yields the zero summary.
func (s *Statistics) ForAsset(ctx context.Context, assetID uint) (StatisticsSummary, error) {
	if _, err := s.assets.GetAsset(ctx, assetID); err != nil {
		return StatisticsSummary{}, storeErr("get asset", err)
	}
	var acc Accumulator
	err := s.readings.ScanReadings(ctx, ReadingFilter{AssetIDs: []uint{assetID}}, func(batch []Reading) error {
		acc.AddAll(batch)
		return nil
	})
	if err != nil {
		return StatisticsSummary{}, storeErr("scan asset readings", err)
	}
	return acc.Summary(), nil
}

// ForLocation summarizes the readings of every asset in location.
func (s *Statistics) ForLocation(ctx context.Context, location string) (LocationStatistics, error) {
	if location == "" {
		return LocationStatistics{}, &ValidationError{Field: "location", Reason: "is required"}
	}
	assets, err := s.assets.ListAssets(ctx, AssetFilter{Location: location})
	if err != nil {
		return LocationStatistics{}, storeErr("list assets", err)
	}
	result := LocationStatistics{Location: location, AssetCount: len(assets)}
	if len(assets) == 0 {
		return result, nil
	}

	ids := make([]uint, len(assets))
	for i, a := range assets {
		ids[i] = a.ID
	}
	var acc Accumulator
	err = s.readings.ScanReadings(ctx, ReadingFilter{AssetIDs: ids}, func(batch []Reading) error {
		acc.AddAll(batch)
		return nil
	})
	if err != nil {
		return LocationStatistics{}, storeErr("scan location readings", err)
	}
	result.Summary = acc.Summary()
	return result, nil
}

// ByLocation summarizes every location that has at least one reading, ordered by location.
func (s *Statistics) ByLocation(ctx context.Context) ([]LocationStatistics, error) {
	assets, err := s.assets.ListAssets(ctx, AssetFilter{})
	if err != nil {
		return nil, storeErr("list assets", err)
	}
	assetCount := make(map[string]int)
	for _, a := range assets {
		assetCount[a.Location]++
	}

	groups := make(map[string]*Accumulator)
	err = s.readings.ScanReadings(ctx, ReadingFilter{}, func(batch []Reading) error {
		for loc, readings := range GroupByLocation(assets, batch) {
			acc, ok := groups[loc]
			if !ok {
				acc = &Accumulator{}
				groups[loc] = acc
			}
			acc.AddAll(readings)
		}
		return nil
	})
	if err != nil {
		return nil, storeErr("scan readings", err)
	}

	out := make([]LocationStatistics, 0, len(groups))
	for loc, acc := range groups {
		out = append(out, LocationStatistics{
			Location:   loc,
			AssetCount: assetCount[loc],
			Summary:    acc.Summary(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Location < out[j].Location })
	return out, nil
}

// Global summarizes every reading.
func (s *Statistics) Global(ctx context.Context) (GlobalStatistics, error) {
	var acc Accumulator
	err := s.readings.ScanReadings(ctx, ReadingFilter{}, func(batch []Reading) error {
		acc.AddAll(batch)
		return nil
	})
	if err != nil {
		return GlobalStatistics{}, storeErr("scan readings", err)
	}
	return GlobalStatistics{Summary: acc.Summary(), TotalReadings: acc.Count()}, nil
}
