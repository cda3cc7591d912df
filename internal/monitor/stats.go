package monitor

import (
	"math"
)

// Aggregate computes the StatisticsSummary of a reading set.
func Aggregate(readings []Reading) StatisticsSummary {
	var acc Accumulator
	for _, r := range readings {
		acc.Add(r)
	}
	return acc.Summary()
}

// Accumulator builds a StatisticsSummary incrementally, so that reading sets can be
// streamed rather than loaded at once. The zero value is ready to use.
type Accumulator struct {
	temperature running
	humidity    running
	count       int64
}

// Add folds one reading into the accumulator.
func (a *Accumulator) Add(r Reading) {
	a.count++
	a.temperature.add(r.Temperature, a.count)
	a.humidity.add(r.Humidity, a.count)
}

// AddAll folds a batch of readings into the accumulator.
func (a *Accumulator) AddAll(readings []Reading) {
	for _, r := range readings {
		a.Add(r)
	}
}

// Count returns the number of readings added so far.
func (a *Accumulator) Count() int64 {
	return a.count
}

// Summary returns the statistics of the readings added so far, rounded to two decimals.
func (a *Accumulator) Summary() StatisticsSummary {
	if a.count == 0 {
		return StatisticsSummary{}
	}
	return StatisticsSummary{
		Count:       a.count,
		Temperature: a.temperature.stats(a.count),
		Humidity:    a.humidity.stats(a.count),
	}
}

// running keeps Welford's mean and sum of squared deviations for one dimension.
type running struct {
	mean float64
	m2   float64
	min  float64
	max  float64
}

func (s *running) add(x float64, n int64) {
	if n == 1 {
		s.min, s.max = x, x
	} else {
		s.min = math.Min(s.min, x)
		s.max = math.Max(s.max, x)
	}
	delta := x - s.mean
	s.mean += delta / float64(n)
	s.m2 += delta * (x - s.mean)
}

func (s *running) stats(n int64) DimensionStats {
	stddev := 0.0
	if n > 1 {
		stddev = math.Sqrt(s.m2 / float64(n-1))
	}
	return DimensionStats{
		Mean:   round2(s.mean),
		Min:    round2(s.min),
		Max:    round2(s.max),
		StdDev: round2(stddev),
	}
}

func round2(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return math.Round(x*100) / 100
}

// GroupByLocation splits readings by the location of their asset.
// Readings whose asset is not in assets are dropped.
func GroupByLocation(assets []Asset, readings []Reading) map[string][]Reading {
	locationOf := make(map[uint]string, len(assets))
	for _, a := range assets {
		locationOf[a.ID] = a.Location
	}
	groups := make(map[string][]Reading)
	for _, r := range readings {
		loc, ok := locationOf[r.AssetID]
		if !ok {
			continue
		}
		groups[loc] = append(groups[loc], r)
	}
	return groups
}
