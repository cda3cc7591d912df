package generator

import (
	"math"
	"time"
)

// Sample is one synthetic temperature/humidity measurement.
type Sample struct {
	Timestamp   time.Time
	Temperature float64
	Humidity    float64
	// Excursion marks samples pushed outside the unit's nominal band.
	Excursion bool
}

// ReadingConfig shapes the readings of one unit.
type ReadingConfig struct {
	// ExcursionRate is the probability in [0,1] that a sample is an excursion.
	ExcursionRate float64
}

// DefaultReadingConfig returns a config with a 5% excursion rate.
func DefaultReadingConfig() ReadingConfig {
	return ReadingConfig{ExcursionRate: 0.05}
}

// ReadingSource generates correlated readings for one asset.
type ReadingSource struct {
	gen              *Generator
	baselineTemp     float64
	baselineHumidity float64
	noise            float64
	excursionRate    float64
}

// Readings returns a source whose baseline sits in a typical air-conditioned range.
func (g *Generator) Readings(cfg ReadingConfig) *ReadingSource {
	return &ReadingSource{
		gen:              g,
		baselineTemp:     g.faker.Float64Range(19, 24),
		baselineHumidity: g.faker.Float64Range(40, 55),
		noise:            g.faker.Float64Range(0.2, 1.5),
		excursionRate:    math.Max(0, math.Min(1, cfg.ExcursionRate)),
	}
}

// Next returns the sample for time t.
func (s *ReadingSource) Next(t time.Time) Sample {
	f := s.gen.faker
	hour := float64(t.Hour()) + float64(t.Minute())/60

	// load peaks mid-afternoon; the unit only partly compensates
	dailyCycle := 1.5 * math.Sin((hour-9)*math.Pi/12)
	temperature := s.baselineTemp + dailyCycle + (f.Float64()-0.5)*s.noise

	humidity := s.baselineHumidity - (temperature-s.baselineTemp)*1.2 + (f.Float64()-0.5)*s.noise

	excursion := f.Float64() < s.excursionRate
	if excursion {
		if f.Bool() {
			temperature += f.Float64Range(4, 10)
		} else {
			humidity += f.Float64Range(15, 30)
		}
	}

	return Sample{
		Timestamp:   t.UTC(),
		Temperature: round2(temperature),
		Humidity:    round2(math.Max(5, math.Min(99, humidity))),
		Excursion:   excursion,
	}
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
