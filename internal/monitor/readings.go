package monitor

import (
	"context"
	"errors"
	"math"
)

// ValidateReading checks a reading before it is stored.
func ValidateReading(r Reading) error {
	switch {
	case r.AssetID == 0:
		return &ValidationError{Field: "asset_id", Reason: "is required"}
	case r.Timestamp.IsZero():
		return &ValidationError{Field: "timestamp", Reason: "is required"}
	case math.IsNaN(r.Temperature) || math.IsInf(r.Temperature, 0):
		return &ValidationError{Field: "temperature", Reason: "must be a finite number"}
	case math.IsNaN(r.Humidity) || r.Humidity < 0 || r.Humidity > 100:
		return &ValidationError{Field: "humidity", Reason: "must be between 0 and 100"}
	}
	return nil
}

// ReadingWriter appends readings.
type ReadingWriter interface {
	CreateReading(ctx context.Context, reading *Reading) error
}

// CheckedReading is a stored reading with the violations it raised against the active rules.
type CheckedReading struct {
	Violations []Violation `json:"violations"`
	Reading    Reading     `json:"reading"`
	HasAlert   bool        `json:"has_alert"`
}

// Recorder stores readings and checks each one against the rules of its asset.
type Recorder struct {
	writer   ReadingWriter
	resolver *Resolver
}

// NewRecorder creates a Recorder.
func NewRecorder(writer ReadingWriter, rules RuleStore) (*Recorder, error) {
	if writer == nil {
		return nil, errors.New("reading writer cannot be nil")
	}
	resolver, err := NewResolver(rules)
	if err != nil {
		return nil, err
	}
	return &Recorder{writer: writer, resolver: resolver}, nil
}

// Record validates reading, resolves the rules of its asset and stores it. The reading is
// written last, so a failed lookup leaves nothing behind.
func (r *Recorder) Record(ctx context.Context, reading Reading) (CheckedReading, error) {
	if err := ValidateReading(reading); err != nil {
		return CheckedReading{}, err
	}
	reading.Timestamp = reading.Timestamp.UTC()
	rules, err := r.resolver.Resolve(ctx, reading.AssetID)
	if err != nil {
		return CheckedReading{}, err
	}
	if err := r.writer.CreateReading(ctx, &reading); err != nil {
		return CheckedReading{}, storeErr("create reading", err)
	}
	violations := CheckReading(reading, rules)
	return CheckedReading{
		Reading:    reading,
		Violations: violations,
		HasAlert:   len(violations) > 0,
	}, nil
}
