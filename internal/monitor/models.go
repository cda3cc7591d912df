// Package monitor implements threshold alerting and reading statistics for monitored assets.
//
// Every operation is a read-and-compute over the stores handed to it; the package keeps no
// state between calls, so alerts are recomputed from the current readings and rules each time.
package monitor

import (
	"sort"
	"strings"
	"time"
)

// AssetKind tells air-conditioning units apart from other monitored equipment.
type AssetKind string

const (
	KindAirConditioner AssetKind = "air_conditioner"
	KindOther          AssetKind = "other"
)

// ParseAssetKind parses a kind name case-insensitively. An empty name is an air conditioner.
func ParseAssetKind(s string) (AssetKind, error) {
	switch kind := AssetKind(strings.ToLower(strings.TrimSpace(s))); kind {
	case "":
		return KindAirConditioner, nil
	case KindAirConditioner, KindOther:
		return kind, nil
	default:
		return "", &ValidationError{Field: "kind", Reason: "must be air_conditioner or other"}
	}
}

// Asset is a monitored unit: an air-conditioning unit or other equipment.
type Asset struct {
	InstalledOn time.Time `json:"installed_on"`
	Name        string    `json:"name"`
	Location    string    `json:"location"`
	Kind        AssetKind `json:"kind"`
	ID          uint      `json:"id"`
}

// Reading is one timestamped temperature/humidity sample for an asset.
type Reading struct {
	Timestamp   time.Time `json:"timestamp"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	ID          uint      `json:"id"`
	AssetID     uint      `json:"asset_id"`
}

// newerThan reports whether r is more recent than other.
// Equal timestamps are ordered by reading id, highest first.
func (r Reading) newerThan(other Reading) bool {
	if !r.Timestamp.Equal(other.Timestamp) {
		return r.Timestamp.After(other.Timestamp)
	}
	return r.ID > other.ID
}

func sortNewestFirst(readings []Reading) {
	sort.SliceStable(readings, func(i, j int) bool { return readings[i].newerThan(readings[j]) })
}

// Maintenance is a maintenance record for an asset.
type Maintenance struct {
	PerformedAt time.Time `json:"performed_at"`
	Kind        string    `json:"kind"`
	Description string    `json:"description"`
	Technician  string    `json:"technician"`
	ID          uint      `json:"id"`
	AssetID     uint      `json:"asset_id"`
}

type scopeKind uint8

const (
	scopeUnset scopeKind = iota
	scopeGlobal
	scopeSpecific
)

// Scope selects which assets a threshold rule applies to: every asset, or exactly one.
// The zero Scope is invalid and rejected by rule validation.
type Scope struct {
	assetID uint
	kind    scopeKind
}

// GlobalScope returns the scope covering all assets.
func GlobalScope() Scope {
	return Scope{kind: scopeGlobal}
}

// SpecificScope returns the scope covering a single asset.
func SpecificScope(assetID uint) Scope {
	return Scope{kind: scopeSpecific, assetID: assetID}
}

// IsGlobal reports whether the scope covers all assets.
func (s Scope) IsGlobal() bool {
	return s.kind == scopeGlobal
}

// AssetID returns the target asset of a specific scope.
func (s Scope) AssetID() (uint, bool) {
	if s.kind != scopeSpecific {
		return 0, false
	}
	return s.assetID, true
}

// Covers reports whether the scope applies to the given asset.
func (s Scope) Covers(assetID uint) bool {
	switch s.kind {
	case scopeGlobal:
		return true
	case scopeSpecific:
		return s.assetID == assetID
	default:
		return false
	}
}

func (s Scope) valid() bool {
	switch s.kind {
	case scopeGlobal:
		return true
	case scopeSpecific:
		return s.assetID != 0
	default:
		return false
	}
}

// ThresholdRule is an acceptable temperature and humidity range for its scope.
type ThresholdRule struct {
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Name         string
	Scope        Scope
	TempMin      float64
	TempMax      float64
	HumMin       float64
	HumMax       float64
	ID           uint
	NotifyActive bool
}

// Dimension is the measured quantity a violation refers to.
type Dimension string

// Direction tells which bound of the range was breached.
type Direction string

const (
	DimensionTemperature Dimension = "temperature"
	DimensionHumidity    Dimension = "humidity"

	DirectionBelowMin Direction = "below_min"
	DirectionAboveMax Direction = "above_max"
)

// Violation is a single bound breach: one rule, one dimension, one reading.
type Violation struct {
	RuleName  string    `json:"rule_name"`
	Dimension Dimension `json:"dimension"`
	Direction Direction `json:"direction"`
	Observed  float64   `json:"observed_value"`
	Bound     float64   `json:"bound_violated"`
	RuleID    uint      `json:"rule_id"`
}

// AssetAlertState is the evaluation result for one asset's latest reading.
type AssetAlertState struct {
	Violations []Violation `json:"violations"`
	Reading    Reading     `json:"reading"`
	AssetID    uint        `json:"asset_id"`
	HasAlert   bool        `json:"has_alert"`
}

// DimensionStats holds descriptive statistics for one measured quantity.
type DimensionStats struct {
	Mean   float64 `json:"mean"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"stddev"`
}

// StatisticsSummary describes a set of readings. All fields are zero when Count is zero.
type StatisticsSummary struct {
	Temperature DimensionStats `json:"temperature"`
	Humidity    DimensionStats `json:"humidity"`
	Count       int64          `json:"count"`
}

// LocationStatistics is a StatisticsSummary restricted to the assets of one location.
type LocationStatistics struct {
	Location   string            `json:"location"`
	Summary    StatisticsSummary `json:"summary"`
	AssetCount int               `json:"asset_count"`
}

// GlobalStatistics is the StatisticsSummary over every reading.
type GlobalStatistics struct {
	Summary       StatisticsSummary `json:"summary"`
	TotalReadings int64             `json:"total_readings"`
}

// EnrichedReading is a reading joined with the asset's current identity.
type EnrichedReading struct {
	Reading
	AssetName     string `json:"asset_name"`
	AssetLocation string `json:"asset_location"`
}

// DashboardSummary is the payload of the dashboard view.
type DashboardSummary struct {
	RecentReadings   []EnrichedReading `json:"recent_readings"`
	AssetCount       int64             `json:"asset_count"`
	ReadingCount     int64             `json:"reading_count"`
	MaintenanceCount int64             `json:"maintenance_count"`
	ActiveAlertCount int               `json:"active_alert_count"`
}
