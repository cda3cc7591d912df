// Package store persists assets, readings, threshold rules and maintenance records in PostgreSQL
// and implements the store interfaces of the monitor package.
package store

import (
	"time"

	"procodus.dev/climate-monitor/internal/monitor"
)

// Asset is a monitored unit stored in the database.
type Asset struct {
	InstalledOn time.Time       `gorm:"type:date"`
	CreatedAt   time.Time       `gorm:"autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime"`
	Name        string          `gorm:"not null"`
	Location    string          `gorm:"index:idx_asset_location;not null"`
	Kind        string          `gorm:"index:idx_asset_kind;not null;default:air_conditioner"`
	ID          uint            `gorm:"primaryKey"`
	Readings    []Reading       `gorm:"foreignKey:AssetID;constraint:OnDelete:CASCADE"`
	Maintenance []Maintenance   `gorm:"foreignKey:AssetID;constraint:OnDelete:CASCADE"`
	Rules       []ThresholdRule `gorm:"foreignKey:AssetID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for Asset model.
func (Asset) TableName() string {
	return "assets"
}

func (a Asset) toDomain() monitor.Asset {
	return monitor.Asset{
		InstalledOn: a.InstalledOn,
		Name:        a.Name,
		Location:    a.Location,
		Kind:        monitor.AssetKind(a.Kind),
		ID:          a.ID,
	}
}

func assetFromDomain(a monitor.Asset) Asset {
	kind := a.Kind
	if kind == "" {
		kind = monitor.KindAirConditioner
	}
	return Asset{
		InstalledOn: a.InstalledOn,
		Name:        a.Name,
		Location:    a.Location,
		Kind:        string(kind),
		ID:          a.ID,
	}
}

// Reading is a temperature and humidity sample stored in the database.
type Reading struct {
	Timestamp   time.Time `gorm:"index:idx_reading_asset_timestamp,priority:2;index:idx_reading_timestamp;not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	Temperature float64   `gorm:"not null"`
	Humidity    float64   `gorm:"not null"`
	ID          uint      `gorm:"primaryKey"`
	AssetID     uint      `gorm:"index:idx_reading_asset_timestamp,priority:1;not null"`
}

// TableName specifies the table name for Reading model.
func (Reading) TableName() string {
	return "readings"
}

func (r Reading) toDomain() monitor.Reading {
	return monitor.Reading{
		Timestamp:   r.Timestamp.UTC(),
		Temperature: r.Temperature,
		Humidity:    r.Humidity,
		ID:          r.ID,
		AssetID:     r.AssetID,
	}
}

func readingsToDomain(rows []Reading) []monitor.Reading {
	out := make([]monitor.Reading, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out
}

// ThresholdRule is a threshold rule stored in the database.
// AssetID is NULL exactly when IsGlobal is set.
type ThresholdRule struct {
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
	AssetID      *uint     `gorm:"index:idx_rule_asset"`
	Name         string    `gorm:"not null"`
	TempMin      float64   `gorm:"not null;check:chk_rule_temp_range,temp_min < temp_max"`
	TempMax      float64   `gorm:"not null"`
	HumMin       float64   `gorm:"not null;check:chk_rule_hum_range,hum_min < hum_max"`
	HumMax       float64   `gorm:"not null"`
	ID           uint      `gorm:"primaryKey"`
	IsGlobal     bool      `gorm:"not null;default:false;check:chk_rule_scope,(is_global AND asset_id IS NULL) OR (NOT is_global AND asset_id IS NOT NULL)"`
	NotifyActive bool      `gorm:"not null;default:true"`
}

// TableName specifies the table name for ThresholdRule model.
func (ThresholdRule) TableName() string {
	return "threshold_rules"
}

func (r ThresholdRule) toDomain() monitor.ThresholdRule {
	scope := monitor.GlobalScope()
	if !r.IsGlobal && r.AssetID != nil {
		scope = monitor.SpecificScope(*r.AssetID)
	}
	return monitor.ThresholdRule{
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
		Name:         r.Name,
		Scope:        scope,
		TempMin:      r.TempMin,
		TempMax:      r.TempMax,
		HumMin:       r.HumMin,
		HumMax:       r.HumMax,
		ID:           r.ID,
		NotifyActive: r.NotifyActive,
	}
}

func ruleFromDomain(r monitor.ThresholdRule) ThresholdRule {
	row := ThresholdRule{
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		Name:         r.Name,
		TempMin:      r.TempMin,
		TempMax:      r.TempMax,
		HumMin:       r.HumMin,
		HumMax:       r.HumMax,
		ID:           r.ID,
		IsGlobal:     r.Scope.IsGlobal(),
		NotifyActive: r.NotifyActive,
	}
	if id, ok := r.Scope.AssetID(); ok {
		row.AssetID = &id
	}
	return row
}

// Maintenance is a maintenance record stored in the database.
type Maintenance struct {
	PerformedAt time.Time `gorm:"index:idx_maintenance_performed_at;not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	Kind        string    `gorm:"not null"`
	Description string
	Technician  string
	ID          uint `gorm:"primaryKey"`
	AssetID     uint `gorm:"index:idx_maintenance_asset;not null"`
}

// TableName specifies the table name for Maintenance model.
func (Maintenance) TableName() string {
	return "maintenance_records"
}

func (m Maintenance) toDomain() monitor.Maintenance {
	return monitor.Maintenance{
		PerformedAt: m.PerformedAt.UTC(),
		Kind:        m.Kind,
		Description: m.Description,
		Technician:  m.Technician,
		ID:          m.ID,
		AssetID:     m.AssetID,
	}
}
