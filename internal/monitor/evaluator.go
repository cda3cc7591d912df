package monitor

import (
	"context"
	"errors"
)

// Evaluator computes alert states from the latest reading of each asset.
type Evaluator struct {
	readings ReadingStore
	rules    RuleStore
}

// NewEvaluator creates an Evaluator over the given stores.
func NewEvaluator(readings ReadingStore, rules RuleStore) (*Evaluator, error) {
	if readings == nil {
		return nil, errors.New("reading store cannot be nil")
	}
	if rules == nil {
		return nil, errors.New("rule store cannot be nil")
	}
	return &Evaluator{readings: readings, rules: rules}, nil
}

// Evaluate returns the alert state of each listed asset that has at least one reading.
// Assets without readings are absent from the result.
func (e *Evaluator) Evaluate(ctx context.Context, assetIDs []uint) (map[uint]AssetAlertState, error) {
	if len(assetIDs) == 0 {
		return map[uint]AssetAlertState{}, nil
	}
	return e.evaluate(ctx, ReadingFilter{AssetIDs: assetIDs})
}

// EvaluateAll returns the alert state of every asset that has at least one reading.
func (e *Evaluator) EvaluateAll(ctx context.Context) (map[uint]AssetAlertState, error) {
	return e.evaluate(ctx, ReadingFilter{})
}

func (e *Evaluator) evaluate(ctx context.Context, filter ReadingFilter) (map[uint]AssetAlertState, error) {
	candidates, err := e.readings.LatestReadings(ctx, filter)
	if err != nil {
		return nil, storeErr("load latest readings", err)
	}
	latest := LatestPerAsset(candidates)
	if len(latest) == 0 {
		return map[uint]AssetAlertState{}, nil
	}

	rules, err := e.rules.RulesByScope(ctx)
	if err != nil {
		return nil, storeErr("load rules", err)
	}
	active := make([]ThresholdRule, 0, len(rules))
	for _, rule := range rules {
		if rule.NotifyActive {
			active = append(active, rule)
		}
	}

	states := make(map[uint]AssetAlertState, len(latest))
	for assetID, reading := range latest {
		states[assetID] = alertState(reading, ApplicableRules(active, assetID))
	}
	return states, nil
}

// ActiveAlertCount returns the number of alerting assets. Each asset counts once
// no matter how many rules or dimensions it violates.
func ActiveAlertCount(states map[uint]AssetAlertState) int {
	count := 0
	for _, state := range states {
		if state.HasAlert {
			count++
		}
	}
	return count
}

// LatestPerAsset keeps the most recent reading of each asset.
// Equal timestamps are broken by the highest reading id.
func LatestPerAsset(readings []Reading) map[uint]Reading {
	latest := make(map[uint]Reading, len(readings))
	for _, r := range readings {
		current, ok := latest[r.AssetID]
		if !ok || r.newerThan(current) {
			latest[r.AssetID] = r
		}
	}
	return latest
}

// CheckReading tests a reading against the rules that are active, in the given order.
// Bounds are inclusive: a value equal to a bound is not a violation.
func CheckReading(reading Reading, rules []ThresholdRule) []Violation {
	violations := make([]Violation, 0)
	for _, rule := range rules {
		if !rule.NotifyActive {
			continue
		}
		if v, ok := checkBound(rule, DimensionTemperature, reading.Temperature, rule.TempMin, rule.TempMax); ok {
			violations = append(violations, v)
		}
		if v, ok := checkBound(rule, DimensionHumidity, reading.Humidity, rule.HumMin, rule.HumMax); ok {
			violations = append(violations, v)
		}
	}
	return violations
}

func checkBound(rule ThresholdRule, dim Dimension, value, lower, upper float64) (Violation, bool) {
	v := Violation{
		RuleID:    rule.ID,
		RuleName:  rule.Name,
		Dimension: dim,
		Observed:  value,
	}
	switch {
	case value < lower:
		v.Bound = lower
		v.Direction = DirectionBelowMin
	case value > upper:
		v.Bound = upper
		v.Direction = DirectionAboveMax
	default:
		return Violation{}, false
	}
	return v, true
}

func alertState(reading Reading, rules []ThresholdRule) AssetAlertState {
	violations := CheckReading(reading, rules)
	return AssetAlertState{
		AssetID:    reading.AssetID,
		Reading:    reading,
		HasAlert:   len(violations) > 0,
		Violations: violations,
	}
}
