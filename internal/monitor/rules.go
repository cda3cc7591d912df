package monitor

import (
	"context"
	"errors"
	"sort"
	"strings"
)

// RuleInput is the operator-supplied content of a threshold rule.
// Pointer fields distinguish "absent" from zero.
type RuleInput struct {
	TempMin      *float64 `json:"temp_min" yaml:"temp_min"`
	TempMax      *float64 `json:"temp_max" yaml:"temp_max"`
	HumMin       *float64 `json:"hum_min" yaml:"hum_min"`
	HumMax       *float64 `json:"hum_max" yaml:"hum_max"`
	AssetID      *uint    `json:"asset_id" yaml:"asset_id"`
	NotifyActive *bool    `json:"notify_active" yaml:"notify_active"`
	Name         string   `json:"name" yaml:"name"`
	IsGlobal     bool     `json:"is_global" yaml:"is_global"`
}

// Validate checks the input and converts it to a rule without id or timestamps.
func (in RuleInput) Validate() (ThresholdRule, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return ThresholdRule{}, &ValidationError{Field: "name", Reason: "is required"}
	}

	bounds := []struct {
		field string
		value *float64
	}{
		{"temp_min", in.TempMin},
		{"temp_max", in.TempMax},
		{"hum_min", in.HumMin},
		{"hum_max", in.HumMax},
	}
	for _, b := range bounds {
		if b.value == nil {
			return ThresholdRule{}, &ValidationError{Field: b.field, Reason: "is required"}
		}
	}

	var scope Scope
	switch {
	case in.IsGlobal && in.AssetID != nil:
		return ThresholdRule{}, &ValidationError{Field: "asset_id", Reason: "must be empty for a global rule"}
	case in.IsGlobal:
		scope = GlobalScope()
	case in.AssetID == nil || *in.AssetID == 0:
		return ThresholdRule{}, &ValidationError{Field: "asset_id", Reason: "is required for a specific rule"}
	default:
		scope = SpecificScope(*in.AssetID)
	}

	notify := true
	if in.NotifyActive != nil {
		notify = *in.NotifyActive
	}

	rule := ThresholdRule{
		Name:         name,
		Scope:        scope,
		TempMin:      *in.TempMin,
		TempMax:      *in.TempMax,
		HumMin:       *in.HumMin,
		HumMax:       *in.HumMax,
		NotifyActive: notify,
	}
	if err := ValidateRule(rule); err != nil {
		return ThresholdRule{}, err
	}
	return rule, nil
}

// ValidateRule checks the invariants every stored rule must satisfy.
func ValidateRule(rule ThresholdRule) error {
	if !rule.Scope.valid() {
		return &ValidationError{Field: "scope", Reason: "must be global or name an asset"}
	}
	if rule.TempMin >= rule.TempMax {
		return &ValidationError{Field: "temp_min", Reason: "must be less than temp_max"}
	}
	if rule.HumMin >= rule.HumMax {
		return &ValidationError{Field: "hum_min", Reason: "must be less than hum_max"}
	}
	return nil
}

// RuleFilter selects which rules List returns.
type RuleFilter struct {
	// AssetID restricts the list to the rules applicable to this asset.
	AssetID *uint
	// GlobalOnly restricts the list to global rules.
	GlobalOnly bool
}

// Rules manages threshold rules. Writes are validated before they reach the store.
type Rules struct {
	rules    RuleStore
	assets   AssetStore
	resolver *Resolver
}

// NewRules creates a Rules service over the given stores.
func NewRules(rules RuleStore, assets AssetStore) (*Rules, error) {
	if assets == nil {
		return nil, errors.New("asset store cannot be nil")
	}
	resolver, err := NewResolver(rules)
	if err != nil {
		return nil, err
	}
	return &Rules{rules: rules, assets: assets, resolver: resolver}, nil
}

// List returns rules ordered by id.
func (s *Rules) List(ctx context.Context, filter RuleFilter) ([]ThresholdRule, error) {
	switch {
	case filter.AssetID != nil:
		return s.resolver.Resolve(ctx, *filter.AssetID)
	case filter.GlobalOnly:
		rules, err := s.rules.RulesByScope(ctx, GlobalScope())
		if err != nil {
			return nil, storeErr("list rules", err)
		}
		return sortedRules(rules), nil
	default:
		rules, err := s.rules.RulesByScope(ctx)
		if err != nil {
			return nil, storeErr("list rules", err)
		}
		return sortedRules(rules), nil
	}
}

// Get returns one rule.
func (s *Rules) Get(ctx context.Context, id uint) (ThresholdRule, error) {
	rule, err := s.rules.GetRule(ctx, id)
	if err != nil {
		return ThresholdRule{}, storeErr("get rule", err)
	}
	return rule, nil
}

// Check reports whether in could be created: the input is valid and the asset of a
// specific rule exists. Nothing is written.
func (s *Rules) Check(ctx context.Context, in RuleInput) error {
	_, err := s.prepare(ctx, in)
	return err
}

// Create validates and stores a new rule.
func (s *Rules) Create(ctx context.Context, in RuleInput) (ThresholdRule, error) {
	rule, err := s.prepare(ctx, in)
	if err != nil {
		return ThresholdRule{}, err
	}
	if err := s.rules.CreateRule(ctx, &rule); err != nil {
		return ThresholdRule{}, storeErr("create rule", err)
	}
	return rule, nil
}

// Update validates and replaces the content of an existing rule.
func (s *Rules) Update(ctx context.Context, id uint, in RuleInput) (ThresholdRule, error) {
	rule, err := in.Validate()
	if err != nil {
		return ThresholdRule{}, err
	}
	existing, err := s.rules.GetRule(ctx, id)
	if err != nil {
		return ThresholdRule{}, storeErr("get rule", err)
	}
	if err := s.ensureAsset(ctx, rule.Scope); err != nil {
		return ThresholdRule{}, err
	}
	rule.ID = existing.ID
	rule.CreatedAt = existing.CreatedAt
	if err := s.rules.UpdateRule(ctx, &rule); err != nil {
		return ThresholdRule{}, storeErr("update rule", err)
	}
	return rule, nil
}

// Delete removes a rule.
func (s *Rules) Delete(ctx context.Context, id uint) error {
	if err := s.rules.DeleteRule(ctx, id); err != nil {
		return storeErr("delete rule", err)
	}
	return nil
}

func (s *Rules) prepare(ctx context.Context, in RuleInput) (ThresholdRule, error) {
	rule, err := in.Validate()
	if err != nil {
		return ThresholdRule{}, err
	}
	if err := s.ensureAsset(ctx, rule.Scope); err != nil {
		return ThresholdRule{}, err
	}
	return rule, nil
}

func (s *Rules) ensureAsset(ctx context.Context, scope Scope) error {
	assetID, ok := scope.AssetID()
	if !ok {
		return nil
	}
	if _, err := s.assets.GetAsset(ctx, assetID); err != nil {
		return storeErr("get asset", err)
	}
	return nil
}

func sortedRules(rules []ThresholdRule) []ThresholdRule {
	out := make([]ThresholdRule, len(rules))
	copy(out, rules)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
