package monitor

import (
	"context"
	"errors"
	"sort"
)

// Resolver finds the threshold rules that apply to an asset.
type Resolver struct {
	rules RuleStore
}

// NewResolver creates a Resolver backed by the given rule store.
func NewResolver(rules RuleStore) (*Resolver, error) {
	if rules == nil {
		return nil, errors.New("rule store cannot be nil")
	}
	return &Resolver{rules: rules}, nil
}

// Resolve returns every global rule plus every rule specific to assetID, ordered by rule id.
// Inactive rules are included.
func (r *Resolver) Resolve(ctx context.Context, assetID uint) ([]ThresholdRule, error) {
	rules, err := r.rules.RulesByScope(ctx, GlobalScope(), SpecificScope(assetID))
	if err != nil {
		return nil, storeErr("resolve rules", err)
	}
	return ApplicableRules(rules, assetID), nil
}

// ApplicableRules returns the rules of the candidate set whose scope covers assetID,
// without duplicates and ordered by rule id.
func ApplicableRules(candidates []ThresholdRule, assetID uint) []ThresholdRule {
	seen := make(map[uint]struct{}, len(candidates))
	out := make([]ThresholdRule, 0, len(candidates))
	for _, rule := range candidates {
		if !rule.Scope.Covers(assetID) {
			continue
		}
		if _, dup := seen[rule.ID]; dup {
			continue
		}
		seen[rule.ID] = struct{}{}
		out = append(out, rule)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
