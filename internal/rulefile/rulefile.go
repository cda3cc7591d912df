// Package rulefile reads threshold rules from YAML files.
//
// A rule file holds a single "rules" list:
//
//	rules:
//	  - name: Default
//	    is_global: true
//	    temp_min: 18
//	    temp_max: 27
//	    hum_min: 30
//	    hum_max: 65
//	  - name: Server room
//	    asset_id: 3
//	    temp_min: 18
//	    temp_max: 24
//	    hum_min: 40
//	    hum_max: 55
//	    notify_active: false
package rulefile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"procodus.dev/climate-monitor/internal/monitor"
)

type document struct {
	Rules []monitor.RuleInput `yaml:"rules"`
}

// Decode parses a rule file. Unknown keys are an error.
func Decode(r io.Reader) ([]monitor.RuleInput, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("rule file is empty")
		}
		return nil, fmt.Errorf("failed to parse rule file: %w", err)
	}
	if len(doc.Rules) == 0 {
		return nil, errors.New("rule file has no rules")
	}
	return doc.Rules, nil
}

// Load reads and parses the rule file at path.
func Load(path string) ([]monitor.RuleInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rule file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Validate checks every input and reports all failures, numbered from 1.
func Validate(inputs []monitor.RuleInput) error {
	var errs []error
	for i, in := range inputs {
		if _, err := in.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("rule %d (%q): %w", i+1, in.Name, err))
		}
	}
	return errors.Join(errs...)
}

// Creator checks and stores rules.
type Creator interface {
	Check(ctx context.Context, in monitor.RuleInput) error
	Create(ctx context.Context, in monitor.RuleInput) (monitor.ThresholdRule, error)
}

// Import checks every input, including that the assets of specific rules exist, and then
// creates them in order. Nothing is created when any check fails; a store failure during
// the creates stops the import and returns the rules created so far.
func Import(ctx context.Context, creator Creator, inputs []monitor.RuleInput) ([]monitor.ThresholdRule, error) {
	if err := Validate(inputs); err != nil {
		return nil, err
	}
	var errs []error
	for i, in := range inputs {
		if err := creator.Check(ctx, in); err != nil {
			errs = append(errs, fmt.Errorf("rule %d (%q): %w", i+1, in.Name, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	created := make([]monitor.ThresholdRule, 0, len(inputs))
	for i, in := range inputs {
		rule, err := creator.Create(ctx, in)
		if err != nil {
			return created, fmt.Errorf("rule %d (%q): %w", i+1, in.Name, err)
		}
		created = append(created, rule)
	}
	return created, nil
}
