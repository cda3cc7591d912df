package api

import (
	"net/http"
	"strconv"
	"time"

	"procodus.dev/climate-monitor/internal/monitor"
)

// ruleJSON is the persisted representation of a threshold rule. AssetID is null iff IsGlobal.
type ruleJSON struct {
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	AssetID      *uint     `json:"asset_id"`
	Name         string    `json:"name"`
	TempMin      float64   `json:"temp_min"`
	TempMax      float64   `json:"temp_max"`
	HumMin       float64   `json:"hum_min"`
	HumMax       float64   `json:"hum_max"`
	ID           uint      `json:"id"`
	IsGlobal     bool      `json:"is_global"`
	NotifyActive bool      `json:"notify_active"`
}

func toRuleJSON(r monitor.ThresholdRule) ruleJSON {
	out := ruleJSON{
		ID:           r.ID,
		Name:         r.Name,
		IsGlobal:     r.Scope.IsGlobal(),
		TempMin:      r.TempMin,
		TempMax:      r.TempMax,
		HumMin:       r.HumMin,
		HumMax:       r.HumMax,
		NotifyActive: r.NotifyActive,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if id, ok := r.Scope.AssetID(); ok {
		out.AssetID = &id
	}
	return out
}

func toRulesJSON(rules []monitor.ThresholdRule) []ruleJSON {
	out := make([]ruleJSON, len(rules))
	for i, r := range rules {
		out[i] = toRuleJSON(r)
	}
	return out
}

func (a *API) rules() (*monitor.Rules, error) {
	return monitor.NewRules(a.backend, a.backend)
}

func (a *API) handleListRules(w http.ResponseWriter, r *http.Request) {
	assetID, err := queryID(r, "asset_id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	filter := monitor.RuleFilter{AssetID: assetID}
	if raw := r.URL.Query().Get("global_only"); raw != "" {
		globalOnly, err := strconv.ParseBool(raw)
		if err != nil {
			a.writeError(w, r, &monitor.ValidationError{Field: "global_only", Reason: "must be a boolean"})
			return
		}
		filter.GlobalOnly = globalOnly
	}
	if filter.AssetID != nil && filter.GlobalOnly {
		a.writeError(w, r, &monitor.ValidationError{Field: "global_only", Reason: "cannot be combined with asset_id"})
		return
	}

	svc, err := a.rules()
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	rules, err := svc.List(r.Context(), filter)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusOK, toRulesJSON(rules))
}

func (a *API) handleGetRule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	svc, err := a.rules()
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	rule, err := svc.Get(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusOK, toRuleJSON(rule))
}

func (a *API) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var in monitor.RuleInput
	if err := decodeJSON(r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}
	svc, err := a.rules()
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	rule, err := svc.Create(r.Context(), in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.log(r).Info("threshold rule created", "rule_id", rule.ID, "name", rule.Name)
	a.writeJSON(w, r, http.StatusCreated, toRuleJSON(rule))
}

func (a *API) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var in monitor.RuleInput
	if err := decodeJSON(r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}
	svc, err := a.rules()
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	rule, err := svc.Update(r.Context(), id, in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.log(r).Info("threshold rule updated", "rule_id", rule.ID)
	a.writeJSON(w, r, http.StatusOK, toRuleJSON(rule))
}

func (a *API) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	svc, err := a.rules()
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := svc.Delete(r.Context(), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.log(r).Info("threshold rule deleted", "rule_id", id)
	w.WriteHeader(http.StatusNoContent)
}
