package api

import (
	"net/http"
	"sort"

	"procodus.dev/climate-monitor/internal/monitor"
)

type alertCount struct {
	ActiveAlertCount int `json:"active_alert_count"`
}

// evaluate returns the alert states of assetIDs, or of every asset when assetIDs is empty.
func (a *API) evaluate(r *http.Request, assetIDs []uint) (map[uint]monitor.AssetAlertState, error) {
	var states map[uint]monitor.AssetAlertState
	err := a.snapshot(r.Context(), func(b Backend) error {
		evaluator, err := monitor.NewEvaluator(b, b)
		if err != nil {
			return err
		}
		if len(assetIDs) == 0 {
			states, err = evaluator.EvaluateAll(r.Context())
		} else {
			states, err = evaluator.Evaluate(r.Context(), assetIDs)
		}
		return err
	})
	return states, err
}

func (a *API) handleAlertCount(w http.ResponseWriter, r *http.Request) {
	states, err := a.evaluate(r, nil)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	count := monitor.ActiveAlertCount(states)
	a.observeAlerts(count)
	a.writeJSON(w, r, http.StatusOK, alertCount{ActiveAlertCount: count})
}

func (a *API) handleAlerts(w http.ResponseWriter, r *http.Request) {
	ids, err := queryIDs(r, "asset_id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	states, err := a.evaluate(r, ids)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if len(ids) == 0 {
		a.observeAlerts(monitor.ActiveAlertCount(states))
	}

	out := make([]monitor.AssetAlertState, 0, len(states))
	for _, s := range states {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssetID < out[j].AssetID })
	a.writeJSON(w, r, http.StatusOK, out)
}

func (a *API) summarize(r *http.Request, limit int) (monitor.DashboardSummary, error) {
	var summary monitor.DashboardSummary
	err := a.snapshot(r.Context(), func(b Backend) error {
		composer, err := monitor.NewComposer(&monitor.ComposerConfig{
			Readings:    b,
			Rules:       b,
			Assets:      b,
			Maintenance: b,
		})
		if err != nil {
			return err
		}
		summary, err = composer.Summarize(r.Context(), limit)
		return err
	})
	if err == nil {
		a.observeAlerts(summary.ActiveAlertCount)
	}
	return summary, err
}

func (a *API) handleDashboard(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", a.dashboardLimit)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	summary, err := a.summarize(r, limit)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusOK, summary)
}

func (a *API) observeAlerts(count int) {
	if a.metrics != nil {
		a.metrics.ActiveAlerts.Set(float64(count))
	}
}
