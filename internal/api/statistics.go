package api

import (
	"net/http"
	"strings"

	"procodus.dev/climate-monitor/internal/monitor"
)

func (a *API) statistics(b Backend) (*monitor.Statistics, error) {
	return monitor.NewStatistics(b, b)
}

func (a *API) handleGlobalStatistics(w http.ResponseWriter, r *http.Request) {
	var result monitor.GlobalStatistics
	err := a.snapshot(r.Context(), func(b Backend) error {
		stats, err := a.statistics(b)
		if err != nil {
			return err
		}
		result, err = stats.Global(r.Context())
		return err
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusOK, result)
}

func (a *API) handleAssetStatistics(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	var summary monitor.StatisticsSummary
	err = a.snapshot(r.Context(), func(b Backend) error {
		stats, err := a.statistics(b)
		if err != nil {
			return err
		}
		summary, err = stats.ForAsset(r.Context(), id)
		return err
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusOK, assetStatistics{AssetID: id, Summary: summary})
}

type assetStatistics struct {
	Summary monitor.StatisticsSummary `json:"summary"`
	AssetID uint                      `json:"asset_id"`
}

func (a *API) handleLocationStatistics(w http.ResponseWriter, r *http.Request) {
	location := strings.TrimSpace(r.PathValue("location"))

	var result monitor.LocationStatistics
	err := a.snapshot(r.Context(), func(b Backend) error {
		stats, err := a.statistics(b)
		if err != nil {
			return err
		}
		result, err = stats.ForLocation(r.Context(), location)
		return err
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusOK, result)
}

func (a *API) handleLocationsStatistics(w http.ResponseWriter, r *http.Request) {
	var result []monitor.LocationStatistics
	err := a.snapshot(r.Context(), func(b Backend) error {
		stats, err := a.statistics(b)
		if err != nil {
			return err
		}
		result, err = stats.ByLocation(r.Context())
		return err
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusOK, result)
}
