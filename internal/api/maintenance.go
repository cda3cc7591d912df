package api

import (
	"net/http"
	"strings"
	"time"

	"procodus.dev/climate-monitor/internal/monitor"
)

type maintenanceInput struct {
	PerformedAt *time.Time `json:"performed_at"`
	Kind        string     `json:"kind"`
	Description string     `json:"description"`
	Technician  string     `json:"technician"`
	AssetID     uint       `json:"asset_id"`
}

func (in maintenanceInput) toRecord(now time.Time) (monitor.Maintenance, error) {
	record := monitor.Maintenance{
		AssetID:     in.AssetID,
		PerformedAt: now.UTC(),
		Kind:        strings.TrimSpace(in.Kind),
		Description: strings.TrimSpace(in.Description),
		Technician:  strings.TrimSpace(in.Technician),
	}
	if record.AssetID == 0 {
		return monitor.Maintenance{}, &monitor.ValidationError{Field: "asset_id", Reason: "is required"}
	}
	if record.Kind == "" {
		return monitor.Maintenance{}, &monitor.ValidationError{Field: "kind", Reason: "is required"}
	}
	if in.PerformedAt != nil {
		record.PerformedAt = in.PerformedAt.UTC()
	}
	return record, nil
}

func (a *API) handleListMaintenance(w http.ResponseWriter, r *http.Request) {
	assetID, err := queryID(r, "asset_id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	records, err := a.backend.ListMaintenance(r.Context(), assetID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if records == nil {
		records = []monitor.Maintenance{}
	}
	a.writeJSON(w, r, http.StatusOK, records)
}

func (a *API) handleCreateMaintenance(w http.ResponseWriter, r *http.Request) {
	var in maintenanceInput
	if err := decodeJSON(r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}
	record, err := in.toRecord(time.Now())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.backend.CreateMaintenance(r.Context(), &record); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.log(r).Info("maintenance recorded", "maintenance_id", record.ID, "asset_id", record.AssetID)
	a.writeJSON(w, r, http.StatusCreated, record)
}

func (a *API) handleDeleteMaintenance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.backend.DeleteMaintenance(r.Context(), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.log(r).Info("maintenance deleted", "maintenance_id", id)
	w.WriteHeader(http.StatusNoContent)
}
