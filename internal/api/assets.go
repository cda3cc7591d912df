package api

import (
	"net/http"
	"strings"
	"time"

	"procodus.dev/climate-monitor/internal/monitor"
)

type assetInput struct {
	InstalledOn *string `json:"installed_on"`
	Name        string  `json:"name"`
	Location    string  `json:"location"`
	Kind        string  `json:"kind"`
}

func (in assetInput) validate() (monitor.Asset, error) {
	asset := monitor.Asset{
		Name:     strings.TrimSpace(in.Name),
		Location: strings.TrimSpace(in.Location),
	}
	if asset.Name == "" {
		return monitor.Asset{}, &monitor.ValidationError{Field: "name", Reason: "is required"}
	}
	if asset.Location == "" {
		return monitor.Asset{}, &monitor.ValidationError{Field: "location", Reason: "is required"}
	}
	kind, err := monitor.ParseAssetKind(in.Kind)
	if err != nil {
		return monitor.Asset{}, err
	}
	asset.Kind = kind
	if in.InstalledOn != nil && *in.InstalledOn != "" {
		t, err := time.Parse(time.DateOnly, *in.InstalledOn)
		if err != nil {
			return monitor.Asset{}, &monitor.ValidationError{Field: "installed_on", Reason: "must be a YYYY-MM-DD date"}
		}
		asset.InstalledOn = t
	}
	return asset, nil
}

func (a *API) handleListAssets(w http.ResponseWriter, r *http.Request) {
	filter := monitor.AssetFilter{Location: strings.TrimSpace(r.URL.Query().Get("location"))}
	if kind := r.URL.Query().Get("kind"); kind != "" {
		parsed, err := monitor.ParseAssetKind(kind)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		filter.Kind = parsed
	}
	assets, err := a.backend.ListAssets(r.Context(), filter)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if assets == nil {
		assets = []monitor.Asset{}
	}
	a.writeJSON(w, r, http.StatusOK, assets)
}

func (a *API) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	asset, err := a.backend.GetAsset(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusOK, asset)
}

func (a *API) handleCreateAsset(w http.ResponseWriter, r *http.Request) {
	var in assetInput
	if err := decodeJSON(r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}
	asset, err := in.validate()
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.backend.CreateAsset(r.Context(), &asset); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.log(r).Info("asset created", "asset_id", asset.ID, "name", asset.Name)
	a.writeJSON(w, r, http.StatusCreated, asset)
}

func (a *API) handleUpdateAsset(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var in assetInput
	if err := decodeJSON(r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}
	asset, err := in.validate()
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	asset.ID = id
	if err := a.backend.UpdateAsset(r.Context(), &asset); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.log(r).Info("asset updated", "asset_id", id)
	a.writeJSON(w, r, http.StatusOK, asset)
}

func (a *API) handleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.backend.DeleteAsset(r.Context(), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.log(r).Info("asset deleted", "asset_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := a.backend.Locations(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusOK, locations)
}
