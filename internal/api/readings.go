package api

import (
	"fmt"
	"net/http"
	"time"

	"procodus.dev/climate-monitor/internal/monitor"
	"procodus.dev/climate-monitor/internal/store"
)

const (
	// DefaultReadingsLimit bounds GET /api/readings when no limit is given.
	DefaultReadingsLimit = 100
	// MaxReadingsLimit is the largest limit GET /api/readings accepts.
	MaxReadingsLimit = 1000
)

type readingInput struct {
	Timestamp   *time.Time `json:"timestamp"`
	Temperature *float64   `json:"temperature"`
	Humidity    *float64   `json:"humidity"`
	AssetID     uint       `json:"asset_id"`
}

func (in readingInput) toReading(now time.Time) (monitor.Reading, error) {
	if in.Temperature == nil {
		return monitor.Reading{}, &monitor.ValidationError{Field: "temperature", Reason: "is required"}
	}
	if in.Humidity == nil {
		return monitor.Reading{}, &monitor.ValidationError{Field: "humidity", Reason: "is required"}
	}
	ts := now
	if in.Timestamp != nil {
		ts = *in.Timestamp
	}
	return monitor.Reading{
		AssetID:     in.AssetID,
		Timestamp:   ts.UTC(),
		Temperature: *in.Temperature,
		Humidity:    *in.Humidity,
	}, nil
}

func (a *API) handleListReadings(w http.ResponseWriter, r *http.Request) {
	assetID, err := queryID(r, "asset_id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", DefaultReadingsLimit)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if limit <= 0 || limit > MaxReadingsLimit {
		a.writeError(w, r, &monitor.ValidationError{Field: "limit", Reason: fmt.Sprintf("must be between 1 and %d", MaxReadingsLimit)})
		return
	}
	readings, err := a.backend.ListReadings(r.Context(), store.ReadingQuery{AssetID: assetID, Limit: limit})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if readings == nil {
		readings = []monitor.Reading{}
	}
	a.writeJSON(w, r, http.StatusOK, readings)
}

// handleCreateReading stores a manually entered reading and answers with its immediate threshold check.
func (a *API) handleCreateReading(w http.ResponseWriter, r *http.Request) {
	var in readingInput
	if err := decodeJSON(r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}
	reading, err := in.toReading(time.Now())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	recorder, err := monitor.NewRecorder(a.backend, a.backend)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	checked, err := recorder.Record(r.Context(), reading)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.log(r).Info("reading recorded",
		"reading_id", checked.Reading.ID,
		"asset_id", checked.Reading.AssetID,
		"has_alert", checked.HasAlert,
	)
	a.writeJSON(w, r, http.StatusCreated, checked)
}

func (a *API) handleDeleteReading(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.backend.DeleteReading(r.Context(), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.log(r).Info("reading deleted", "reading_id", id)
	w.WriteHeader(http.StatusNoContent)
}
