package api

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"procodus.dev/climate-monitor/internal/export"
)

// dataset loads everything an export contains from one snapshot.
func (a *API) dataset(r *http.Request) (*export.Dataset, error) {
	var ds *export.Dataset
	err := a.snapshot(r.Context(), func(b Backend) error {
		var err error
		ds, err = export.Collect(r.Context(), b, time.Now())
		return err
	})
	return ds, err
}

func (a *API) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	ds, err := a.dataset(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, ds); err != nil {
		a.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+format.Filename(ds.GeneratedAt)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		a.log(r).Error("failed to write export", "error", err)
	}
	a.log(r).Info("export generated", "format", format, "readings", len(ds.Readings))
}
