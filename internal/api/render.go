package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/a-h/templ"
	"github.com/prometheus/client_golang/prometheus"
)

func (a *API) handleDashboardPage(w http.ResponseWriter, r *http.Request) {
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

	var buf bytes.Buffer
	if err := a.renderTemplate(r.Context(), &buf, "dashboard", dashboardPage(summary, time.Now())); err != nil {
		a.log(r).Error("failed to render dashboard", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		a.log(r).Error("failed to write dashboard", "error", err)
	}
}

// renderTemplate renders c and records its duration and failures.
func (a *API) renderTemplate(ctx context.Context, w io.Writer, name string, c templ.Component) error {
	if a.metrics == nil {
		return c.Render(ctx, w)
	}
	timer := prometheus.NewTimer(a.metrics.TemplateRenderTime.WithLabelValues(name))
	defer timer.ObserveDuration()

	if err := c.Render(ctx, w); err != nil {
		a.metrics.TemplateRenderErrors.WithLabelValues(name).Inc()
		return err
	}
	return nil
}

func formatMeasure(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
