// Package api serves the climate monitor over HTTP: JSON endpoints under /api, the dashboard
// page at / and Prometheus metrics at /metrics.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"procodus.dev/climate-monitor/internal/auth"
	"procodus.dev/climate-monitor/internal/monitor"
	"procodus.dev/climate-monitor/internal/store"
	"procodus.dev/climate-monitor/pkg/metrics"
)

// DefaultDashboardLimit is the number of recent readings on the dashboard when none is requested.
const DefaultDashboardLimit = 5

// Backend is the storage the API reads and writes.
type Backend interface {
	monitor.ReadingStore
	monitor.RuleStore
	monitor.AssetStore
	monitor.MaintenanceCounter
	monitor.ReadingWriter

	CreateAsset(ctx context.Context, asset *monitor.Asset) error
	UpdateAsset(ctx context.Context, asset *monitor.Asset) error
	DeleteAsset(ctx context.Context, id uint) error
	Locations(ctx context.Context) ([]string, error)

	ListReadings(ctx context.Context, q store.ReadingQuery) ([]monitor.Reading, error)
	DeleteReading(ctx context.Context, id uint) error

	ListMaintenance(ctx context.Context, assetID *uint) ([]monitor.Maintenance, error)
	CreateMaintenance(ctx context.Context, record *monitor.Maintenance) error
	DeleteMaintenance(ctx context.Context, id uint) error

	Ping(ctx context.Context) error
}

// SnapshotFunc runs fn against a backend that sees one consistent snapshot of the data.
type SnapshotFunc func(ctx context.Context, fn func(Backend) error) error

// Config holds the configuration for the API.
type Config struct {
	Logger  *slog.Logger
	Backend Backend
	// Snapshot is used for multi-query reads. Defaults to calling fn with Backend directly.
	Snapshot SnapshotFunc
	// Auth guards writes. A nil Authenticator disables authentication.
	Auth *auth.Authenticator
	// Metrics is optional.
	Metrics *metrics.APIMetrics
	// MetricsHandler is served on /metrics when set.
	MetricsHandler http.Handler
	// DashboardLimit is the default number of recent readings on the dashboard.
	DashboardLimit int
}

// API holds the HTTP handlers.
type API struct {
	logger         *slog.Logger
	backend        Backend
	snapshot       SnapshotFunc
	auth           *auth.Authenticator
	metrics        *metrics.APIMetrics
	metricsHandler http.Handler
	dashboardLimit int
}

// New creates an API.
func New(cfg *Config) (*API, error) {
	if cfg == nil {
		return nil, errors.New("api config cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.Backend == nil {
		return nil, errors.New("backend cannot be nil")
	}

	a := &API{
		logger:         cfg.Logger,
		backend:        cfg.Backend,
		snapshot:       cfg.Snapshot,
		auth:           cfg.Auth,
		metrics:        cfg.Metrics,
		metricsHandler: cfg.MetricsHandler,
		dashboardLimit: cfg.DashboardLimit,
	}
	if a.snapshot == nil {
		a.snapshot = func(ctx context.Context, fn func(Backend) error) error {
			return fn(a.backend)
		}
	}
	if a.auth == nil {
		a.auth = auth.NewAuthenticator("", cfg.Logger)
	}
	if a.dashboardLimit <= 0 {
		a.dashboardLimit = DefaultDashboardLimit
	}
	return a, nil
}

// Handler returns the HTTP handler with every route registered.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", a.handleHealth)
	if a.metricsHandler != nil {
		mux.Handle("GET /metrics", a.metricsHandler)
	}

	viewer := auth.RoleOperator
	writer := auth.RoleSupervisor

	a.route(mux, "GET /api/statistics", viewer, a.handleGlobalStatistics)
	a.route(mux, "GET /api/statistics/assets/{id}", viewer, a.handleAssetStatistics)
	a.route(mux, "GET /api/statistics/locations", viewer, a.handleLocationsStatistics)
	a.route(mux, "GET /api/statistics/locations/{location}", viewer, a.handleLocationStatistics)

	a.route(mux, "GET /api/alerts", viewer, a.handleAlerts)
	a.route(mux, "GET /api/alerts/count", viewer, a.handleAlertCount)
	a.route(mux, "GET /api/dashboard", viewer, a.handleDashboard)

	a.route(mux, "GET /api/thresholds", viewer, a.handleListRules)
	a.route(mux, "POST /api/thresholds", writer, a.handleCreateRule)
	a.route(mux, "GET /api/thresholds/{id}", viewer, a.handleGetRule)
	a.route(mux, "PUT /api/thresholds/{id}", writer, a.handleUpdateRule)
	a.route(mux, "DELETE /api/thresholds/{id}", writer, a.handleDeleteRule)

	a.route(mux, "GET /api/assets", viewer, a.handleListAssets)
	a.route(mux, "POST /api/assets", writer, a.handleCreateAsset)
	a.route(mux, "GET /api/assets/{id}", viewer, a.handleGetAsset)
	a.route(mux, "PUT /api/assets/{id}", writer, a.handleUpdateAsset)
	a.route(mux, "DELETE /api/assets/{id}", writer, a.handleDeleteAsset)
	a.route(mux, "GET /api/locations", viewer, a.handleLocations)

	a.route(mux, "GET /api/readings", viewer, a.handleListReadings)
	a.route(mux, "POST /api/readings", viewer, a.handleCreateReading)
	a.route(mux, "DELETE /api/readings/{id}", writer, a.handleDeleteReading)

	a.route(mux, "GET /api/maintenance", viewer, a.handleListMaintenance)
	a.route(mux, "POST /api/maintenance", viewer, a.handleCreateMaintenance)
	a.route(mux, "DELETE /api/maintenance/{id}", writer, a.handleDeleteMaintenance)

	a.route(mux, "GET /api/export", viewer, a.handleExport)

	// the page itself is public; the data it shows is the same as GET /api/dashboard
	a.route(mux, "GET /{$}", "", a.handleDashboardPage)

	return requestID(a.logger, mux)
}

// route registers h under pattern, guarded by role (no guard when role is empty) and instrumented.
func (a *API) route(mux *http.ServeMux, pattern string, role auth.Role, h http.HandlerFunc) {
	var handler http.Handler = h
	if role != "" {
		handler = a.auth.Require(role, handler)
	}
	mux.Handle(pattern, a.instrument(pattern, handler))
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := a.backend.Ping(r.Context()); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
