package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"procodus.dev/climate-monitor/internal/monitor"
	"procodus.dev/climate-monitor/pkg/logger"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func (a *API) log(r *http.Request) *slog.Logger {
	return logger.FromContext(r.Context(), a.logger)
}

func (a *API) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.log(r).Error("failed to write response", "error", err)
	}
}

// writeError maps domain errors to status codes: validation 400, not found 404, store 503.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation *monitor.ValidationError
		notFound   *monitor.NotFoundError
		storeErr   *monitor.StoreError
		badRequest *requestError
	)
	switch {
	case errors.As(err, &validation):
		a.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: validation.Error(), Field: validation.Field})
	case errors.As(err, &badRequest):
		a.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: badRequest.Error()})
	case errors.As(err, &notFound):
		a.writeJSON(w, r, http.StatusNotFound, errorResponse{Error: notFound.Error()})
	case errors.As(err, &storeErr):
		if a.metrics != nil {
			a.metrics.StoreErrors.WithLabelValues(storeErr.Op).Inc()
		}
		a.log(r).Error("store failure", "op", storeErr.Op, "timeout", storeErr.Timeout(), "error", storeErr.Err)
		a.writeJSON(w, r, http.StatusServiceUnavailable, errorResponse{Error: "storage unavailable"})
	default:
		a.log(r).Error("request failed", "error", err)
		a.writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

// requestError is a malformed request that never reached the domain.
type requestError struct {
	msg string
}

func (e *requestError) Error() string {
	return e.msg
}

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

// decodeJSON reads a single JSON object from the request body. Unknown fields are rejected.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("request body is empty")
		}
		return badRequest("invalid request body: %v", err)
	}
	if dec.More() {
		return badRequest("request body must hold a single JSON object")
	}
	return nil
}

func pathID(r *http.Request) (uint, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, badRequest("invalid id %q", raw)
	}
	return uint(id), nil
}

func queryID(r *http.Request, key string) (*uint, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return nil, &monitor.ValidationError{Field: key, Reason: "must be a positive integer"}
	}
	v := uint(id)
	return &v, nil
}

func queryIDs(r *http.Request, key string) ([]uint, error) {
	var ids []uint
	for _, raw := range r.URL.Query()[key] {
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32)
			if err != nil || id == 0 {
				return nil, &monitor.ValidationError{Field: key, Reason: "must be a positive integer"}
			}
			ids = append(ids, uint(id))
		}
	}
	return ids, nil
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &monitor.ValidationError{Field: key, Reason: "must be an integer"}
	}
	return n, nil
}
