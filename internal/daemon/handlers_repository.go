package daemon

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/minegate/minegate/internal/audit"
	"github.com/minegate/minegate/internal/descriptor"
	"github.com/minegate/minegate/internal/limits"
	"github.com/minegate/minegate/internal/registry"
	"github.com/minegate/minegate/internal/service"
)

// Request/Response types

// ErrorResponse carries a failure to the caller. Before and After are only
// populated for downstream failures, where the local merge already
// committed.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details json.RawMessage   `json:"details,omitempty"`
	Before  registry.Registry `json:"before,omitempty"`
	After   registry.Registry `json:"after,omitempty"`
}

// Handler methods

func (d *Daemon) handleRegisterRepository(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()

	var desc descriptor.Descriptor
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limits.JSON))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&desc); err != nil {
		writeError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	result, err := d.svc.Register(r.Context(), desc)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, result, http.StatusOK)
}

func (d *Daemon) handleTestConnection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, d.svc.CheckDownstream(r.Context()), http.StatusOK)
}

func (d *Daemon) handleListRegistrations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 0
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 0 {
			writeError(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	records, err := d.svc.Registrations(r.Context(), limit)
	if err != nil {
		log.Printf("[ERROR] failed to list registrations: %v", err)
		writeError(w, "failed to list registrations", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []audit.Record{}
	}

	writeJSON(w, map[string]interface{}{"registrations": records}, http.StatusOK)
}

// Helper functions

func writeServiceError(w http.ResponseWriter, err error) {
	var serr *service.Error
	if !errors.As(err, &serr) {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := ErrorResponse{
		Error:   serr.Message,
		Details: serr.Details,
		Before:  serr.Before,
		After:   serr.After,
	}

	status := http.StatusInternalServerError
	switch serr.Kind {
	case service.KindValidation:
		status = http.StatusBadRequest
	case service.KindStore:
		status = http.StatusInternalServerError
	case service.KindRejected:
		status = http.StatusBadGateway
	case service.KindUnreachable:
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, resp, status)
}

func writeJSON(w http.ResponseWriter, data interface{}, status int) {
	buf, err := json.Marshal(data)
	if err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf)
}

func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, ErrorResponse{Error: message}, status)
}
