// Package handlers implements the HTTP API endpoints.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/shiplink/internal/audit"
	"github.com/shiplink/internal/store"
)

// APIHandler handles the health, stats and audit endpoints.
type APIHandler struct {
	Store   *store.Store
	Auditor *audit.Auditor
	Version string
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// StatsResponse summarizes store contents by record kind.
type StatsResponse struct {
	Records map[string]int `json:"records"`
	Total   int            `json:"total"`
}

// Health returns a liveness probe response.
func (h *APIHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, HealthResponse{Status: "ok", Version: h.Version})
}

// GetStats returns record counts for every table in the store.
func (h *APIHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.Store.Counts(r.Context())
	if err != nil {
		http.Error(w, "Store error", http.StatusInternalServerError)
		return
	}

	stats := StatsResponse{Records: counts}
	for _, n := range counts {
		stats.Total += n
	}
	writeJSON(w, stats)
}

// RunAudit replays every ground truth pair through the resolver and
// reports precision, recall and the confidence distribution.
func (h *APIHandler) RunAudit(w http.ResponseWriter, r *http.Request) {
	report, err := h.Auditor.Run(r.Context())
	if err != nil {
		http.Error(w, "Audit error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, report)
}

// writeJSON sends v as a JSON response body.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
