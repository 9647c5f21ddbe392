package server

import (
	"encoding/json"
	"net/http"

	"github.com/koustreak/dbinit/internal/bootstrap"
)

// ReportSource returns the finished bootstrap report, or nil while the hook
// is still running. (*bootstrap.Coordinator).Last satisfies it.
type ReportSource func() *bootstrap.Report

type handler struct {
	report ReportSource
}

// healthz is the liveness probe. It never depends on the database.
func (h *handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// readyz turns 200 once the startup hook has finished, whatever its outcome.
// A degraded bootstrap still serves traffic.
func (h *handler) readyz(w http.ResponseWriter, _ *http.Request) {
	r := h.report()
	if r == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ready": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ready":     true,
		"bootstrap": r.Status,
		"run_id":    r.RunID,
	})
}

func (h *handler) bootstrapReport(w http.ResponseWriter, _ *http.Request) {
	r := h.report()
	if r == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "bootstrap has not finished"})
		return
	}
	writeJSON(w, http.StatusOK, r)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
