package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/dutysummary/internal/core"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

var errAuditDisabled = errors.New("audit log not found: no database configured")

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	RoundTrips core.LimiterStatus `json:"round_trips"`
	Sessions   int                `json:"sessions"`
	Downloads  int                `json:"pending_downloads"`
	Audit      bool               `json:"audit_log"`
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// handleStatus reports round-trip capacity and in-memory store sizes.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, StatusResponse{
		RoundTrips: s.limiter.Status(),
		Sessions:   s.sessions.Len(),
		Downloads:  s.downloads.Len(),
		Audit:      s.auditLog != nil,
	})
}

// handleAuditLog returns the most recent upload and export events.
func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	if s.auditLog == nil {
		s.respondError(w, r, errAuditDisabled, http.StatusNotFound)
		return
	}

	limit := parseIntParam(r, "limit", defaultAuditLimit)
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}

	events, err := s.auditLog.Recent(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	if events == nil {
		events = []core.AuditEvent{}
	}
	writeJSON(w, r, http.StatusOK, events)
}

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}
