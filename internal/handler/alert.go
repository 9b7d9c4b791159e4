package handler

import "net/http"

// ListAlerts handles GET /alerts.
// The list is recomputed from scratch on every call: sorted by time
// descending, at most 50 entries.
func (s *Server) ListAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := s.alerts.Derive(r.Context())
	if err != nil {
		respondError(w, err, "")
		return
	}
	respondJSON(w, http.StatusOK, alerts)
}
