package handler

import "net/http"

// Export handles GET /export.
// Returns the full flat attendance export: one row per attendance record,
// trip fields repeated, trips with no attendance contributing one bare row.
func (s *Server) Export(w http.ResponseWriter, r *http.Request) {
	rows, err := s.export.Export(r.Context())
	if err != nil {
		respondError(w, err, "")
		return
	}
	respondJSON(w, http.StatusOK, rows)
}
