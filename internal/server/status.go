package server

import "net/http"

// handleStatus is the unauthenticated liveness probe. The payload shape
// is fixed: external health checks match on it.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "online",
		"server": s.cfg.ServerID,
	})
}
