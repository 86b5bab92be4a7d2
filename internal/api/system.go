package api

import (
	"net/http"

	"github.com/iotinator/iotinator-master/internal/display"
)

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"agents":  s.registry.Count(),
	})
}

// handleDisplay returns the latest text shown on each display line.
func (s *Server) handleDisplay(w http.ResponseWriter, _ *http.Request) {
	if s.screen == nil {
		writeUnavailable(w, "display screen not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]display.Line{
		"lines": s.screen.Lines(),
	})
}
