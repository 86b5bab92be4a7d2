package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iotinator/iotinator-master/internal/agent"
)

// handleRegister adds or updates an agent from its registration body.
//
// A body that cannot be read or decoded gets 500 with "{}"; a decoded
// body missing name, MAC or ip gets 200 with "{}".
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.logger.Warn("register body unreadable", "error", err)
		writeAgentFailure(w, http.StatusInternalServerError)
		return
	}

	a, err := s.registry.Add(r.Context(), body)
	if err != nil {
		if errors.Is(err, agent.ErrDecode) {
			writeAgentFailure(w, http.StatusInternalServerError)
			return
		}
		writeAgentFailure(w, http.StatusOK)
		return
	}

	s.listChanged()
	writeJSON(w, http.StatusOK, a)
}

// handleRefresh updates the custom payload of a known agent.
// Every failure, including an unknown MAC, gets 200 with "{}".
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.logger.Warn("refresh body unreadable", "error", err)
		writeAgentFailure(w, http.StatusOK)
		return
	}

	a, err := s.registry.Refresh(r.Context(), body)
	if err != nil {
		writeAgentFailure(w, http.StatusOK)
		return
	}

	s.listChanged()
	writeJSON(w, http.StatusOK, a)
}

// handleList returns the registry rendered as a JSON object keyed by MAC.
func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	writeRawJSON(w, http.StatusOK, s.registry.List())
}

// handlePing runs a ping sweep and returns its report.
func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.Ping(r.Context()))
}

// handleReset asks every agent to restart and returns the report.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.Reset(r.Context()))
}

// handleGetAgent returns one agent with its bookkeeping fields.
func (s *Server) handleGetAgent(w http.ResponseWriter, r *http.Request) {
	mac := chi.URLParam(r, "mac")
	a, err := s.registry.Get(mac)
	if err != nil {
		if errors.Is(err, agent.ErrAgentNotFound) {
			writeNotFound(w, "agent not found")
			return
		}
		writeInternalError(w, "failed to get agent")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) listChanged() {
	if s.onListChanged != nil {
		s.onListChanged()
	}
}
