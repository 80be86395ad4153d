package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/ring-relay/internal/ring"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/devices", s.handleDevices)
		r.Get("/dings/active", s.handleActiveDings)
		r.Get("/history", s.handleHistory)

		r.Route("/alarms", func(r chi.Router) {
			r.Get("/", s.handleAlarms)
			r.Get("/{locationID}/devices", s.handleAlarmDevices)
		})
	})

	return r
}

// handleHealth reports the relay's health, including any registered
// component probes.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	components := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check(r.Context()); err != nil {
			status = "degraded"
			components[name] = err.Error()
		} else {
			components[name] = "ok"
		}
	}

	body := map[string]any{
		"status":  status,
		"version": s.version,
	}
	if len(components) > 0 {
		body["components"] = components
	}
	writeJSON(w, http.StatusOK, body)
}

// handleDevices returns the account's device inventory grouped by category.
func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	list, err := s.source.Devices(r.Context())
	if err != nil {
		s.logger.Warn("device listing failed", "error", err)
		writeUpstreamError(w, "listing devices failed")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// handleActiveDings returns rings and motions currently in progress.
func (s *Server) handleActiveDings(w http.ResponseWriter, r *http.Request) {
	burst := r.URL.Query().Get("burst") == "true"
	dings, err := s.source.ActiveDings(r.Context(), burst)
	if err != nil {
		s.logger.Warn("active ding listing failed", "error", err)
		writeUpstreamError(w, "listing active dings failed")
		return
	}
	if dings == nil {
		dings = []*ring.Ding{}
	}
	writeJSON(w, http.StatusOK, dings)
}

// handleAlarms lists the discovered alarm locations.
func (s *Server) handleAlarms(w http.ResponseWriter, _ *http.Request) {
	locations := make([]string, 0, len(s.alarms))
	for _, a := range s.alarms {
		locations = append(locations, a.LocationID())
	}
	writeJSON(w, http.StatusOK, map[string]any{"locations": locations})
}

// handleAlarmDevices returns a location's live alarm device payloads.
func (s *Server) handleAlarmDevices(w http.ResponseWriter, r *http.Request) {
	locationID := chi.URLParam(r, "locationID")
	for _, a := range s.alarms {
		if a.LocationID() != locationID {
			continue
		}
		states, err := a.DeviceStates(r.Context())
		if err != nil {
			s.logger.Warn("alarm device listing failed", "location_id", locationID, "error", err)
			writeUpstreamError(w, "listing alarm devices failed")
			return
		}
		writeJSON(w, http.StatusOK, states)
		return
	}
	writeError(w, http.StatusNotFound, ErrCodeNotFound, "unknown alarm location")
}

// handleHistory returns recent ring and motion events.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	items, err := s.source.History(r.Context())
	if err != nil {
		s.logger.Warn("history listing failed", "error", err)
		writeUpstreamError(w, "listing history failed")
		return
	}
	if items == nil {
		items = []*ring.HistoryItem{}
	}
	writeJSON(w, http.StatusOK, items)
}
