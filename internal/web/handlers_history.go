package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/JonMunkholm/woimport/internal/core"
)

// handleScheduleHistory lists the runs of one schedule, newest first.
func (s *Server) handleScheduleHistory(w http.ResponseWriter, r *http.Request) {
	id, err := scheduleIDParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.listHistory(w, r, core.RunFilter{ScheduleID: &id})
}

// handleProjectHistory lists every run of a project, including ad-hoc imports.
func (s *Server) handleProjectHistory(w http.ResponseWriter, r *http.Request) {
	s.listHistory(w, r, core.RunFilter{ProjectID: chi.URLParam(r, "projectID")})
}

func (s *Server) listHistory(w http.ResponseWriter, r *http.Request, filter core.RunFilter) {
	filter.Limit = parseIntParam(r, "limit", 50)
	if filter.Limit > maxHistoryLimit {
		filter.Limit = maxHistoryLimit
	}

	runs, err := s.service.ListHistory(r.Context(), filter)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	render.JSON(w, r, runs)
}
