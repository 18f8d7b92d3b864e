package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/JonMunkholm/woimport/internal/core"
)

// handleCreateSchedule creates a schedule in the project named by the URL.
func (s *Server) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	var in core.ScheduleInput
	if err := render.DecodeJSON(r.Body, &in); err != nil {
		s.badRequest(w, r, "invalid schedule JSON")
		return
	}
	in.ProjectID = chi.URLParam(r, "projectID")

	sched, err := s.service.CreateSchedule(r.Context(), in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, sched)
}

func (s *Server) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	schedules, err := s.service.ListSchedules(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	render.JSON(w, r, schedules)
}

func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := scheduleIDParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	sched, err := s.service.GetSchedule(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	render.JSON(w, r, sched)
}

// handleUpdateSchedule applies a partial update. Run state fields in the body
// are ignored.
func (s *Server) handleUpdateSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := scheduleIDParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var patch core.SchedulePatch
	if err := render.DecodeJSON(r.Body, &patch); err != nil {
		s.badRequest(w, r, "invalid schedule JSON")
		return
	}

	sched, err := s.service.UpdateSchedule(r.Context(), id, patch)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	render.JSON(w, r, sched)
}

func (s *Server) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := scheduleIDParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.service.DeleteSchedule(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRunNow runs the schedule synchronously and returns the run record.
func (s *Server) handleRunNow(w http.ResponseWriter, r *http.Request) {
	id, err := scheduleIDParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	run, err := s.service.RunNow(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	render.JSON(w, r, run)
}

// handleResetMarker clears the processed-file marker. A reset refused because
// a run is in progress is reported with 409.
func (s *Server) handleResetMarker(w http.ResponseWriter, r *http.Request) {
	id, err := scheduleIDParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	result, err := s.service.ResetProcessedMarker(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if !result.Success {
		render.Status(r, http.StatusConflict)
	}
	render.JSON(w, r, result)
}
