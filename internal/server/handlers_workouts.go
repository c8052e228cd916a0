package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleTodayWorkout(w http.ResponseWriter, r *http.Request) {
	day := 0
	if d := r.URL.Query().Get("day"); d != "" {
		parsed, err := strconv.Atoi(d)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "day must be 1 or 2"})
			return
		}
		day = parsed
	}
	regenerate := r.URL.Query().Get("regenerate") == "true"

	plan, err := s.svc.TodayWorkout(r.Context(), userIDFromContext(r), day, regenerate)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleToggleDay(w http.ResponseWriter, r *http.Request) {
	day := s.svc.ToggleDay(r.Context(), userIDFromContext(r))
	writeJSON(w, http.StatusOK, map[string]int{"workoutDay": day})
}

func (s *Server) handleActiveWorkout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"workout": s.svc.ActiveWorkout(r.Context(), userIDFromContext(r))})
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	v, err := s.svc.StartWorkout(r.Context(), userIDFromContext(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	v, err := s.svc.ActiveSession(userIDFromContext(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleSessionAction(w http.ResponseWriter, r *http.Request) {
	v, err := s.svc.SessionAction(r.Context(), userIDFromContext(r), chi.URLParam(r, "id"), chi.URLParam(r, "action"))
	if err != nil {
		if v != nil && statusFor(err) == http.StatusConflict {
			writeJSON(w, http.StatusConflict, map[string]any{"error": err.Error(), "session": v})
			return
		}
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.EndWorkout(r.Context(), userIDFromContext(r), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ended": true})
}
