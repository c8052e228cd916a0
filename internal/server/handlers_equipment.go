package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/claude/fitscan/internal/app"
	"github.com/claude/fitscan/internal/models"
	"github.com/claude/fitscan/internal/recognition"
)

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ImageBase64 string `json:"imageBase64"`
		Save        bool   `json:"save"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.ImageBase64 == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "imageBase64 is required"})
		return
	}

	res, err := s.svc.Scan(r.Context(), userIDFromContext(r), body.ImageBase64, body.Save)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleListEquipment(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.ListEquipment(r.Context(), userIDFromContext(r)))
}

func (s *Server) handleAddEquipment(w http.ResponseWriter, r *http.Request) {
	var in app.EquipmentInput
	if !decodeJSON(w, r, &in) {
		return
	}
	rec, err := s.svc.AddEquipment(r.Context(), userIDFromContext(r), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleDeleteEquipment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid equipment ID"})
		return
	}
	if err := s.svc.DeleteEquipment(r.Context(), userIDFromContext(r), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (s *Server) handleGenerateRoutine(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Equipment   []models.EquipmentRecord    `json:"equipment"`
		UserProfile *recognition.RoutineProfile `json:"userProfile"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	plan, err := s.svc.GenerateRoutine(r.Context(), userIDFromContext(r), body.Equipment, body.UserProfile)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"workout": plan})
}
