package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/claude/fitscan/internal/app"
	"github.com/claude/fitscan/internal/datauri"
	"github.com/claude/fitscan/internal/recognition"
	"github.com/claude/fitscan/internal/session"
)

// maxBodyBytes bounds request bodies; scans carry a base64 camera frame.
const maxBodyBytes = 16 << 20

func (s *Server) handleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DisplayName string `json:"displayName"`
	}
	if r.ContentLength != 0 {
		if !decodeJSON(w, r, &body) {
			return
		}
	}
	id := s.svc.RegisterDevice(r.Context(), body.DisplayName)
	writeJSON(w, http.StatusCreated, map[string]string{"deviceId": id})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.Profile(r.Context(), userIDFromContext(r))
	if errors.Is(err, app.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "onboarding required"})
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	var in app.ProfileInput
	if !decodeJSON(w, r, &in) {
		return
	}
	uid := userIDFromContext(r)
	s.svc.TouchUser(r.Context(), uid, userInfoFromContext(r).DisplayName)

	view, err := s.svc.CompleteOnboarding(r.Context(), uid, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.Dashboard(r.Context(), userIDFromContext(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// writeError maps service errors to a status and a JSON body. Parse failures
// from the model are flagged retryable.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	body := map[string]any{"error": err.Error()}
	if recognition.Retryable(err) {
		body["retryable"] = true
	}
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, body)
}

func statusFor(err error) int {
	var upstream *recognition.UpstreamError
	switch {
	case errors.Is(err, app.ErrValidation),
		errors.Is(err, datauri.ErrInvalid),
		errors.Is(err, recognition.ErrNoEquipment):
		return http.StatusBadRequest
	case errors.As(err, &upstream):
		return upstream.StatusCode()
	case errors.Is(err, app.ErrNotFound),
		errors.Is(err, app.ErrNoActiveSession):
		return http.StatusNotFound
	case errors.Is(err, app.ErrStaleSession),
		errors.Is(err, session.ErrInvalidTransition),
		errors.Is(err, session.ErrRestRunning),
		errors.Is(err, session.ErrClosed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("invalid JSON: %v", err)})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
