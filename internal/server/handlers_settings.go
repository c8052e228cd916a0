package server

import (
	"net/http"
	"strconv"
)

func (s *Server) handleScanLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	writeJSON(w, http.StatusOK, s.svc.ScanLogs(r.Context(), userIDFromContext(r), limit))
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Progress(r.Context(), userIDFromContext(r)))
}

func (s *Server) handleResetCache(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)
	s.svc.ResetCache(uid)
	s.log.Info("cache reset", "user", uid)
	writeJSON(w, http.StatusOK, map[string]bool{"cleared": true})
}

// handleDemo reports {"available": false} when no demonstration matches;
// it never substitutes an unrelated video.
func (s *Server) handleDemo(w http.ResponseWriter, r *http.Request) {
	exercise := r.URL.Query().Get("exercise")
	if exercise == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "exercise parameter required"})
		return
	}
	d, ok := s.svc.Demo(exercise)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]bool{"available": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"available": true,
		"title":     d.Title,
		"url":       d.URL,
	})
}
