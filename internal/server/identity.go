package server

import (
	"context"
	"net/http"

	"tailscale.com/client/tailscale/apitype"

	"github.com/claude/fitscan/internal/app"
	"github.com/claude/fitscan/internal/config"
)

// DeviceHeader carries the device identity issued by POST /api/v1/devices.
const DeviceHeader = "X-Device-ID"

type contextKey int

const (
	userIDKey contextKey = iota
	userInfoKey
)

// UserInfo describes the caller.
type UserInfo struct {
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
}

var devUser = UserInfo{Login: "local", DisplayName: "Local Dev User"}

// WhoIser resolves a tailnet peer address to its owner. *local.Client
// from tsnet satisfies it.
type WhoIser interface {
	WhoIs(ctx context.Context, remoteAddr string) (*apitype.WhoIsResponse, error)
}

func withIdentity(r *http.Request, userID string, info UserInfo) *http.Request {
	ctx := context.WithValue(r.Context(), userIDKey, userID)
	ctx = context.WithValue(ctx, userInfoKey, info)
	return r.WithContext(ctx)
}

// DevIdentity assigns every request to the local development user.
func DevIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, withIdentity(r, devUser.Login, devUser))
	})
}

// DeviceIdentity takes the user from the X-Device-ID header.
func DeviceIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(DeviceHeader)
		if !app.ValidDeviceID(id) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing or invalid " + DeviceHeader})
			return
		}
		next.ServeHTTP(w, withIdentity(r, id, UserInfo{Login: id}))
	})
}

// TailscaleIdentity takes the user from the tailnet login of the peer.
func TailscaleIdentity(lc WhoIser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			who, err := lc.WhoIs(r.Context(), r.RemoteAddr)
			if err != nil || who.UserProfile == nil || who.UserProfile.LoginName == "" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unknown tailnet peer"})
				return
			}
			info := UserInfo{Login: who.UserProfile.LoginName, DisplayName: who.UserProfile.DisplayName}
			next.ServeHTTP(w, withIdentity(r, info.Login, info))
		})
	}
}

// identify dispatches to the identity middleware for the configured mode.
// The tailscale client is resolved per request since it is set after New.
func (s *Server) identify(next http.Handler) http.Handler {
	dev := DevIdentity(next)
	device := DeviceIdentity(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch s.opts.AuthMode {
		case config.AuthModeDev:
			dev.ServeHTTP(w, r)
		case config.AuthModeTailscale:
			if s.whois == nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "tailscale identity unavailable"})
				return
			}
			TailscaleIdentity(s.whois)(next).ServeHTTP(w, r)
		default:
			device.ServeHTTP(w, r)
		}
	})
}

func userIDFromContext(r *http.Request) string {
	if id, ok := r.Context().Value(userIDKey).(string); ok && id != "" {
		return id
	}
	return devUser.Login
}

// RequestUserID returns the user resolved by the identity middleware.
func RequestUserID(r *http.Request) string {
	return userIDFromContext(r)
}

func userInfoFromContext(r *http.Request) UserInfo {
	if info, ok := r.Context().Value(userInfoKey).(UserInfo); ok {
		return info
	}
	return devUser
}
