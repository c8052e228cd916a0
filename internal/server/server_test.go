package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claude/fitscan/internal/app"
	"github.com/claude/fitscan/internal/config"
	"github.com/claude/fitscan/internal/datauri"
	"github.com/claude/fitscan/internal/localstore"
	"github.com/claude/fitscan/internal/metrics"
	"github.com/claude/fitscan/internal/models"
	"github.com/claude/fitscan/internal/persist"
	"github.com/claude/fitscan/internal/recognition"
	"github.com/claude/fitscan/internal/session"
	"github.com/claude/fitscan/internal/sessioncache"
)

const pngURI = "data:image/png;base64,iVBORw0KGgo="

type stubRecognizer struct {
	result *recognition.Result
	err    error
}

func (s *stubRecognizer) Recognize(context.Context, datauri.DataURI) (*recognition.Result, error) {
	return s.result, s.err
}

func (s *stubRecognizer) GenerateRoutine(context.Context, []models.EquipmentRecord, *recognition.RoutineProfile) (*models.WorkoutPlan, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.WorkoutPlan{Name: "Generated", Exercises: []models.ExerciseTemplate{{Name: "Row", Sets: "3"}}}, nil
}

// newTestServer wires a Server over a real service with a SQLite store.
func newTestServer(t *testing.T, mode string, recog *stubRecognizer) *Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	local, err := localstore.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { local.Close() })

	m, reg := metrics.NewTestManagerAndRegistry()
	svc := app.New(app.Deps{
		Store:          persist.New(nil, local, log),
		Recognizer:     recog,
		Cache:          sessioncache.New(1, time.Hour, log),
		Metrics:        m,
		Log:            log,
		SessionOptions: []session.Option{session.WithTickInterval(time.Millisecond)},
	})
	t.Cleanup(svc.Close)
	return New(svc, m, Options{AuthMode: mode, Gatherer: reg}, log)
}

func do(t *testing.T, h http.Handler, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

var onboarding = map[string]any{
	"name": "Ana", "age": 30, "weight": 70, "height": 175,
	"gender": "female", "goal": "tone", "weeklyFrequency": 3,
}

// TestDeviceFlow verifies a device must register before calling the API.
func TestDeviceFlow(t *testing.T) {
	s := newTestServer(t, config.AuthModeDevice, &stubRecognizer{})

	rec := do(t, s, http.MethodGet, "/api/v1/dashboard", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/v1/devices", map[string]string{"displayName": "phone"})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[map[string]string](t, rec)["deviceId"]

	rec = do(t, s, http.MethodGet, "/api/v1/dashboard", nil, DeviceHeader, id)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[app.Dashboard](t, rec).OnboardingRequired, "new device needs onboarding")
}

// TestProfileRoutes verifies onboarding, the 404 before it and validation.
func TestProfileRoutes(t *testing.T) {
	s := newTestServer(t, config.AuthModeDev, &stubRecognizer{})

	require.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/v1/profile", nil).Code)

	bad := map[string]any{"name": "Ana", "age": 0}
	require.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPut, "/api/v1/profile", bad).Code)

	rec := do(t, s, http.MethodPut, "/api/v1/profile", onboarding)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decode[app.ProfileView](t, rec)
	assert.Equal(t, models.LevelIntermediate, view.Profile.FitnessLevel)

	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/api/v1/profile", nil).Code)
}

// TestInvalidJSON verifies malformed bodies get a 400 JSON error.
func TestInvalidJSON(t *testing.T) {
	s := newTestServer(t, config.AuthModeDev, &stubRecognizer{})
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/v1/profile", strings.NewReader("{")))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "invalid JSON")
}

// TestMethodNotAllowed verifies unknown methods answer 405 JSON.
func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t, config.AuthModeDev, &stubRecognizer{})
	rec := do(t, s, http.MethodPatch, "/api/v1/profile", nil)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

// TestScanErrors verifies the error mapping of the scan route.
func TestScanErrors(t *testing.T) {
	tests := []struct {
		name      string
		image     string
		err       error
		want      int
		retryable bool
	}{
		{"missing image", "", nil, http.StatusBadRequest, false},
		{"not a data URI", "hello", nil, http.StatusBadRequest, false},
		{"not configured", pngURI, recognition.ErrNotConfigured, http.StatusInternalServerError, false},
		{"rate limited upstream", pngURI, &recognition.UpstreamError{Status: 429, Err: errors.New("slow")}, http.StatusTooManyRequests, false},
		{"upstream auth", pngURI, &recognition.UpstreamError{Status: 401, Err: errors.New("key")}, http.StatusUnauthorized, false},
		{"upstream outage", pngURI, &recognition.UpstreamError{Status: 503, Err: errors.New("down")}, http.StatusInternalServerError, false},
		{"unparseable", pngURI, recognition.ErrUnparseable, http.StatusInternalServerError, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, config.AuthModeDev, &stubRecognizer{err: tt.err})
			rec := do(t, s, http.MethodPost, "/api/v1/scan", map[string]string{"imageBase64": tt.image})
			require.Equal(t, tt.want, rec.Code, rec.Body.String())

			body := decode[map[string]any](t, rec)
			assert.Contains(t, body, "error")
			got, _ := body["retryable"].(bool)
			assert.Equal(t, tt.retryable, got)
		})
	}
}

// TestScanAndInventory verifies a saved scan shows up in the inventory and
// can be deleted.
func TestScanAndInventory(t *testing.T) {
	recog := &stubRecognizer{result: &recognition.Result{
		Detected:      true,
		EquipmentName: "Leg Press",
		MuscleGroups:  []string{"quadriceps"},
		Exercises:     []models.ExerciseTemplate{{Name: "Leg Press", Sets: "3"}},
		Timestamp:     time.Now(),
	}}
	s := newTestServer(t, config.AuthModeDev, recog)

	rec := do(t, s, http.MethodPost, "/api/v1/scan", map[string]any{"imageBase64": pngURI, "save": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[struct {
		Detected      bool                    `json:"detected"`
		EquipmentName string                  `json:"equipmentName"`
		Equipment     *models.EquipmentRecord `json:"equipment"`
	}](t, rec)
	require.True(t, res.Detected)
	require.NotNil(t, res.Equipment)

	inv := decode[[]models.EquipmentRecord](t, do(t, s, http.MethodGet, "/api/v1/equipment", nil))
	require.Len(t, inv, 1)

	logs := decode[[]models.ScanLog](t, do(t, s, http.MethodGet, "/api/v1/scans?limit=5", nil))
	require.Len(t, logs, 1)
	assert.Equal(t, models.ScanDetected, logs[0].Status)

	path := fmt.Sprintf("/api/v1/equipment/%s", inv[0].ID)
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodDelete, "/api/v1/equipment/nope", nil).Code)
}

// TestGenerateRoutine verifies the routine comes back wrapped and an empty
// inventory is a 400.
func TestGenerateRoutine(t *testing.T) {
	s := newTestServer(t, config.AuthModeDev, &stubRecognizer{})

	require.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPost, "/api/v1/workouts/generate", map[string]any{}).Code)

	body := map[string]any{"equipment": []models.EquipmentRecord{{Name: "Rower", MuscleGroups: []string{"back"}}}}
	rec := do(t, s, http.MethodPost, "/api/v1/workouts/generate", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[map[string]models.WorkoutPlan](t, rec)["workout"]
	assert.Equal(t, "Generated", got.Name)
	assert.Equal(t, models.WorkoutUpper, got.Type)
}

// TestWorkoutRoutes verifies the today/toggle routes.
func TestWorkoutRoutes(t *testing.T) {
	s := newTestServer(t, config.AuthModeDev, &stubRecognizer{})

	plan := decode[models.WorkoutPlan](t, do(t, s, http.MethodGet, "/api/v1/workouts/today", nil))
	assert.Equal(t, models.WorkoutLower, plan.Type)
	again := decode[models.WorkoutPlan](t, do(t, s, http.MethodGet, "/api/v1/workouts/today", nil))
	assert.Equal(t, plan.ID, again.ID, "stable without regenerate")
	fresh := decode[models.WorkoutPlan](t, do(t, s, http.MethodGet, "/api/v1/workouts/today?regenerate=true", nil))
	assert.NotEqual(t, plan.ID, fresh.ID, "regenerate composes a new plan")

	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/api/v1/workouts/today?day=5", nil).Code)

	day := decode[map[string]int](t, do(t, s, http.MethodPost, "/api/v1/workouts/day/toggle", nil))
	assert.Equal(t, 2, day["workoutDay"])
	plan = decode[models.WorkoutPlan](t, do(t, s, http.MethodGet, "/api/v1/workouts/today", nil))
	assert.Equal(t, models.WorkoutUpper, plan.Type)
}

// TestToggleDuringSession verifies the day-2 workout stays upper body after
// a day-1 workout was started.
func TestToggleDuringSession(t *testing.T) {
	s := newTestServer(t, config.AuthModeDev, &stubRecognizer{})

	require.Equal(t, http.StatusCreated, do(t, s, http.MethodPost, "/api/v1/session", nil).Code)
	day := decode[map[string]int](t, do(t, s, http.MethodPost, "/api/v1/workouts/day/toggle", nil))
	require.Equal(t, 2, day["workoutDay"])

	plan := decode[models.WorkoutPlan](t, do(t, s, http.MethodGet, "/api/v1/workouts/today", nil))
	assert.Equal(t, models.WorkoutUpper, plan.Type)
	assert.Equal(t, 2, plan.WorkoutDay)
}

// TestSessionRoutes verifies start, actions, stale ids and teardown.
func TestSessionRoutes(t *testing.T) {
	s := newTestServer(t, config.AuthModeDev, &stubRecognizer{})

	require.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/v1/session", nil).Code)

	rec := do(t, s, http.MethodPost, "/api/v1/session", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	v := decode[app.SessionView](t, rec)
	base := "/api/v1/session/" + v.SessionID

	assert.Equal(t, http.StatusConflict, do(t, s, http.MethodPost, base+"/skip-rest", nil).Code, "skip-rest while exercising")
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPost, base+"/jump", nil).Code, "unknown action")
	assert.Equal(t, http.StatusConflict, do(t, s, http.MethodPost, "/api/v1/session/other/complete-set", nil).Code, "stale session")

	v = decode[app.SessionView](t, do(t, s, http.MethodPost, base+"/complete-set", nil))
	assert.Equal(t, session.StateResting, v.State)
	assert.Equal(t, 2, v.CurrentSet)

	active := decode[map[string]*models.WorkoutPlan](t, do(t, s, http.MethodGet, "/api/v1/workouts/active", nil))
	assert.NotNil(t, active["workout"], "active workout is set during a session")

	assert.Equal(t, http.StatusOK, do(t, s, http.MethodDelete, base, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodDelete, base, nil).Code)
}

// TestDemoRoute verifies the explicit "not available" answer.
func TestDemoRoute(t *testing.T) {
	s := newTestServer(t, config.AuthModeDev, &stubRecognizer{})

	got := decode[map[string]any](t, do(t, s, http.MethodGet, "/api/v1/demos?exercise=Supino%20inclinado", nil))
	assert.Equal(t, true, got["available"])
	assert.NotEmpty(t, got["url"])

	got = decode[map[string]any](t, do(t, s, http.MethodGet, "/api/v1/demos?exercise=Plank", nil))
	assert.Equal(t, false, got["available"])

	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/api/v1/demos", nil).Code)
}

// TestProgressAndCache verifies the progress default and cache reset.
func TestProgressAndCache(t *testing.T) {
	s := newTestServer(t, config.AuthModeDev, &stubRecognizer{})

	p := decode[models.WorkoutProgress](t, do(t, s, http.MethodGet, "/api/v1/progress", nil))
	assert.Zero(t, p.Days)
	assert.Zero(t, p.Achievements)

	do(t, s, http.MethodPost, "/api/v1/workouts/day/toggle", nil)
	require.Equal(t, http.StatusOK, do(t, s, http.MethodDelete, "/api/v1/cache", nil).Code)
	plan := decode[models.WorkoutPlan](t, do(t, s, http.MethodGet, "/api/v1/workouts/today", nil))
	assert.Equal(t, 1, plan.WorkoutDay, "day resets with the cache")
}

// TestMetricsEndpoint verifies request counters are exported.
func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, config.AuthModeDev, &stubRecognizer{})
	do(t, s, http.MethodGet, "/api/v1/progress", nil)

	rec := do(t, s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "fitscan_test_request{")
}

// TestMountMCP verifies the MCP endpoint requires the API key.
func TestMountMCP(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := New(nil, metrics.NewTestManager(), Options{AuthMode: config.AuthModeDev, APIKey: "k"}, log)
	var gotUser string
	s.MountMCP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = RequestUserID(r)
	}))

	assert.Equal(t, http.StatusUnauthorized, do(t, s, http.MethodPost, "/mcp", nil).Code)
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/mcp", nil, "X-API-Key", "k").Code)
	assert.Equal(t, "local", gotUser)
}
