// Package app is the single owner of per-user state. The HTTP API and the
// MCP server both call into one Service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/fitscan/internal/datauri"
	"github.com/claude/fitscan/internal/demos"
	"github.com/claude/fitscan/internal/imagestore"
	"github.com/claude/fitscan/internal/metrics"
	"github.com/claude/fitscan/internal/models"
	"github.com/claude/fitscan/internal/persist"
	"github.com/claude/fitscan/internal/recognition"
	"github.com/claude/fitscan/internal/session"
	"github.com/claude/fitscan/internal/sessioncache"
)

var (
	// ErrValidation wraps every input rejection.
	ErrValidation = errors.New("validation failed")
	// ErrNoActiveSession means the user has no live workout session.
	ErrNoActiveSession = errors.New("no active workout session")
	// ErrStaleSession means the request names a session that was replaced or ended.
	ErrStaleSession = errors.New("workout session is no longer active")
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = models.ErrNotFound
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Recognizer is the part of the recognition gateway used by the service.
type Recognizer interface {
	Recognize(ctx context.Context, img datauri.DataURI) (*recognition.Result, error)
	GenerateRoutine(ctx context.Context, equipment []models.EquipmentRecord, p *recognition.RoutineProfile) (*models.WorkoutPlan, error)
}

var _ Recognizer = (*recognition.Gateway)(nil)

// Deps are the collaborators of a Service.
type Deps struct {
	Store      *persist.Facade
	Recognizer Recognizer
	Images     imagestore.Store
	Cache      *sessioncache.Cache
	Demos      *demos.Catalog
	Metrics    *metrics.Manager
	Log        *slog.Logger

	// SessionOptions are passed to every new session machine.
	SessionOptions []session.Option
}

// Service is safe for concurrent use.
type Service struct {
	store   *persist.Facade
	recog   Recognizer
	images  imagestore.Store
	cache   *sessioncache.Cache
	demos   *demos.Catalog
	metrics *metrics.Manager
	log     *slog.Logger
	now     func() time.Time

	sessionOpts []session.Option

	mu       sync.Mutex
	sessions map[string]*liveSession
}

type liveSession struct {
	id      string
	plan    models.WorkoutPlan
	machine *session.Machine
}

// New creates a Service. Images and Demos default to Inline and the built-in
// catalog.
func New(d Deps) *Service {
	images := d.Images
	if images == nil {
		images = imagestore.Inline{}
	}
	catalog := d.Demos
	if catalog == nil {
		catalog = demos.Default()
	}
	return &Service{
		store:       d.Store,
		recog:       d.Recognizer,
		images:      images,
		cache:       d.Cache,
		demos:       catalog,
		metrics:     d.Metrics,
		log:         d.Log,
		now:         time.Now,
		sessionOpts: d.SessionOptions,
		sessions:    make(map[string]*liveSession),
	}
}

// Close stops every live session.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for user, ls := range s.sessions {
		ls.machine.Close()
		delete(s.sessions, user)
	}
	s.metrics.GaugeActiveSessions.Set(0)
}

// RegisterDevice issues a new device identity and records it.
func (s *Service) RegisterDevice(ctx context.Context, displayName string) string {
	id := NewDeviceID()
	s.store.TouchUser(ctx, id, displayName)
	s.log.Info("device registered", "user", id)
	return id
}

// TouchUser records that userID was seen.
func (s *Service) TouchUser(ctx context.Context, userID, displayName string) {
	s.store.TouchUser(ctx, userID, displayName)
}

// ResetCache drops every transient entry for the user.
func (s *Service) ResetCache(userID string) {
	s.cache.Clear(userID)
}

// Demo looks up the demonstration video for an exercise.
func (s *Service) Demo(exercise string) (demos.Demo, bool) {
	return s.demos.Lookup(exercise)
}

// contextWithTimeout returns a background context with a 5-second timeout for
// writes that must outlive the request.
func contextWithTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second) //nolint:mnd
}
