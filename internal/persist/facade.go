package persist

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/claude/fitscan/internal/models"
)

// ErrUnavailable means the remote store is not configured.
var ErrUnavailable = errors.New("persist: remote store unavailable")

// Facade is safe for concurrent use if its stores are.
type Facade struct {
	remote Store
	local  Store
	log    *slog.Logger
	now    func() time.Time

	// OnFallback is called with the operation name whenever a remote
	// failure is absorbed.
	OnFallback func(op string)
}

// New creates a facade. Either store may be nil: a nil remote makes the
// facade local-only, a nil local disables the mirror.
func New(remote, local Store, log *slog.Logger) *Facade {
	return &Facade{remote: remote, local: local, log: log, now: time.Now}
}

// Now returns the facade clock in UTC.
func (f *Facade) Now() time.Time {
	return f.now().UTC()
}

// RemoteConfigured reports whether a remote store is attached.
func (f *Facade) RemoteConfigured() bool {
	return f.remote != nil
}

func (f *Facade) degraded(op, userID string, err error) {
	f.log.Warn("remote store degraded", "op", op, "user", userID, "error", err)
	if f.OnFallback != nil {
		f.OnFallback(op)
	}
}

// read runs fn against the remote store and falls back to the local store.
// A not-found answer from the remote is authoritative. When both fail the
// zero value is returned with ok=false.
func read[T any](ctx context.Context, f *Facade, op, userID string, fn func(Store) (T, error)) (T, bool) {
	var zero T
	if f.remote != nil {
		v, err := fn(f.remote)
		if err == nil {
			return v, true
		}
		if errors.Is(err, models.ErrNotFound) {
			return zero, false
		}
		f.degraded(op, userID, err)
	} else if f.local == nil {
		f.degraded(op, userID, ErrUnavailable)
		return zero, false
	}

	if f.local == nil || ctx.Err() != nil {
		return zero, false
	}
	v, err := fn(f.local)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			f.log.Warn("local store read failed", "op", op, "user", userID, "error", err)
		}
		return zero, false
	}
	return v, true
}

// write mirrors fn to the local store and then runs it on the remote store.
// Errors are logged and dropped.
func (f *Facade) write(ctx context.Context, op, userID string, fn func(Store) error) {
	if f.local != nil {
		if err := fn(f.local); err != nil {
			f.log.Warn("local store write failed", "op", op, "user", userID, "error", err)
		}
	}
	if f.remote == nil {
		return
	}
	if err := fn(f.remote); err != nil {
		f.degraded(op, userID, err)
	}
}

// TouchUser records that userID was seen.
func (f *Facade) TouchUser(ctx context.Context, userID, displayName string) {
	f.write(ctx, "touch_user", userID, func(s Store) error {
		return s.TouchUser(ctx, userID, displayName)
	})
}

// SaveProfile stamps timestamps and upserts p. The stored value is returned.
func (f *Facade) SaveProfile(ctx context.Context, p models.UserProfile) models.UserProfile {
	now := f.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	f.write(ctx, "save_profile", p.UserID, func(s Store) error {
		return s.SaveProfile(ctx, p)
	})
	return p
}

// Profile returns nil when the user has no profile or no store answered.
func (f *Facade) Profile(ctx context.Context, userID string) *models.UserProfile {
	p, _ := read(ctx, f, "get_profile", userID, func(s Store) (*models.UserProfile, error) {
		return s.GetProfile(ctx, userID)
	})
	return p
}

// AddEquipment assigns an id and timestamp and stores e.
func (f *Facade) AddEquipment(ctx context.Context, e models.EquipmentRecord) models.EquipmentRecord {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = f.Now()
	}
	f.write(ctx, "insert_equipment", e.UserID, func(s Store) error {
		return s.InsertEquipment(ctx, e)
	})
	return e
}

// Equipment returns the user's inventory, empty when unavailable.
func (f *Facade) Equipment(ctx context.Context, userID string) []models.EquipmentRecord {
	list, ok := read(ctx, f, "list_equipment", userID, func(s Store) ([]models.EquipmentRecord, error) {
		return s.ListEquipment(ctx, userID)
	})
	if !ok || list == nil {
		return []models.EquipmentRecord{}
	}
	return list
}

// DeleteEquipment removes a record from both stores and reports whether
// either store had it.
func (f *Facade) DeleteEquipment(ctx context.Context, userID string, id uuid.UUID) bool {
	deleted := false
	f.write(ctx, "delete_equipment", userID, func(s Store) error {
		ok, err := s.DeleteEquipment(ctx, userID, id)
		deleted = deleted || ok
		return err
	})
	return deleted
}

func (f *Facade) stampPlan(p *models.WorkoutPlan) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = f.Now()
	}
}

// SavePlan stores an inactive plan.
func (f *Facade) SavePlan(ctx context.Context, p models.WorkoutPlan) models.WorkoutPlan {
	f.stampPlan(&p)
	p.IsActive = false
	f.write(ctx, "insert_plan", p.UserID, func(s Store) error {
		return s.InsertPlan(ctx, p)
	})
	return p
}

// ActivatePlan makes p the user's only active plan. The remote store
// decides: when it rejects the activation but still answers with an active
// plan of its own, that plan is mirrored locally and returned instead of p.
func (f *Facade) ActivatePlan(ctx context.Context, p models.WorkoutPlan) models.WorkoutPlan {
	f.stampPlan(&p)
	p.IsActive = true
	if f.remote != nil {
		if err := f.remote.ActivatePlan(ctx, p); err != nil {
			f.degraded("activate_plan", p.UserID, err)
			if cur, rerr := f.remote.GetActivePlan(ctx, p.UserID); rerr == nil && cur != nil && cur.ID != p.ID {
				f.log.Warn("plan activation rejected by remote store",
					"user", p.UserID, "plan", p.ID, "remote_active", cur.ID, "error", err)
				p = *cur
			}
		}
	}
	if f.local != nil {
		if err := f.local.ActivatePlan(ctx, p); err != nil {
			f.log.Warn("local store write failed", "op", "activate_plan", "user", p.UserID, "error", err)
		}
	}
	return p
}

// DeactivatePlans leaves the user without an active plan.
func (f *Facade) DeactivatePlans(ctx context.Context, userID string) {
	f.write(ctx, "deactivate_plans", userID, func(s Store) error {
		return s.DeactivatePlans(ctx, userID)
	})
}

// ActivePlan returns nil when there is no active plan.
func (f *Facade) ActivePlan(ctx context.Context, userID string) *models.WorkoutPlan {
	p, _ := read(ctx, f, "get_active_plan", userID, func(s Store) (*models.WorkoutPlan, error) {
		return s.GetActivePlan(ctx, userID)
	})
	return p
}

// LatestPlanForDay returns nil when no plan was saved for day.
func (f *Facade) LatestPlanForDay(ctx context.Context, userID string, day int) *models.WorkoutPlan {
	p, _ := read(ctx, f, "get_plan_for_day", userID, func(s Store) (*models.WorkoutPlan, error) {
		return s.GetLatestPlanForDay(ctx, userID, day)
	})
	return p
}

// Progress returns the user's counters, or zero counters when none exist.
func (f *Facade) Progress(ctx context.Context, userID string) models.WorkoutProgress {
	p, ok := read(ctx, f, "get_progress", userID, func(s Store) (*models.WorkoutProgress, error) {
		return s.GetProgress(ctx, userID)
	})
	if !ok || p == nil {
		return models.WorkoutProgress{UserID: userID}
	}
	return *p
}

// IncrementProgress records one completed workout. The remote store does
// the increment and the result is copied to the local mirror; without a
// remote answer the local store increments on its own.
func (f *Facade) IncrementProgress(ctx context.Context, userID string) models.WorkoutProgress {
	at := f.Now()

	if f.remote != nil {
		p, err := f.remote.IncrementProgress(ctx, userID, at)
		if err == nil {
			if f.local != nil {
				if err := f.local.SaveProgress(ctx, *p); err != nil {
					f.log.Warn("local store write failed", "op", "save_progress", "user", userID, "error", err)
				}
			}
			return *p
		}
		f.degraded("increment_progress", userID, err)
	}

	if f.local != nil {
		p, err := f.local.IncrementProgress(ctx, userID, at)
		if err == nil {
			return *p
		}
		f.log.Warn("local store write failed", "op", "increment_progress", "user", userID, "error", err)
	}
	return models.WorkoutProgress{UserID: userID, Days: 1, Achievements: 1, LastWorkout: &at, UpdatedAt: at}
}

// LogScan records a recognition attempt.
func (f *Facade) LogScan(ctx context.Context, l models.ScanLog) {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = f.Now()
	}
	f.write(ctx, "insert_scan_log", l.UserID, func(s Store) error {
		_, err := s.InsertScanLog(ctx, l)
		return err
	})
}

// ScanLogs returns recent scan logs, empty when unavailable.
func (f *Facade) ScanLogs(ctx context.Context, userID string, limit int) []models.ScanLog {
	logs, ok := read(ctx, f, "list_scan_logs", userID, func(s Store) ([]models.ScanLog, error) {
		return s.ListScanLogs(ctx, userID, limit)
	})
	if !ok || logs == nil {
		return []models.ScanLog{}
	}
	return logs
}
