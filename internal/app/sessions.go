package app

import (
	"context"

	"github.com/google/uuid"

	"github.com/claude/fitscan/internal/demos"
	"github.com/claude/fitscan/internal/models"
	"github.com/claude/fitscan/internal/session"
)

// Session actions accepted by SessionAction.
const (
	ActionCompleteSet = "complete-set"
	ActionSkipRest    = "skip-rest"
	ActionProceed     = "proceed"
)

// SessionView is a session snapshot with its identity and the
// demonstration for the current exercise.
type SessionView struct {
	SessionID string `json:"sessionId"`
	PlanID    string `json:"planId"`
	PlanName  string `json:"planName"`
	session.Snapshot
	DemoAvailable bool                    `json:"demoAvailable"`
	Demo          *demos.Demo             `json:"demo,omitempty"`
	Progress      *models.WorkoutProgress `json:"progress,omitempty"`
}

func (s *Service) view(ls *liveSession, snap session.Snapshot) *SessionView {
	v := &SessionView{
		SessionID: ls.id,
		PlanID:    ls.plan.ID.String(),
		PlanName:  ls.plan.Name,
		Snapshot:  snap,
	}
	if snap.Exercise != nil {
		if d, ok := s.demos.Lookup(snap.Exercise.Name); ok {
			v.Demo = &d
			v.DemoAvailable = true
		}
	}
	return v
}

// StartWorkout activates today's plan and starts a session for it. A
// session already running for the user is stopped and replaced.
func (s *Service) StartWorkout(ctx context.Context, userID string) (*SessionView, error) {
	today, err := s.TodayWorkout(ctx, userID, 0, false)
	if err != nil {
		return nil, err
	}

	plan := today.Clone()
	plan.ID = uuid.Nil
	plan.CreatedAt = s.now().UTC()
	plan = s.store.ActivatePlan(ctx, plan)
	s.cache.SetActiveWorkout(userID, plan)

	ls := &liveSession{
		id:      uuid.NewString(),
		plan:    plan,
		machine: session.New(plan, s.sessionOpts...),
	}

	s.mu.Lock()
	if prev, ok := s.sessions[userID]; ok {
		prev.machine.Close()
		s.log.Info("workout session superseded", "user", userID, "session", prev.id)
	} else {
		s.metrics.GaugeActiveSessions.Inc()
	}
	s.sessions[userID] = ls
	s.mu.Unlock()

	s.log.Info("workout session started", "user", userID, "session", ls.id, "plan", plan.ID)
	return s.view(ls, ls.machine.Snapshot()), nil
}

// ActiveSession returns the user's live session.
func (s *Service) ActiveSession(userID string) (*SessionView, error) {
	s.mu.Lock()
	ls, ok := s.sessions[userID]
	s.mu.Unlock()
	if !ok {
		return nil, ErrNoActiveSession
	}
	return s.view(ls, ls.machine.Snapshot()), nil
}

func (s *Service) lookup(userID, sessionID string) (*liveSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ls, ok := s.sessions[userID]
	if !ok {
		return nil, ErrNoActiveSession
	}
	if ls.id != sessionID {
		return nil, ErrStaleSession
	}
	return ls, nil
}

// SessionAction applies action to the user's session. Completing the last
// set records progress and ends the session.
func (s *Service) SessionAction(ctx context.Context, userID, sessionID, action string) (*SessionView, error) {
	ls, err := s.lookup(userID, sessionID)
	if err != nil {
		return nil, err
	}

	var snap session.Snapshot
	switch action {
	case ActionCompleteSet:
		snap, err = ls.machine.CompleteSet()
	case ActionSkipRest:
		snap, err = ls.machine.SkipRest()
	case ActionProceed:
		snap, err = ls.machine.Proceed()
	default:
		return nil, invalid("unknown session action %q", action)
	}
	v := s.view(ls, snap)
	if err != nil {
		return v, err
	}

	if snap.JustCompleted {
		progress := s.store.IncrementProgress(ctx, userID)
		v.Progress = &progress
		s.metrics.CounterWorkoutsCompleted.Inc()
		s.finish(ctx, userID, ls)
		s.log.Info("workout completed", "user", userID, "session", ls.id, "days", progress.Days)
	}
	return v, nil
}

// EndWorkout tears down the user's session without recording progress.
func (s *Service) EndWorkout(ctx context.Context, userID, sessionID string) error {
	ls, err := s.lookup(userID, sessionID)
	if err != nil {
		return err
	}
	s.finish(ctx, userID, ls)
	s.log.Info("workout session ended", "user", userID, "session", ls.id)
	return nil
}

// finish removes ls if it is still the user's current session.
func (s *Service) finish(ctx context.Context, userID string, ls *liveSession) {
	s.mu.Lock()
	cur, ok := s.sessions[userID]
	current := ok && cur == ls
	if current {
		delete(s.sessions, userID)
		s.metrics.GaugeActiveSessions.Dec()
	}
	s.mu.Unlock()

	ls.machine.Close()
	if current {
		s.cache.ClearActiveWorkout(userID)
		s.store.DeactivatePlans(ctx, userID)
	}
}
