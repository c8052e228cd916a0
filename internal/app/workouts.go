package app

import (
	"context"
	"strings"

	"github.com/claude/fitscan/internal/composer"
	"github.com/claude/fitscan/internal/models"
	"github.com/claude/fitscan/internal/recognition"
)

// CurrentDay returns the selected workout day: the cached value, then the
// active plan's day, then 1.
func (s *Service) CurrentDay(ctx context.Context, userID string) int {
	if day, ok := s.cache.WorkoutDay(userID); ok {
		return day
	}
	day := 1
	if p := s.store.ActivePlan(ctx, userID); p != nil && (p.WorkoutDay == 1 || p.WorkoutDay == 2) {
		day = p.WorkoutDay
	}
	s.cache.SetWorkoutDay(userID, day)
	return day
}

// TodayWorkout returns the latest saved plan for day, composing and saving
// a new one from the inventory when there is none or regenerate is set. A
// day of 0 means the current day.
func (s *Service) TodayWorkout(ctx context.Context, userID string, day int, regenerate bool) (*models.WorkoutPlan, error) {
	if day == 0 {
		day = s.CurrentDay(ctx, userID)
	}
	if day != 1 && day != 2 {
		return nil, invalid("workout day must be 1 or 2")
	}

	if !regenerate {
		if p := s.store.LatestPlanForDay(ctx, userID, day); p != nil {
			return p, nil
		}
	}

	plan := composer.Compose(s.store.Equipment(ctx, userID), day)
	plan.UserID = userID
	plan = s.store.SavePlan(ctx, plan)
	s.log.Info("workout composed", "user", userID, "day", day, "exercises", len(plan.Exercises))
	return &plan, nil
}

// ToggleDay switches the current workout day between 1 and 2 and returns
// the new day. Stored plans keep the day they were composed for.
func (s *Service) ToggleDay(ctx context.Context, userID string) int {
	day := models.NextWorkoutDay(s.CurrentDay(ctx, userID))
	s.cache.SetWorkoutDay(userID, day)
	return day
}

// ActiveWorkout returns the plan of the workout in progress, or nil.
func (s *Service) ActiveWorkout(ctx context.Context, userID string) *models.WorkoutPlan {
	if p, ok := s.cache.ActiveWorkout(userID); ok {
		return p
	}
	p := s.store.ActivePlan(ctx, userID)
	if p != nil {
		s.cache.SetActiveWorkout(userID, *p)
	}
	return p
}

// GenerateRoutine asks the model for a routine built from equipment, or
// from the user's inventory when equipment is empty. Without an explicit
// profile the stored one is used. The plan is saved for the current day.
func (s *Service) GenerateRoutine(ctx context.Context, userID string, equipment []models.EquipmentRecord, rp *recognition.RoutineProfile) (*models.WorkoutPlan, error) {
	if len(equipment) == 0 {
		equipment = s.store.Equipment(ctx, userID)
	}
	if len(equipment) == 0 {
		return nil, recognition.ErrNoEquipment
	}
	if rp == nil {
		rp = s.routineProfile(ctx, userID)
	}

	plan, err := s.recog.GenerateRoutine(ctx, equipment, rp)
	if err != nil {
		return nil, err
	}
	plan.UserID = userID
	plan.Type = composer.Classify(equipment)
	plan.WorkoutDay = s.CurrentDay(ctx, userID)
	saved := s.store.SavePlan(ctx, *plan)
	return &saved, nil
}

func (s *Service) routineProfile(ctx context.Context, userID string) *recognition.RoutineProfile {
	p := s.store.Profile(ctx, userID)
	if p == nil {
		return nil
	}
	var conditions []string
	if p.HasBariatricSurgery {
		conditions = append(conditions, "had bariatric surgery")
	}
	if p.UsesGLP1Medication {
		conditions = append(conditions, "uses GLP-1 medication")
	}
	return &recognition.RoutineProfile{
		Goal:       string(p.Goal),
		Level:      string(p.FitnessLevel),
		Conditions: strings.Join(conditions, ", "),
	}
}

// Progress returns the user's completion counters.
func (s *Service) Progress(ctx context.Context, userID string) models.WorkoutProgress {
	return s.store.Progress(ctx, userID)
}
