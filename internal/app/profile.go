package app

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/claude/fitscan/internal/models"
	"github.com/claude/fitscan/internal/profile"
)

// ProfileInput is the onboarding form.
type ProfileInput struct {
	Name                string        `json:"name"`
	Age                 int           `json:"age"`
	WeightKg            float64       `json:"weight"`
	HeightCm            float64       `json:"height"`
	Gender              models.Gender `json:"gender"`
	Goal                models.Goal   `json:"goal"`
	WeeklyFrequency     int           `json:"weeklyFrequency"`
	HasBariatricSurgery bool          `json:"hasBariatricSurgery"`
	UsesGLP1Medication  bool          `json:"usesGlp1Medication"`
}

func (in ProfileInput) validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return invalid("name is required")
	case in.Age <= 0:
		return invalid("age must be positive")
	case in.WeightKg <= 0:
		return invalid("weight must be positive")
	case in.HeightCm <= 0:
		return invalid("height must be positive")
	case !in.Gender.Valid():
		return invalid("unknown gender %q", in.Gender)
	case !in.Goal.Valid():
		return invalid("unknown goal %q", in.Goal)
	case in.WeeklyFrequency < models.MinWeeklyFrequency || in.WeeklyFrequency > models.MaxWeeklyFrequency:
		return invalid("weekly frequency must be between %d and %d", models.MinWeeklyFrequency, models.MaxWeeklyFrequency)
	}
	return nil
}

// ProfileView is a stored profile with its derived stats.
type ProfileView struct {
	Profile models.UserProfile `json:"profile"`
	Stats   profile.Stats      `json:"stats"`
}

// CompleteOnboarding validates in, derives the fitness level and saves the
// profile. Calling it again edits the profile.
func (s *Service) CompleteOnboarding(ctx context.Context, userID string, in ProfileInput) (*ProfileView, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	bmi := profile.CalculateBMI(in.WeightKg, in.HeightCm)
	p := models.UserProfile{
		UserID:              userID,
		Name:                strings.TrimSpace(in.Name),
		Age:                 in.Age,
		WeightKg:            in.WeightKg,
		HeightCm:            in.HeightCm,
		Gender:              in.Gender,
		Goal:                in.Goal,
		WeeklyFrequency:     in.WeeklyFrequency,
		FitnessLevel:        profile.DetermineFitnessLevel(in.Age, bmi, in.WeeklyFrequency),
		HasBariatricSurgery: in.HasBariatricSurgery,
		UsesGLP1Medication:  in.UsesGLP1Medication,
	}
	if existing := s.store.Profile(ctx, userID); existing != nil {
		p.CreatedAt = existing.CreatedAt
	}

	p = s.store.SaveProfile(ctx, p)
	s.log.Info("profile saved", "user", userID, "level", p.FitnessLevel)
	return &ProfileView{Profile: p, Stats: profile.Summarize(p)}, nil
}

// Profile returns ErrNotFound when onboarding has not been completed.
func (s *Service) Profile(ctx context.Context, userID string) (*ProfileView, error) {
	p := s.store.Profile(ctx, userID)
	if p == nil {
		return nil, ErrNotFound
	}
	return &ProfileView{Profile: *p, Stats: profile.Summarize(*p)}, nil
}

// Dashboard is everything the home screen shows.
type Dashboard struct {
	OnboardingRequired bool                   `json:"onboardingRequired"`
	Profile            *models.UserProfile    `json:"profile,omitempty"`
	Stats              *profile.Stats         `json:"stats,omitempty"`
	Progress           models.WorkoutProgress `json:"progress"`
	WorkoutDay         int                    `json:"workoutDay"`
	TodayWorkout       *models.WorkoutPlan    `json:"todayWorkout,omitempty"`
	EquipmentCount     int                    `json:"equipmentCount"`
}

// Dashboard loads the home screen. Without a profile only
// OnboardingRequired is set.
func (s *Service) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	p := s.store.Profile(ctx, userID)
	if p == nil {
		return &Dashboard{OnboardingRequired: true, Progress: models.WorkoutProgress{UserID: userID}}, nil
	}

	stats := profile.Summarize(*p)
	d := &Dashboard{Profile: p, Stats: &stats}

	day := s.CurrentDay(ctx, userID)
	d.WorkoutDay = day

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d.Progress = s.store.Progress(gctx, userID)
		return nil
	})
	g.Go(func() error {
		d.EquipmentCount = len(s.store.Equipment(gctx, userID))
		return nil
	})
	g.Go(func() error {
		plan, err := s.TodayWorkout(gctx, userID, day, false)
		if err != nil {
			return err
		}
		d.TodayWorkout = plan
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}
