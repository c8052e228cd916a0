package models

import (
	"time"

	"github.com/google/uuid"
)

type WorkoutType string

const (
	WorkoutLower WorkoutType = "lower"
	WorkoutUpper WorkoutType = "upper"
)

// EquipmentRef points back at an inventory record used to build a plan.
type EquipmentRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// WorkoutPlan is a composed daily routine. Exercises are a snapshot copy and
// never alias the inventory they were taken from.
type WorkoutPlan struct {
	ID              uuid.UUID          `json:"id"`
	UserID          string             `json:"userId"`
	Name            string             `json:"name"`
	Description     string             `json:"description,omitempty"`
	Type            WorkoutType        `json:"type"`
	DurationMinutes int                `json:"duration"`
	Exercises       []ExerciseTemplate `json:"exercises"`
	Equipment       []EquipmentRef     `json:"equipment"`
	Warmup          []string           `json:"warmup,omitempty"`
	Cooldown        []string           `json:"cooldown,omitempty"`
	WorkoutDay      int                `json:"workoutDay"`
	IsActive        bool               `json:"isActive"`
	CreatedAt       time.Time          `json:"createdAt"`
}

// Clone returns a copy of p that shares no slices with it.
func (p WorkoutPlan) Clone() WorkoutPlan {
	p.Exercises = CloneExercises(p.Exercises)
	if p.Equipment != nil {
		refs := make([]EquipmentRef, len(p.Equipment))
		copy(refs, p.Equipment)
		p.Equipment = refs
	}
	p.Warmup = append([]string(nil), p.Warmup...)
	p.Cooldown = append([]string(nil), p.Cooldown...)
	return p
}

// NextWorkoutDay alternates between day 1 and day 2.
func NextWorkoutDay(day int) int {
	if day == 1 {
		return 2
	}
	return 1
}

// WorkoutProgress holds the cumulative completion counters for a user.
// The zero value is the default for a user who never finished a workout.
type WorkoutProgress struct {
	UserID       string     `json:"userId"`
	Days         int        `json:"days"`
	Achievements int        `json:"achievements"`
	LastWorkout  *time.Time `json:"lastWorkout"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}
