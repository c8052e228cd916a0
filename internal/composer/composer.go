// Package composer assembles a daily routine from a user's equipment
// inventory, alternating lower-body and upper-body days.
package composer

import (
	"strings"

	"github.com/claude/fitscan/internal/models"
)

const (
	// MaxExercises caps the number of exercises in a composed plan.
	MaxExercises = 8
	// MinutesPerExercise is the per-exercise duration estimate.
	MinutesPerExercise = 5
)

// Archetype is a fixed routine shape selected by day parity.
type Archetype struct {
	Type     models.WorkoutType
	Name     string
	Keywords []string
	Default  models.WorkoutPlan
}

// Lower is the odd-day archetype.
var Lower = Archetype{
	Type: models.WorkoutLower,
	Name: "Workout A - Legs & Glutes",
	Keywords: []string{
		"leg", "glute", "quad", "hamstring", "posterior", "calf", "calves", "thigh", "adductor", "abductor",
		"perna", "glúteo", "gluteo", "quadríceps", "quadriceps", "panturrilha", "coxa",
	},
	Default: models.WorkoutPlan{
		Name:            "Workout A - Legs & Glutes",
		Type:            models.WorkoutLower,
		DurationMinutes: 45,
		Exercises: []models.ExerciseTemplate{
			{
				Name:        "Bodyweight Squat",
				Sets:        "4",
				Reps:        "12-15",
				Rest:        "60",
				Difficulty:  models.DifficultyIntermediate,
				Description: "Feet shoulder-width apart, sit the hips back and down until the thighs are parallel to the floor, then stand up.",
			},
			{
				Name:        "Lunge",
				Sets:        "3",
				Reps:        "10-12",
				Rest:        "45",
				Difficulty:  models.DifficultyBeginner,
				Description: "Step forward and lower until both knees are bent at about 90 degrees, then push back to the start. Alternate legs.",
			},
		},
	},
}

// Upper is the even-day archetype.
var Upper = Archetype{
	Type: models.WorkoutUpper,
	Name: "Workout B - Arms & Chest",
	Keywords: []string{
		"arm", "bicep", "tricep", "shoulder", "deltoid", "chest", "pectoral", "back", "lat", "trapez",
		"braço", "braco", "bíceps", "tríceps", "ombro", "peito", "peitoral", "costas", "dorsal",
	},
	Default: models.WorkoutPlan{
		Name:            "Workout B - Arms & Chest",
		Type:            models.WorkoutUpper,
		DurationMinutes: 40,
		Exercises: []models.ExerciseTemplate{
			{
				Name:        "Push-Up",
				Sets:        "3",
				Reps:        "10-15",
				Rest:        "60",
				Difficulty:  models.DifficultyIntermediate,
				Description: "Hands slightly wider than the shoulders, body in a straight line, lower the chest to the floor and push back up.",
			},
			{
				Name:        "Bench Dip",
				Sets:        "3",
				Reps:        "12-15",
				Rest:        "45",
				Difficulty:  models.DifficultyBeginner,
				Description: "Hands on the edge of a bench behind you, bend the elbows to lower the body, then press back up.",
			},
		},
	},
}

// ForDay returns the archetype for a workout day: odd days are lower body,
// even days upper body.
func ForDay(day int) Archetype {
	if day%2 != 0 {
		return Lower
	}
	return Upper
}

// Matches reports whether any of the muscle-group tags contains one of the
// archetype keywords, case-insensitively.
func (a Archetype) Matches(muscleGroups []string) bool {
	for _, mg := range muscleGroups {
		mg = strings.ToLower(mg)
		for _, kw := range a.Keywords {
			if strings.Contains(mg, kw) {
				return true
			}
		}
	}
	return false
}

// Compose builds the plan for day from the inventory. Exercises from
// matching equipment are taken in inventory order and truncated to
// MaxExercises; there is no per-equipment fairness. Duration is estimated
// from every candidate exercise, before truncation. With no match the
// archetype's default routine is returned. The result never aliases the
// inventory.
func Compose(inventory []models.EquipmentRecord, day int) models.WorkoutPlan {
	a := ForDay(day)

	var (
		exercises []models.ExerciseTemplate
		refs      []models.EquipmentRef
	)
	for _, e := range inventory {
		if !a.Matches(e.MuscleGroups) {
			continue
		}
		refs = append(refs, models.EquipmentRef{ID: e.ID, Name: e.Name})
		exercises = append(exercises, e.Exercises...)
	}

	if len(exercises) == 0 {
		plan := a.Default.Clone()
		plan.Equipment = []models.EquipmentRef{}
		plan.WorkoutDay = day
		return plan
	}

	duration := len(exercises) * MinutesPerExercise
	if len(exercises) > MaxExercises {
		exercises = exercises[:MaxExercises]
	}

	return models.WorkoutPlan{
		Name:            a.Name,
		Type:            a.Type,
		DurationMinutes: duration,
		Exercises:       models.CloneExercises(exercises),
		Equipment:       refs,
		WorkoutDay:      day,
	}
}

// Classify picks the archetype type that matches more of the given
// equipment, preferring lower body on a tie.
func Classify(equipment []models.EquipmentRecord) models.WorkoutType {
	lower, upper := 0, 0
	for _, e := range equipment {
		if Lower.Matches(e.MuscleGroups) {
			lower++
		}
		if Upper.Matches(e.MuscleGroups) {
			upper++
		}
	}
	if upper > lower {
		return models.WorkoutUpper
	}
	return models.WorkoutLower
}
