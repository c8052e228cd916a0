package models

import (
	"time"

	"github.com/google/uuid"
)

// ExerciseTemplate describes one exercise as proposed by the recognition
// model. Sets, reps and rest are free-form ranges such as "3-4" or "60-90s".
type ExerciseTemplate struct {
	Name        string     `json:"name"`
	Sets        string     `json:"sets"`
	Reps        string     `json:"reps"`
	Rest        string     `json:"rest"`
	Difficulty  Difficulty `json:"difficulty"`
	Description string     `json:"description"`
	Equipment   string     `json:"equipment,omitempty"`
	Tips        string     `json:"tips,omitempty"`
}

// EquipmentRecord is one recognized gym machine in a user's inventory.
// Records are immutable once inserted; they can only be deleted.
type EquipmentRecord struct {
	ID             uuid.UUID          `json:"id"`
	UserID         string             `json:"userId"`
	Name           string             `json:"equipmentName"`
	Category       string             `json:"category"`
	MuscleGroups   []string           `json:"muscleGroups"`
	Description    string             `json:"description"`
	Detected       bool               `json:"detected"`
	ImageURL       string             `json:"imageUrl,omitempty"`
	Exercises      []ExerciseTemplate `json:"exercises"`
	Tips           []string           `json:"tips"`
	CommonMistakes []string           `json:"commonMistakes"`
	CreatedAt      time.Time          `json:"createdAt"`
}

// CloneExercises returns a deep copy of the given exercises.
func CloneExercises(in []ExerciseTemplate) []ExerciseTemplate {
	if in == nil {
		return nil
	}
	out := make([]ExerciseTemplate, len(in))
	copy(out, in)
	return out
}
