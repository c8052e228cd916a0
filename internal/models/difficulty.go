package models

import "strings"

// Difficulty is the canonical exercise difficulty.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// difficultyMap maps lowercased difficulty labels to canonical values. The
// recognition model answers in the user's language, so Portuguese and Spanish
// labels are covered alongside English.
var difficultyMap = map[string]Difficulty{
	// English
	"beginner":     DifficultyBeginner,
	"easy":         DifficultyBeginner,
	"intermediate": DifficultyIntermediate,
	"medium":       DifficultyIntermediate,
	"advanced":     DifficultyAdvanced,
	"hard":         DifficultyAdvanced,

	// Portuguese
	"iniciante":     DifficultyBeginner,
	"fácil":         DifficultyBeginner,
	"facil":         DifficultyBeginner,
	"intermediário": DifficultyIntermediate,
	"intermediario": DifficultyIntermediate,
	"médio":         DifficultyIntermediate,
	"medio":         DifficultyIntermediate,
	"avançado":      DifficultyAdvanced,
	"avancado":      DifficultyAdvanced,
	"difícil":       DifficultyAdvanced,
	"dificil":       DifficultyAdvanced,

	// Spanish
	"principiante": DifficultyBeginner,
	"intermedio":   DifficultyIntermediate,
	"avanzado":     DifficultyAdvanced,
}

// NormalizeDifficulty maps a localized difficulty label to its canonical
// value. Unknown labels are returned unchanged with known=false.
func NormalizeDifficulty(label string) (Difficulty, bool) {
	key := strings.ToLower(strings.TrimSpace(label))
	if d, ok := difficultyMap[key]; ok {
		return d, true
	}
	return Difficulty(strings.TrimSpace(label)), false
}

// Difficulty returns the exercise difficulty matching a fitness level.
func (l FitnessLevel) Difficulty() Difficulty {
	return Difficulty(l)
}
