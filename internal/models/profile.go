package models

import "time"

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Valid reports whether g is a known gender.
func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

type Goal string

const (
	GoalLoseWeight Goal = "lose_weight"
	GoalGainMass   Goal = "gain_mass"
	GoalTone       Goal = "tone"
	GoalHealth     Goal = "health"
	GoalEndurance  Goal = "endurance"
)

// Valid reports whether g is a known goal.
func (g Goal) Valid() bool {
	switch g {
	case GoalLoseWeight, GoalGainMass, GoalTone, GoalHealth, GoalEndurance:
		return true
	}
	return false
}

type FitnessLevel string

const (
	LevelBeginner     FitnessLevel = "beginner"
	LevelIntermediate FitnessLevel = "intermediate"
	LevelAdvanced     FitnessLevel = "advanced"
)

// Weekly frequency bounds accepted at onboarding.
const (
	MinWeeklyFrequency = 2
	MaxWeeklyFrequency = 6
)

// UserProfile is the per-user anthropometric record. FitnessLevel is derived
// from age, BMI and weekly frequency whenever the profile is saved.
type UserProfile struct {
	UserID              string       `json:"userId"`
	Name                string       `json:"name"`
	Age                 int          `json:"age"`
	WeightKg            float64      `json:"weight"`
	HeightCm            float64      `json:"height"`
	Gender              Gender       `json:"gender"`
	Goal                Goal         `json:"goal"`
	WeeklyFrequency     int          `json:"weeklyFrequency"`
	FitnessLevel        FitnessLevel `json:"fitnessLevel"`
	HasBariatricSurgery bool         `json:"hasBariatricSurgery"`
	UsesGLP1Medication  bool         `json:"usesGlp1Medication"`
	CreatedAt           time.Time    `json:"createdAt"`
	UpdatedAt           time.Time    `json:"updatedAt"`
}
