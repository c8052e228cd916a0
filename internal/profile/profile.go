// Package profile derives BMI, fitness level, caloric needs and macro
// targets from a user's anthropometric data. All functions are pure.
package profile

import (
	"math"

	"github.com/claude/fitscan/internal/models"
)

// BMICategory is one of the six BMI bands.
type BMICategory string

const (
	Underweight BMICategory = "underweight"
	Normal      BMICategory = "normal"
	Overweight  BMICategory = "overweight"
	ObesityI    BMICategory = "obesity_1"
	ObesityII   BMICategory = "obesity_2"
	ObesityIII  BMICategory = "obesity_3"
	Unknown     BMICategory = "unknown"
)

// BMI band upper bounds (exclusive).
const (
	UnderweightMax = 18.5
	NormalMax      = 25.0
	OverweightMax  = 30.0
	ObesityIMax    = 35.0
	ObesityIIMax   = 40.0
)

// Fitness level scoring thresholds.
const (
	HighFrequency     = 5
	ModerateFrequency = 3
	YoungAge          = 30
	SeniorAge         = 50
	AdvancedScore     = 5
	IntermediateScore = 3
)

// Harris-Benedict BMR coefficients.
const (
	maleBase, maleWeight, maleHeight, maleAge         = 88.362, 13.397, 4.799, 5.677
	femaleBase, femaleWeight, femaleHeight, femaleAge = 447.593, 9.247, 3.098, 4.330
)

// Energy per gram of each macronutrient, in kcal.
const (
	KcalPerGramProtein = 4
	KcalPerGramCarbs   = 4
	KcalPerGramFat     = 9
)

// CalculateBMI returns weight / height(m)^2 rounded to one decimal. A
// non-positive height yields NaN; callers must guard against it.
func CalculateBMI(weightKg, heightCm float64) float64 {
	if heightCm <= 0 {
		return math.NaN()
	}
	h := heightCm / 100
	return math.Round(weightKg/(h*h)*10) / 10
}

// ClassifyBMI maps any BMI value to a band. NaN maps to Unknown.
func ClassifyBMI(bmi float64) BMICategory {
	switch {
	case math.IsNaN(bmi):
		return Unknown
	case bmi < UnderweightMax:
		return Underweight
	case bmi < NormalMax:
		return Normal
	case bmi < OverweightMax:
		return Overweight
	case bmi < ObesityIMax:
		return ObesityI
	case bmi < ObesityIIMax:
		return ObesityII
	default:
		return ObesityIII
	}
}

// DetermineFitnessLevel scores frequency, BMI and age additively. The scoring
// is a heuristic, not a clinical formula.
func DetermineFitnessLevel(age int, bmi float64, weeklyFrequency int) models.FitnessLevel {
	score := 0

	switch {
	case weeklyFrequency >= HighFrequency:
		score += 3
	case weeklyFrequency >= ModerateFrequency:
		score += 2
	default:
		score++
	}

	switch {
	case bmi >= UnderweightMax && bmi < NormalMax:
		score += 2
	case bmi >= NormalMax && bmi < OverweightMax:
		score++
	}

	if age < YoungAge {
		score++
	} else if age >= SeniorAge {
		score--
	}

	switch {
	case score >= AdvancedScore:
		return models.LevelAdvanced
	case score >= IntermediateScore:
		return models.LevelIntermediate
	default:
		return models.LevelBeginner
	}
}

// ActivityFactor returns the BMR multiplier for a weekly training frequency.
func ActivityFactor(weeklyFrequency int) float64 {
	switch {
	case weeklyFrequency >= 5:
		return 1.725
	case weeklyFrequency >= 3:
		return 1.55
	case weeklyFrequency >= 1:
		return 1.375
	default:
		return 1.2
	}
}

// GoalFactor returns the calorie adjustment for a goal.
func GoalFactor(goal models.Goal) float64 {
	switch goal {
	case models.GoalLoseWeight:
		return 0.8
	case models.GoalGainMass:
		return 1.15
	case models.GoalTone:
		return 0.9
	default:
		return 1.0
	}
}

// CalculateDailyCalories estimates daily energy needs in kcal using the
// Harris-Benedict equation. Genders other than male use the female
// coefficients.
func CalculateDailyCalories(weightKg, heightCm float64, age int, gender models.Gender, goal models.Goal, weeklyFrequency int) int {
	a := float64(age)
	var bmr float64
	if gender == models.GenderMale {
		bmr = maleBase + maleWeight*weightKg + maleHeight*heightCm - maleAge*a
	} else {
		bmr = femaleBase + femaleWeight*weightKg + femaleHeight*heightCm - femaleAge*a
	}
	return int(math.Round(bmr * ActivityFactor(weeklyFrequency) * GoalFactor(goal)))
}

// Macros are daily macronutrient targets in grams.
type Macros struct {
	ProteinG int `json:"protein"`
	CarbsG   int `json:"carbs"`
	FatsG    int `json:"fats"`
}

type ratio struct{ protein, carbs, fats float64 }

// macroRatios returns the protein/carbs/fats energy split for a goal.
func macroRatios(goal models.Goal) ratio {
	switch goal {
	case models.GoalGainMass:
		return ratio{0.35, 0.45, 0.20}
	case models.GoalLoseWeight, models.GoalTone:
		return ratio{0.40, 0.30, 0.30}
	default:
		return ratio{0.30, 0.40, 0.30}
	}
}

// CalculateMacros splits a calorie target into grams per macronutrient.
func CalculateMacros(calories int, goal models.Goal) Macros {
	r := macroRatios(goal)
	c := float64(calories)
	return Macros{
		ProteinG: int(math.Round(c * r.protein / KcalPerGramProtein)),
		CarbsG:   int(math.Round(c * r.carbs / KcalPerGramCarbs)),
		FatsG:    int(math.Round(c * r.fats / KcalPerGramFat)),
	}
}

// Stats bundles the derived values shown on the dashboard.
type Stats struct {
	BMI          float64             `json:"bmi"`
	BMICategory  BMICategory         `json:"bmiCategory"`
	FitnessLevel models.FitnessLevel `json:"fitnessLevel"`
	Calories     int                 `json:"calories"`
	Macros       Macros              `json:"macros"`
}

// Summarize derives all stats for a profile. A profile without a valid
// height reports BMI 0 and category Unknown so the result stays JSON-safe.
func Summarize(p models.UserProfile) Stats {
	bmi := CalculateBMI(p.WeightKg, p.HeightCm)
	cal := CalculateDailyCalories(p.WeightKg, p.HeightCm, p.Age, p.Gender, p.Goal, p.WeeklyFrequency)
	s := Stats{
		BMI:          bmi,
		BMICategory:  ClassifyBMI(bmi),
		FitnessLevel: DetermineFitnessLevel(p.Age, bmi, p.WeeklyFrequency),
		Calories:     cal,
		Macros:       CalculateMacros(cal, p.Goal),
	}
	if math.IsNaN(bmi) {
		s.BMI = 0
	}
	return s
}
