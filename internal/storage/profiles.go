package storage

import (
	"context"
	"fmt"

	"github.com/claude/fitscan/internal/models"
)

// SaveProfile inserts or replaces the profile for p.UserID in one statement.
// created_at is kept from the first insert.
func (db *DB) SaveProfile(ctx context.Context, p models.UserProfile) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO user_profiles (user_id, name, age, weight_kg, height_cm, gender, goal,
		 weekly_frequency, fitness_level, has_bariatric_surgery, uses_glp1_medication, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		 ON CONFLICT (user_id) DO UPDATE SET
		 name = EXCLUDED.name, age = EXCLUDED.age, weight_kg = EXCLUDED.weight_kg,
		 height_cm = EXCLUDED.height_cm, gender = EXCLUDED.gender, goal = EXCLUDED.goal,
		 weekly_frequency = EXCLUDED.weekly_frequency, fitness_level = EXCLUDED.fitness_level,
		 has_bariatric_surgery = EXCLUDED.has_bariatric_surgery,
		 uses_glp1_medication = EXCLUDED.uses_glp1_medication,
		 updated_at = EXCLUDED.updated_at`,
		p.UserID, p.Name, p.Age, p.WeightKg, p.HeightCm, string(p.Gender), string(p.Goal),
		p.WeeklyFrequency, string(p.FitnessLevel), p.HasBariatricSurgery, p.UsesGLP1Medication,
		p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	return nil
}

// GetProfile returns the profile for userID or models.ErrNotFound.
func (db *DB) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	var (
		p                   models.UserProfile
		gender, goal, level string
	)
	err := db.Pool.QueryRow(ctx,
		`SELECT user_id, name, age, weight_kg, height_cm, gender, goal, weekly_frequency,
		 fitness_level, has_bariatric_surgery, uses_glp1_medication, created_at, updated_at
		 FROM user_profiles WHERE user_id = $1`, userID,
	).Scan(&p.UserID, &p.Name, &p.Age, &p.WeightKg, &p.HeightCm, &gender, &goal,
		&p.WeeklyFrequency, &level, &p.HasBariatricSurgery, &p.UsesGLP1Medication,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("getting profile: %w", notFound(err))
	}
	p.Gender = models.Gender(gender)
	p.Goal = models.Goal(goal)
	p.FitnessLevel = models.FitnessLevel(level)
	return &p, nil
}
