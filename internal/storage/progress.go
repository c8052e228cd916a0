package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/claude/fitscan/internal/models"
)

// GetProgress returns the user's counters or models.ErrNotFound.
func (db *DB) GetProgress(ctx context.Context, userID string) (*models.WorkoutProgress, error) {
	var p models.WorkoutProgress
	err := db.Pool.QueryRow(ctx,
		`SELECT user_id, days, achievements, last_workout, updated_at
		 FROM workout_progress WHERE user_id = $1`, userID,
	).Scan(&p.UserID, &p.Days, &p.Achievements, &p.LastWorkout, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("getting progress: %w", notFound(err))
	}
	return &p, nil
}

// IncrementProgress adds one completed day and one achievement, creating the
// record on first completion. The increment is a single atomic statement.
func (db *DB) IncrementProgress(ctx context.Context, userID string, at time.Time) (*models.WorkoutProgress, error) {
	var p models.WorkoutProgress
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO workout_progress (user_id, days, achievements, last_workout, updated_at)
		 VALUES ($1, 1, 1, $2, $2)
		 ON CONFLICT (user_id) DO UPDATE SET
		 days = workout_progress.days + 1,
		 achievements = workout_progress.achievements + 1,
		 last_workout = EXCLUDED.last_workout,
		 updated_at = EXCLUDED.updated_at
		 RETURNING user_id, days, achievements, last_workout, updated_at`,
		userID, at,
	).Scan(&p.UserID, &p.Days, &p.Achievements, &p.LastWorkout, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("incrementing progress: %w", err)
	}
	return &p, nil
}

// SaveProgress overwrites the user's counters with p.
func (db *DB) SaveProgress(ctx context.Context, p models.WorkoutProgress) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO workout_progress (user_id, days, achievements, last_workout, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id) DO UPDATE SET
		 days = EXCLUDED.days, achievements = EXCLUDED.achievements,
		 last_workout = EXCLUDED.last_workout, updated_at = EXCLUDED.updated_at`,
		p.UserID, p.Days, p.Achievements, p.LastWorkout, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving progress: %w", err)
	}
	return nil
}
