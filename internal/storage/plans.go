package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/claude/fitscan/internal/models"
)

const planColumns = `id, user_id, name, description, type, duration_minutes, exercises, equipment,
	warmup, cooldown, workout_day, is_active, created_at`

func insertPlan(ctx context.Context, tx pgx.Tx, p models.WorkoutPlan) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO workout_plans (`+planColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		planArgs(p)...)
	return err
}

func planArgs(p models.WorkoutPlan) []any {
	return []any{
		p.ID, p.UserID, p.Name, p.Description, string(p.Type), p.DurationMinutes,
		orEmpty(p.Exercises), orEmpty(p.Equipment), orEmpty(p.Warmup), orEmpty(p.Cooldown),
		p.WorkoutDay, p.IsActive, p.CreatedAt,
	}
}

// InsertPlan stores an inactive plan.
func (db *DB) InsertPlan(ctx context.Context, p models.WorkoutPlan) error {
	p.IsActive = false
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO workout_plans (`+planColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		planArgs(p)...)
	if err != nil {
		return fmt.Errorf("inserting plan: %w", err)
	}
	return nil
}

// ActivatePlan deactivates every plan of p.UserID and inserts p as the
// active one, in a single transaction. The partial unique index on active
// plans rejects a concurrent activation instead of leaving two active.
func (db *DB) ActivatePlan(ctx context.Context, p models.WorkoutPlan) error {
	p.IsActive = true
	err := pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`UPDATE workout_plans SET is_active = FALSE WHERE user_id = $1 AND is_active`,
			p.UserID); err != nil {
			return fmt.Errorf("deactivating plans: %w", err)
		}
		if err := insertPlan(ctx, tx, p); err != nil {
			return fmt.Errorf("inserting active plan: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("activating plan: %w", err)
	}
	return nil
}

// DeactivatePlans clears the active flag on every plan of userID.
func (db *DB) DeactivatePlans(ctx context.Context, userID string) error {
	_, err := db.Pool.Exec(ctx,
		`UPDATE workout_plans SET is_active = FALSE WHERE user_id = $1 AND is_active`, userID)
	if err != nil {
		return fmt.Errorf("deactivating plans: %w", err)
	}
	return nil
}

// GetActivePlan returns the user's active plan or models.ErrNotFound.
func (db *DB) GetActivePlan(ctx context.Context, userID string) (*models.WorkoutPlan, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+planColumns+` FROM workout_plans WHERE user_id = $1 AND is_active`, userID)
	p, err := scanPlan(row)
	if err != nil {
		return nil, fmt.Errorf("getting active plan: %w", notFound(err))
	}
	return p, nil
}

// GetLatestPlanForDay returns the most recent plan for a workout day or
// models.ErrNotFound.
func (db *DB) GetLatestPlanForDay(ctx context.Context, userID string, day int) (*models.WorkoutPlan, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+planColumns+` FROM workout_plans
		 WHERE user_id = $1 AND workout_day = $2
		 ORDER BY created_at DESC
		 LIMIT 1`, userID, day)
	p, err := scanPlan(row)
	if err != nil {
		return nil, fmt.Errorf("getting plan for day %d: %w", day, notFound(err))
	}
	return p, nil
}

func scanPlan(row pgx.Row) (*models.WorkoutPlan, error) {
	var (
		p   models.WorkoutPlan
		typ string
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &typ, &p.DurationMinutes,
		&p.Exercises, &p.Equipment, &p.Warmup, &p.Cooldown, &p.WorkoutDay, &p.IsActive,
		&p.CreatedAt); err != nil {
		return nil, err
	}
	p.Type = models.WorkoutType(typ)
	return &p, nil
}
