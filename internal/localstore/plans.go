package localstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/claude/fitscan/internal/models"
)

const planColumns = `id, user_id, name, description, type, duration_minutes, exercises, equipment,
	warmup, cooldown, workout_day, is_active, created_at`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertPlan(ctx context.Context, db execer, p models.WorkoutPlan) error {
	_, err := db.ExecContext(ctx,
		`INSERT OR REPLACE INTO workout_plans (`+planColumns+`)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.ID.String(), p.UserID, p.Name, p.Description, string(p.Type), p.DurationMinutes,
		jsonValue{p.Exercises}, jsonValue{p.Equipment}, jsonValue{p.Warmup}, jsonValue{p.Cooldown},
		p.WorkoutDay, p.IsActive, unixNano(p.CreatedAt))
	return err
}

// InsertPlan stores an inactive plan.
func (s *DB) InsertPlan(ctx context.Context, p models.WorkoutPlan) error {
	p.IsActive = false
	if err := insertPlan(ctx, s.db, p); err != nil {
		return fmt.Errorf("inserting plan: %w", err)
	}
	return nil
}

// ActivatePlan deactivates every plan of p.UserID and inserts p as the
// active one, in a single transaction.
func (s *DB) ActivatePlan(ctx context.Context, p models.WorkoutPlan) error {
	p.IsActive = true
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("activating plan: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE workout_plans SET is_active = 0 WHERE user_id = ? AND is_active = 1`,
		p.UserID); err != nil {
		return fmt.Errorf("deactivating plans: %w", err)
	}
	if err := insertPlan(ctx, tx, p); err != nil {
		return fmt.Errorf("inserting active plan: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("activating plan: %w", err)
	}
	return nil
}

// DeactivatePlans clears the active flag on every plan of userID.
func (s *DB) DeactivatePlans(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE workout_plans SET is_active = 0 WHERE user_id = ? AND is_active = 1`, userID)
	if err != nil {
		return fmt.Errorf("deactivating plans: %w", err)
	}
	return nil
}

// GetActivePlan returns the user's active plan or models.ErrNotFound.
func (s *DB) GetActivePlan(ctx context.Context, userID string) (*models.WorkoutPlan, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+planColumns+` FROM workout_plans WHERE user_id = ? AND is_active = 1`, userID)
	p, err := scanPlan(row)
	if err != nil {
		return nil, fmt.Errorf("getting active plan: %w", notFound(err))
	}
	return p, nil
}

// GetLatestPlanForDay returns the most recent plan for a workout day or
// models.ErrNotFound.
func (s *DB) GetLatestPlanForDay(ctx context.Context, userID string, day int) (*models.WorkoutPlan, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+planColumns+` FROM workout_plans
		 WHERE user_id = ? AND workout_day = ?
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT 1`, userID, day)
	p, err := scanPlan(row)
	if err != nil {
		return nil, fmt.Errorf("getting plan for day %d: %w", day, notFound(err))
	}
	return p, nil
}

func scanPlan(row *sql.Row) (*models.WorkoutPlan, error) {
	var (
		p         models.WorkoutPlan
		typ       string
		createdAt int64
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &typ, &p.DurationMinutes,
		jsonColumn{&p.Exercises}, jsonColumn{&p.Equipment}, jsonColumn{&p.Warmup},
		jsonColumn{&p.Cooldown}, &p.WorkoutDay, &p.IsActive, &createdAt); err != nil {
		return nil, err
	}
	p.Type = models.WorkoutType(typ)
	p.CreatedAt = fromUnixNano(createdAt)
	return &p, nil
}
