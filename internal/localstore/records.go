package localstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/claude/fitscan/internal/models"
)

// TouchUser records userID and updates last_seen.
func (s *DB) TouchUser(ctx context.Context, userID, displayName string) error {
	now := time.Now().UnixNano()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, display_name, created_at, last_seen)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE
			SET last_seen = excluded.last_seen,
			    display_name = COALESCE(NULLIF(excluded.display_name, ''), users.display_name)
	`, userID, displayName, now, now)
	if err != nil {
		return fmt.Errorf("touching user: %w", err)
	}
	return nil
}

// SaveProfile inserts or replaces the profile for p.UserID.
func (s *DB) SaveProfile(ctx context.Context, p models.UserProfile) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_profiles (user_id, name, age, weight_kg, height_cm, gender, goal,
		 weekly_frequency, fitness_level, has_bariatric_surgery, uses_glp1_medication, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)
		 ON CONFLICT (user_id) DO UPDATE SET
		 name = excluded.name, age = excluded.age, weight_kg = excluded.weight_kg,
		 height_cm = excluded.height_cm, gender = excluded.gender, goal = excluded.goal,
		 weekly_frequency = excluded.weekly_frequency, fitness_level = excluded.fitness_level,
		 has_bariatric_surgery = excluded.has_bariatric_surgery,
		 uses_glp1_medication = excluded.uses_glp1_medication,
		 updated_at = excluded.updated_at`,
		p.UserID, p.Name, p.Age, p.WeightKg, p.HeightCm, string(p.Gender), string(p.Goal),
		p.WeeklyFrequency, string(p.FitnessLevel), p.HasBariatricSurgery, p.UsesGLP1Medication,
		unixNano(p.CreatedAt), unixNano(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	return nil
}

// GetProfile returns the profile for userID or models.ErrNotFound.
func (s *DB) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	var (
		p                    models.UserProfile
		gender, goal, level  string
		createdAt, updatedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, name, age, weight_kg, height_cm, gender, goal, weekly_frequency,
		 fitness_level, has_bariatric_surgery, uses_glp1_medication, created_at, updated_at
		 FROM user_profiles WHERE user_id = ?`, userID,
	).Scan(&p.UserID, &p.Name, &p.Age, &p.WeightKg, &p.HeightCm, &gender, &goal,
		&p.WeeklyFrequency, &level, &p.HasBariatricSurgery, &p.UsesGLP1Medication,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("getting profile: %w", notFound(err))
	}
	p.Gender = models.Gender(gender)
	p.Goal = models.Goal(goal)
	p.FitnessLevel = models.FitnessLevel(level)
	p.CreatedAt = fromUnixNano(createdAt)
	p.UpdatedAt = fromUnixNano(updatedAt)
	return &p, nil
}

// InsertEquipment stores an equipment record. Re-inserting the same id is a no-op.
func (s *DB) InsertEquipment(ctx context.Context, e models.EquipmentRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO equipment (id, user_id, name, category, muscle_groups, description,
		 detected, image_url, exercises, tips, common_mistakes, created_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		e.ID.String(), e.UserID, e.Name, e.Category, jsonValue{e.MuscleGroups}, e.Description,
		e.Detected, e.ImageURL, jsonValue{e.Exercises}, jsonValue{e.Tips},
		jsonValue{e.CommonMistakes}, unixNano(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting equipment: %w", err)
	}
	return nil
}

// ListEquipment returns a user's inventory, oldest first.
func (s *DB) ListEquipment(ctx context.Context, userID string) ([]models.EquipmentRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, category, muscle_groups, description, detected,
		 image_url, exercises, tips, common_mistakes, created_at
		 FROM equipment
		 WHERE user_id = ?
		 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying equipment: %w", err)
	}
	defer rows.Close()

	result := []models.EquipmentRecord{}
	for rows.Next() {
		var (
			e         models.EquipmentRecord
			createdAt int64
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.Name, &e.Category, jsonColumn{&e.MuscleGroups},
			&e.Description, &e.Detected, &e.ImageURL, jsonColumn{&e.Exercises}, jsonColumn{&e.Tips},
			jsonColumn{&e.CommonMistakes}, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning equipment: %w", err)
		}
		e.CreatedAt = fromUnixNano(createdAt)
		result = append(result, e)
	}
	return result, rows.Err()
}

// DeleteEquipment removes one record owned by userID.
func (s *DB) DeleteEquipment(ctx context.Context, userID string, id uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM equipment WHERE id = ? AND user_id = ?`, id.String(), userID)
	if err != nil {
		return false, fmt.Errorf("deleting equipment %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting equipment %s: %w", id, err)
	}
	return n > 0, nil
}

// GetProgress returns the user's counters or models.ErrNotFound.
func (s *DB) GetProgress(ctx context.Context, userID string) (*models.WorkoutProgress, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT user_id, days, achievements, last_workout, updated_at
		 FROM workout_progress WHERE user_id = ?`, userID)
	p, err := scanProgress(row)
	if err != nil {
		return nil, fmt.Errorf("getting progress: %w", notFound(err))
	}
	return p, nil
}

// IncrementProgress adds one completed day and one achievement.
func (s *DB) IncrementProgress(ctx context.Context, userID string, at time.Time) (*models.WorkoutProgress, error) {
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO workout_progress (user_id, days, achievements, last_workout, updated_at)
		 VALUES (?, 1, 1, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
		 days = workout_progress.days + 1,
		 achievements = workout_progress.achievements + 1,
		 last_workout = excluded.last_workout,
		 updated_at = excluded.updated_at
		 RETURNING user_id, days, achievements, last_workout, updated_at`,
		userID, unixNano(at), unixNano(at))
	p, err := scanProgress(row)
	if err != nil {
		return nil, fmt.Errorf("incrementing progress: %w", err)
	}
	return p, nil
}

// SaveProgress overwrites the user's counters with p.
func (s *DB) SaveProgress(ctx context.Context, p models.WorkoutProgress) error {
	var last sql.NullInt64
	if p.LastWorkout != nil {
		last = sql.NullInt64{Int64: unixNano(*p.LastWorkout), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO workout_progress (user_id, days, achievements, last_workout, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
		 days = excluded.days, achievements = excluded.achievements,
		 last_workout = excluded.last_workout, updated_at = excluded.updated_at`,
		p.UserID, p.Days, p.Achievements, last, unixNano(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("saving progress: %w", err)
	}
	return nil
}

func scanProgress(row *sql.Row) (*models.WorkoutProgress, error) {
	var (
		p         models.WorkoutProgress
		last      sql.NullInt64
		updatedAt int64
	)
	if err := row.Scan(&p.UserID, &p.Days, &p.Achievements, &last, &updatedAt); err != nil {
		return nil, err
	}
	if last.Valid {
		t := fromUnixNano(last.Int64)
		p.LastWorkout = &t
	}
	p.UpdatedAt = fromUnixNano(updatedAt)
	return &p, nil
}

// InsertScanLog records one recognition attempt and returns its ID.
func (s *DB) InsertScanLog(ctx context.Context, l models.ScanLog) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO scan_logs (user_id, created_at, status, equipment_name, duration_ms, error_message)
		 VALUES (?,?,?,?,?,?)`,
		l.UserID, unixNano(l.CreatedAt), l.Status, l.EquipmentName, l.DurationMs, l.ErrorMessage)
	if err != nil {
		return 0, fmt.Errorf("inserting scan log: %w", err)
	}
	return res.LastInsertId()
}

// ListScanLogs returns the most recent scan logs for a user.
func (s *DB) ListScanLogs(ctx context.Context, userID string, limit int) ([]models.ScanLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, created_at, status, equipment_name, duration_ms, error_message
		 FROM scan_logs
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying scan logs: %w", err)
	}
	defer rows.Close()

	result := []models.ScanLog{}
	for rows.Next() {
		var (
			l         models.ScanLog
			createdAt int64
		)
		if err := rows.Scan(&l.ID, &l.UserID, &createdAt, &l.Status,
			&l.EquipmentName, &l.DurationMs, &l.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scanning scan log: %w", err)
		}
		l.CreatedAt = fromUnixNano(createdAt)
		result = append(result, l)
	}
	return result, rows.Err()
}
