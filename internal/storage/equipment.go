package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/claude/fitscan/internal/models"
)

// InsertEquipment stores a recognized equipment record. Re-inserting the
// same id is a no-op.
func (db *DB) InsertEquipment(ctx context.Context, e models.EquipmentRecord) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO equipment (id, user_id, name, category, muscle_groups, description, detected,
		 image_url, exercises, tips, common_mistakes, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		 ON CONFLICT DO NOTHING`,
		e.ID, e.UserID, e.Name, e.Category, orEmpty(e.MuscleGroups), e.Description, e.Detected,
		e.ImageURL, orEmpty(e.Exercises), orEmpty(e.Tips), orEmpty(e.CommonMistakes), e.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting equipment: %w", err)
	}
	return nil
}

// ListEquipment returns a user's inventory, oldest first.
func (db *DB) ListEquipment(ctx context.Context, userID string) ([]models.EquipmentRecord, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, name, category, muscle_groups, description, detected,
		 image_url, exercises, tips, common_mistakes, created_at
		 FROM equipment
		 WHERE user_id = $1
		 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying equipment: %w", err)
	}
	defer rows.Close()

	result := []models.EquipmentRecord{}
	for rows.Next() {
		var e models.EquipmentRecord
		if err := rows.Scan(&e.ID, &e.UserID, &e.Name, &e.Category, &e.MuscleGroups, &e.Description,
			&e.Detected, &e.ImageURL, &e.Exercises, &e.Tips, &e.CommonMistakes, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning equipment: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// DeleteEquipment removes one record owned by userID. Returns false when no
// such record exists.
func (db *DB) DeleteEquipment(ctx context.Context, userID string, id uuid.UUID) (bool, error) {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM equipment WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("deleting equipment %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}
