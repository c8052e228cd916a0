package storage

import (
	"context"
	"fmt"

	"github.com/claude/fitscan/internal/models"
)

// InsertScanLog records one recognition attempt and returns its ID.
func (db *DB) InsertScanLog(ctx context.Context, l models.ScanLog) (int64, error) {
	var id int64
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO scan_logs (user_id, created_at, status, equipment_name, duration_ms, error_message)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 RETURNING id`,
		l.UserID, l.CreatedAt, l.Status, l.EquipmentName, l.DurationMs, l.ErrorMessage,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting scan log: %w", err)
	}
	return id, nil
}

// ListScanLogs returns the most recent scan logs for a user.
func (db *DB) ListScanLogs(ctx context.Context, userID string, limit int) ([]models.ScanLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, created_at, status, equipment_name, duration_ms, error_message
		 FROM scan_logs
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying scan logs: %w", err)
	}
	defer rows.Close()

	result := []models.ScanLog{}
	for rows.Next() {
		var l models.ScanLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.CreatedAt, &l.Status,
			&l.EquipmentName, &l.DurationMs, &l.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scanning scan log: %w", err)
		}
		result = append(result, l)
	}
	return result, rows.Err()
}
