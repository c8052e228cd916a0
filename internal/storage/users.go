package storage

import (
	"context"
	"fmt"
)

// TouchUser records a user id on first sight and updates last_seen and
// display_name on every later call.
func (db *DB) TouchUser(ctx context.Context, userID, displayName string) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO users (id, display_name)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE
			SET last_seen = NOW(), display_name = COALESCE(NULLIF($2, ''), users.display_name)
	`, userID, displayName)
	if err != nil {
		return fmt.Errorf("touching user: %w", err)
	}
	return nil
}
