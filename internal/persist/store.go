// Package persist reads and writes user records through a remote store with
// a device-local mirror. Callers never see a storage error: reads fall back
// to the local copy and then to defaults, writes are best effort.
package persist

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/claude/fitscan/internal/localstore"
	"github.com/claude/fitscan/internal/models"
	"github.com/claude/fitscan/internal/storage"
)

// Store is implemented by both the remote and the local store.
type Store interface {
	TouchUser(ctx context.Context, userID, displayName string) error

	SaveProfile(ctx context.Context, p models.UserProfile) error
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)

	InsertEquipment(ctx context.Context, e models.EquipmentRecord) error
	ListEquipment(ctx context.Context, userID string) ([]models.EquipmentRecord, error)
	DeleteEquipment(ctx context.Context, userID string, id uuid.UUID) (bool, error)

	InsertPlan(ctx context.Context, p models.WorkoutPlan) error
	ActivatePlan(ctx context.Context, p models.WorkoutPlan) error
	DeactivatePlans(ctx context.Context, userID string) error
	GetActivePlan(ctx context.Context, userID string) (*models.WorkoutPlan, error)
	GetLatestPlanForDay(ctx context.Context, userID string, day int) (*models.WorkoutPlan, error)

	GetProgress(ctx context.Context, userID string) (*models.WorkoutProgress, error)
	IncrementProgress(ctx context.Context, userID string, at time.Time) (*models.WorkoutProgress, error)
	SaveProgress(ctx context.Context, p models.WorkoutProgress) error

	InsertScanLog(ctx context.Context, l models.ScanLog) (int64, error)
	ListScanLogs(ctx context.Context, userID string, limit int) ([]models.ScanLog, error)
}

var (
	_ Store = (*storage.DB)(nil)
	_ Store = (*localstore.DB)(nil)
)
