package mcp

import (
	"context"

	"github.com/claude/fitscan/internal/app"
	"github.com/claude/fitscan/internal/models"
)

// DataSource abstracts the data layer for MCP tools. Local (in-process
// service) and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	Dashboard(ctx context.Context, userID string) (*app.Dashboard, error)
	ListEquipment(ctx context.Context, userID string) ([]models.EquipmentRecord, error)
	TodayWorkout(ctx context.Context, userID string, day int) (*models.WorkoutPlan, error)
	Progress(ctx context.Context, userID string) (*models.WorkoutProgress, error)
}

// Local serves MCP requests from the in-process service.
type Local struct {
	svc *app.Service
}

// Compile-time check: Local satisfies DataSource.
var _ DataSource = (*Local)(nil)

// NewLocal wraps svc as a DataSource.
func NewLocal(svc *app.Service) *Local {
	return &Local{svc: svc}
}

func (l *Local) Dashboard(ctx context.Context, userID string) (*app.Dashboard, error) {
	return l.svc.Dashboard(ctx, userID)
}

func (l *Local) ListEquipment(ctx context.Context, userID string) ([]models.EquipmentRecord, error) {
	return l.svc.ListEquipment(ctx, userID), nil
}

func (l *Local) TodayWorkout(ctx context.Context, userID string, day int) (*models.WorkoutPlan, error) {
	return l.svc.TodayWorkout(ctx, userID, day, false)
}

func (l *Local) Progress(ctx context.Context, userID string) (*models.WorkoutProgress, error) {
	p := l.svc.Progress(ctx, userID)
	return &p, nil
}
