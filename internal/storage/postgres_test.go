package storage

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claude/fitscan/internal/models"
)

// openPostgres connects to the database named by FITSCAN_TEST_DSN and
// applies the migrations. Tests are skipped when the variable is unset.
func openPostgres(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("FITSCAN_TEST_DSN")
	if dsn == "" {
		t.Skip("FITSCAN_TEST_DSN not set")
	}
	require.NoError(t, RunMigrations(dsn))
	db, err := New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}

func testUser(t *testing.T, db *DB) string {
	t.Helper()
	user := "dev_" + uuid.NewString()
	t.Cleanup(func() {
		ctx := context.Background()
		for _, table := range []string{"workout_plans", "workout_progress", "equipment", "user_profiles", "scan_logs"} {
			_, _ = db.Pool.Exec(ctx, "DELETE FROM "+table+" WHERE user_id = $1", user)
		}
		_, _ = db.Pool.Exec(ctx, "DELETE FROM users WHERE id = $1", user)
	})
	return user
}

func testPlan(user string, day int, at time.Time) models.WorkoutPlan {
	return models.WorkoutPlan{
		ID: uuid.New(), UserID: user, Name: "Workout B - Arms & Chest", Type: models.WorkoutUpper,
		DurationMinutes: 15, WorkoutDay: day, CreatedAt: at,
		Exercises: []models.ExerciseTemplate{{Name: "Push-Up", Sets: "3", Reps: "10", Rest: "60"}},
	}
}

func countActive(t *testing.T, db *DB, user string) int {
	t.Helper()
	var n int
	require.NoError(t, db.Pool.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM workout_plans WHERE user_id = $1 AND is_active`, user).Scan(&n))
	return n
}

func TestPostgresActivatePlan(t *testing.T) {
	db := openPostgres(t)
	ctx := context.Background()
	user := testUser(t, db)
	base := time.Now().UTC().Truncate(time.Millisecond)

	_, err := db.GetActivePlan(ctx, user)
	require.ErrorIs(t, err, models.ErrNotFound)

	a := testPlan(user, 1, base)
	b := testPlan(user, 2, base.Add(time.Second))
	require.NoError(t, db.ActivatePlan(ctx, a))
	require.NoError(t, db.ActivatePlan(ctx, b))

	active, err := db.GetActivePlan(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, b.ID, active.ID)
	assert.Equal(t, b.Exercises, active.Exercises)
	assert.Equal(t, 1, countActive(t, db, user))

	latest, err := db.GetLatestPlanForDay(ctx, user, 1)
	require.NoError(t, err)
	assert.Equal(t, a.ID, latest.ID)
	assert.False(t, latest.IsActive)

	require.NoError(t, db.DeactivatePlans(ctx, user))
	assert.Zero(t, countActive(t, db, user))
}

// TestPostgresConcurrentActivation verifies racing activations never leave
// more than one active plan.
func TestPostgresConcurrentActivation(t *testing.T) {
	db := openPostgres(t)
	ctx := context.Background()
	user := testUser(t, db)
	base := time.Now().UTC()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := db.ActivatePlan(ctx, testPlan(user, 1+i%2, base.Add(time.Duration(i)*time.Millisecond))); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.GreaterOrEqual(t, succeeded, 1)
	assert.Equal(t, 1, countActive(t, db, user))
}

func TestPostgresIncrementProgress(t *testing.T) {
	db := openPostgres(t)
	ctx := context.Background()
	user := testUser(t, db)
	at := time.Now().UTC().Truncate(time.Millisecond)

	_, err := db.GetProgress(ctx, user)
	require.ErrorIs(t, err, models.ErrNotFound)

	p, err := db.IncrementProgress(ctx, user, at)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Days)
	assert.Equal(t, 1, p.Achievements)
	require.NotNil(t, p.LastWorkout)
	assert.WithinDuration(t, at, *p.LastWorkout, time.Millisecond)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := db.IncrementProgress(ctx, user, time.Now().UTC())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	p, err = db.GetProgress(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 11, p.Days)
	assert.Equal(t, 11, p.Achievements)
}

func TestPostgresProfileAndEquipment(t *testing.T) {
	db := openPostgres(t)
	ctx := context.Background()
	user := testUser(t, db)
	now := time.Now().UTC().Truncate(time.Millisecond)

	require.NoError(t, db.TouchUser(ctx, user, "Ana"))
	prof := models.UserProfile{
		UserID: user, Name: "Ana", Age: 30, WeightKg: 70, HeightCm: 175,
		Gender: models.GenderFemale, Goal: models.GoalTone, WeeklyFrequency: 3,
		FitnessLevel: models.LevelIntermediate, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, db.SaveProfile(ctx, prof))
	prof.Age = 31
	prof.UpdatedAt = now.Add(time.Minute)
	require.NoError(t, db.SaveProfile(ctx, prof))

	got, err := db.GetProfile(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 31, got.Age)
	assert.WithinDuration(t, now, got.CreatedAt, time.Millisecond, "created_at kept from first insert")

	e := models.EquipmentRecord{
		ID: uuid.New(), UserID: user, Name: "Leg Press", MuscleGroups: []string{"quadriceps"},
		Detected: true, CreatedAt: now,
		Exercises: []models.ExerciseTemplate{{Name: "Leg Press", Sets: "4", Reps: "12", Rest: "90"}},
	}
	require.NoError(t, db.InsertEquipment(ctx, e))
	require.NoError(t, db.InsertEquipment(ctx, e), "re-insert is a no-op")

	list, err := db.ListEquipment(ctx, user)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, e.Exercises, list[0].Exercises)

	deleted, err := db.DeleteEquipment(ctx, user, e.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = db.DeleteEquipment(ctx, user, e.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}
