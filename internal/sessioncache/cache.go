// Package sessioncache keeps transient per-user workout state: the plan of
// the workout in progress and the currently selected workout day.
package sessioncache

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/claude/fitscan/internal/models"
	"github.com/coocood/freecache"
)

const megabyte = 1024 * 1024

// Cache is safe for concurrent use. Entries expire after the configured TTL.
type Cache struct {
	cache *freecache.Cache
	ttl   int
	log   *slog.Logger
}

// New creates a cache of sizeMB megabytes. freecache enforces a 512KB minimum.
func New(sizeMB int, ttl time.Duration, log *slog.Logger) *Cache {
	return newCache(freecache.NewCache(sizeMB*megabyte), ttl, log)
}

func newCache(c *freecache.Cache, ttl time.Duration, log *slog.Logger) *Cache {
	seconds := int(ttl / time.Second)
	if seconds < 0 {
		seconds = 0
	}
	return &Cache{cache: c, ttl: seconds, log: log}
}

func activeWorkoutKey(userID string) []byte {
	return []byte(fmt.Sprintf("active_workout::%s", userID))
}

func workoutDayKey(userID string) []byte {
	return []byte(fmt.Sprintf("workout_day::%s", userID))
}

// SetActiveWorkout stores the plan being executed by userID.
func (c *Cache) SetActiveWorkout(userID string, plan models.WorkoutPlan) {
	b, err := json.Marshal(plan)
	if err != nil {
		c.log.Error("marshal active workout", "user", userID, "error", err)
		return
	}
	if err := c.cache.Set(activeWorkoutKey(userID), b, c.ttl); err != nil {
		c.log.Warn("cache active workout", "user", userID, "error", err)
	}
}

// ActiveWorkout returns the cached plan, if any.
func (c *Cache) ActiveWorkout(userID string) (*models.WorkoutPlan, bool) {
	b, err := c.cache.Get(activeWorkoutKey(userID))
	if err != nil {
		if !errors.Is(err, freecache.ErrNotFound) {
			c.log.Warn("read cached active workout", "user", userID, "error", err)
		}
		return nil, false
	}
	var plan models.WorkoutPlan
	if err := json.Unmarshal(b, &plan); err != nil {
		c.log.Error("unmarshal cached active workout", "user", userID, "error", err)
		c.cache.Del(activeWorkoutKey(userID))
		return nil, false
	}
	return &plan, true
}

// ClearActiveWorkout removes the cached plan for userID.
func (c *Cache) ClearActiveWorkout(userID string) {
	c.cache.Del(activeWorkoutKey(userID))
}

// SetWorkoutDay stores the selected workout day (1 or 2).
func (c *Cache) SetWorkoutDay(userID string, day int) {
	if err := c.cache.Set(workoutDayKey(userID), []byte(strconv.Itoa(day)), c.ttl); err != nil {
		c.log.Warn("cache workout day", "user", userID, "error", err)
	}
}

// WorkoutDay returns the cached workout day, if any.
func (c *Cache) WorkoutDay(userID string) (int, bool) {
	b, err := c.cache.Get(workoutDayKey(userID))
	if err != nil {
		return 0, false
	}
	day, err := strconv.Atoi(string(b))
	if err != nil || (day != 1 && day != 2) {
		c.cache.Del(workoutDayKey(userID))
		return 0, false
	}
	return day, true
}

// Clear removes every cached entry for userID.
func (c *Cache) Clear(userID string) {
	c.cache.Del(activeWorkoutKey(userID))
	c.cache.Del(workoutDayKey(userID))
}
