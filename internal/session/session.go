// Package session drives a single workout attempt through exercise, rest
// and completion, with a one-second rest countdown.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/claude/fitscan/internal/models"
)

// State is the machine's current phase.
type State string

const (
	StateExercise  State = "exercise"
	StateResting   State = "resting"
	StateCompleted State = "completed"
)

// Defaults used when an exercise's sets or rest field is not a positive number.
const (
	DefaultSets        = 3
	DefaultRestSeconds = 60
)

var (
	// ErrInvalidTransition is returned for an action the current state does not allow.
	ErrInvalidTransition = errors.New("session: invalid transition")
	// ErrRestRunning is returned by Proceed while the countdown is still above zero.
	ErrRestRunning = errors.New("session: rest countdown still running")
	// ErrClosed is returned for any action after Close.
	ErrClosed = errors.New("session: closed")
)

// Ticker delivers countdown ticks.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTimeTicker is the default ticker factory.
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{time.NewTicker(d)}
}

// Option configures a Machine.
type Option func(*Machine)

// WithTicker replaces the ticker factory, mainly for tests.
func WithTicker(f func(time.Duration) Ticker) Option {
	return func(m *Machine) { m.newTicker = f }
}

// WithTickInterval changes the countdown period. One tick always removes
// one second from the countdown.
func WithTickInterval(d time.Duration) Option {
	return func(m *Machine) { m.interval = d }
}

// Snapshot is a consistent copy of the machine state.
type Snapshot struct {
	State          State                    `json:"state"`
	ExerciseIndex  int                      `json:"exerciseIndex"`
	TotalExercises int                      `json:"totalExercises"`
	CurrentSet     int                      `json:"currentSet"`
	TotalSets      int                      `json:"totalSets"`
	RestSeconds    int                      `json:"restSeconds"`
	RestRemaining  int                      `json:"restRemaining"`
	RestRunning    bool                     `json:"restRunning"`
	Exercise       *models.ExerciseTemplate `json:"exercise,omitempty"`
	// JustCompleted is true only on the snapshot returned by the action
	// that moved the machine into the completed state.
	JustCompleted bool `json:"justCompleted,omitempty"`
}

// Machine is safe for concurrent use. At most one countdown runs at a time.
type Machine struct {
	mu sync.Mutex

	plan          models.WorkoutPlan
	state         State
	exerciseIdx   int
	currentSet    int
	restRemaining int

	newTicker  func(time.Duration) Ticker
	interval   time.Duration
	cancelRest chan struct{}
	restDone   chan struct{}
	closed     bool
}

// New starts a machine at the first exercise, set 1. The plan is copied.
func New(plan models.WorkoutPlan, opts ...Option) *Machine {
	m := &Machine{
		plan:       plan.Clone(),
		state:      StateExercise,
		currentSet: 1,
		newTicker:  NewTimeTicker,
		interval:   time.Second,
	}
	for _, o := range opts {
		o(m)
	}
	if len(m.plan.Exercises) == 0 {
		m.state = StateCompleted
	}
	return m
}

// Plan returns a copy of the plan being executed.
func (m *Machine) Plan() models.WorkoutPlan {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.plan.Clone()
}

// TotalSets parses an exercise's set count, defaulting to DefaultSets.
func TotalSets(e models.ExerciseTemplate) int {
	return models.PositiveIntOr(e.Sets, DefaultSets)
}

// RestSeconds parses an exercise's rest time, defaulting to DefaultRestSeconds.
func RestSeconds(e models.ExerciseTemplate) int {
	return models.PositiveIntOr(e.Rest, DefaultRestSeconds)
}

// CompleteSet records the current set as done. Before the last set it arms
// the rest countdown; after the last set it advances to the next exercise
// or completes the session.
func (m *Machine) CompleteSet() (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return m.snapshotLocked(), ErrClosed
	}
	if m.state != StateExercise {
		return m.snapshotLocked(), ErrInvalidTransition
	}

	ex := m.plan.Exercises[m.exerciseIdx]
	if m.currentSet < TotalSets(ex) {
		m.currentSet++
		m.armRestLocked(RestSeconds(ex))
		m.state = StateResting
		return m.snapshotLocked(), nil
	}

	if m.exerciseIdx+1 < len(m.plan.Exercises) {
		m.exerciseIdx++
		m.currentSet = 1
		return m.snapshotLocked(), nil
	}

	m.state = StateCompleted
	s := m.snapshotLocked()
	s.JustCompleted = true
	return s, nil
}

// SkipRest ends the rest period at any remaining time.
func (m *Machine) SkipRest() (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return m.snapshotLocked(), ErrClosed
	}
	if m.state != StateResting {
		return m.snapshotLocked(), ErrInvalidTransition
	}
	m.stopRestLocked()
	m.restRemaining = 0
	m.state = StateExercise
	return m.snapshotLocked(), nil
}

// Proceed returns to the exercise once the countdown has reached zero. The
// machine never leaves the resting state on its own.
func (m *Machine) Proceed() (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return m.snapshotLocked(), ErrClosed
	}
	if m.state != StateResting {
		return m.snapshotLocked(), ErrInvalidTransition
	}
	if m.restRemaining > 0 {
		return m.snapshotLocked(), ErrRestRunning
	}
	m.stopRestLocked()
	m.state = StateExercise
	return m.snapshotLocked(), nil
}

// Snapshot returns the current state.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Close stops any running countdown and waits for it to exit. The machine
// rejects every action afterwards.
func (m *Machine) Close() {
	m.mu.Lock()
	m.closed = true
	done := m.restDone
	m.stopRestLocked()
	m.mu.Unlock()

	if done != nil {
		<-done
	}
}

func (m *Machine) snapshotLocked() Snapshot {
	s := Snapshot{
		State:          m.state,
		ExerciseIndex:  m.exerciseIdx,
		TotalExercises: len(m.plan.Exercises),
		CurrentSet:     m.currentSet,
		RestRemaining:  m.restRemaining,
		RestRunning:    m.cancelRest != nil,
	}
	if m.exerciseIdx < len(m.plan.Exercises) {
		ex := m.plan.Exercises[m.exerciseIdx]
		s.Exercise = &ex
		s.TotalSets = TotalSets(ex)
		s.RestSeconds = RestSeconds(ex)
	}
	return s
}

// armRestLocked cancels any previous countdown before starting a new one.
func (m *Machine) armRestLocked(seconds int) {
	m.stopRestLocked()
	m.restRemaining = seconds
	if m.closed {
		return
	}

	cancel := make(chan struct{})
	done := make(chan struct{})
	m.cancelRest = cancel
	m.restDone = done
	go m.countdown(m.newTicker(m.interval), cancel, done)
}

// stopRestLocked signals the running countdown, if any. It does not wait:
// the countdown goroutine needs the lock to exit.
func (m *Machine) stopRestLocked() {
	if m.cancelRest != nil {
		close(m.cancelRest)
		m.cancelRest = nil
	}
}

func (m *Machine) countdown(t Ticker, cancel <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer t.Stop()

	for {
		select {
		case <-cancel:
			return
		case <-t.C():
			m.mu.Lock()
			select {
			case <-cancel:
				// Superseded while waiting for the lock.
				m.mu.Unlock()
				return
			default:
			}
			if m.restRemaining > 0 {
				m.restRemaining--
			}
			if m.restRemaining == 0 {
				m.stopRestLocked()
				m.mu.Unlock()
				return
			}
			m.mu.Unlock()
		}
	}
}
