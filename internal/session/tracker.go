// Package session owns the live elapsed-time clocks of active workouts.
//
// Each active workout gets its own clock, created when the session is
// started or adopted and torn down when it ends. Elapsed time is always
// seeded from the server-recorded start timestamp, never from a cached
// counter, so a clock resumed after a reload reflects true wall-clock
// time.
package session

import (
	"sync"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Tracker holds at most one clock per user. It is safe for concurrent
// use by request handlers.
type Tracker struct {
	mu     sync.Mutex
	clocks map[primitive.ObjectID]*clock // keyed by user ID
}

type clock struct {
	workoutID primitive.ObjectID
	startedAt time.Time
	elapsed   atomic.Int64 // seconds
	stop      chan struct{}
	stopOnce  sync.Once
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		clocks: make(map[primitive.ObjectID]*clock),
	}
}

// Adopt starts (or restarts) the clock for a user's active workout.
// The counter is seeded from startedAt so that adopting a workout that
// began 125 seconds ago immediately reads >= 125, and then ticks once
// per second until Clear. Re-adopting the same workout resets the seed
// from the wall clock, which is the reconciliation behavior on reload.
func (t *Tracker) Adopt(userID, workoutID primitive.ObjectID, startedAt time.Time) {
	c := &clock{
		workoutID: workoutID,
		startedAt: startedAt,
		stop:      make(chan struct{}),
	}
	if seed := int64(time.Since(startedAt).Seconds()); seed > 0 {
		c.elapsed.Store(seed)
	}

	t.mu.Lock()
	if old, ok := t.clocks[userID]; ok {
		old.halt()
	}
	t.clocks[userID] = c
	t.mu.Unlock()

	go c.run()
}

// Elapsed reports the ticking clock of the user's active workout.
// ok is false when no session is being tracked for the user.
func (t *Tracker) Elapsed(userID primitive.ObjectID) (workoutID primitive.ObjectID, seconds int64, ok bool) {
	t.mu.Lock()
	c, ok := t.clocks[userID]
	t.mu.Unlock()
	if !ok {
		return primitive.NilObjectID, 0, false
	}
	return c.workoutID, c.elapsed.Load(), true
}

// Clear stops and removes the user's clock. Called on finish and
// cancel; clearing an untracked user is a no-op.
func (t *Tracker) Clear(userID primitive.ObjectID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if c, ok := t.clocks[userID]; ok {
		c.halt()
		delete(t.clocks, userID)
	}
}

// Stop halts every clock. Called on server shutdown.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for userID, c := range t.clocks {
		c.halt()
		delete(t.clocks, userID)
	}
}

func (c *clock) run() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			// Recompute from the start timestamp rather than blindly
			// incrementing, so a sleeping host does not drift the clock.
			if seed := int64(time.Since(c.startedAt).Seconds()); seed > c.elapsed.Load() {
				c.elapsed.Store(seed)
			} else {
				c.elapsed.Add(1)
			}
		case <-c.stop:
			return
		}
	}
}

func (c *clock) halt() {
	c.stopOnce.Do(func() { close(c.stop) })
}
