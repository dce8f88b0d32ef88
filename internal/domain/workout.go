package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutStatus type for the workout lifecycle.
type WorkoutStatus string

const (
	WorkoutInProgress WorkoutStatus = "in_progress"
	WorkoutCompleted  WorkoutStatus = "completed"
	WorkoutCancelled  WorkoutStatus = "cancelled"
)

// SetType classifies a logged set.
type SetType string

const (
	SetTypeWarmup  SetType = "warmup"
	SetTypeNormal  SetType = "normal"
	SetTypeDropset SetType = "dropset"
	SetTypeFailure SetType = "failure"
)

// Workout is one concrete training session, optionally instantiated from
// a Routine. At most one in_progress workout should exist per user at a
// time; the check lives in the service layer, not in the database.
type Workout struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID  `bson:"userId" json:"userId"`
	RoutineID       *primitive.ObjectID `bson:"routineId,omitempty" json:"routineId,omitempty"`
	Name            string              `bson:"name" json:"name"`
	Status          WorkoutStatus       `bson:"status" json:"status"`
	StartedAt       time.Time           `bson:"startedAt" json:"startedAt"`
	CompletedAt     *time.Time          `bson:"completedAt,omitempty" json:"completedAt,omitempty"` // Set on finish AND cancel
	DurationSeconds *int                `bson:"durationSeconds,omitempty" json:"durationSeconds,omitempty"`
	Notes           string              `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt       time.Time           `bson:"createdAt" json:"createdAt"`
}

// IsTerminal reports whether the workout can no longer be mutated.
func (w *Workout) IsTerminal() bool {
	return w.Status == WorkoutCompleted || w.Status == WorkoutCancelled
}

// WorkoutSet is one logged effort within a workout. Rows are created in
// bulk when a workout starts from a routine (one per planned set) and
// individually via "add set". SetIndex is 1-based per exercise; gaps
// left by deleted sets are tolerated and never re-filled.
type WorkoutSet struct {
	ID                primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	WorkoutID         primitive.ObjectID  `bson:"workoutId" json:"workoutId"`
	ExerciseLibraryID *primitive.ObjectID `bson:"exerciseLibraryId,omitempty" json:"exerciseLibraryId,omitempty"`
	ExerciseName      string              `bson:"exerciseName" json:"exerciseName"`
	SetIndex          int                 `bson:"setIndex" json:"setIndex"`
	WeightKg          *float64            `bson:"weightKg,omitempty" json:"weightKg,omitempty"`
	Reps              *int                `bson:"reps,omitempty" json:"reps,omitempty"`
	Completed         bool                `bson:"completed" json:"completed"`
	RPE               *float64            `bson:"rpe,omitempty" json:"rpe,omitempty"` // 1-10 perceived exertion
	SetType           SetType             `bson:"setType" json:"setType"`
	CompletedAt       *time.Time          `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
}

// NormalizeSetType maps free-form set type strings (e.g. from CSV
// imports) to a known SetType, defaulting to normal.
func NormalizeSetType(raw string) SetType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "warmup", "warm up":
		return SetTypeWarmup
	case "dropset", "drop set":
		return SetTypeDropset
	case "failure", "to failure":
		return SetTypeFailure
	default:
		return SetTypeNormal
	}
}
