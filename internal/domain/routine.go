package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Routine is a reusable workout template owned by a user. Exercises are
// embedded because they are created, updated and deleted together with
// the routine and are never shared across routines.
//
// Routines are soft-deactivated (IsActive=false) rather than deleted so
// past workouts keep a valid RoutineID reference.
type Routine struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"userId" json:"userId"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	IsActive    bool               `bson:"isActive" json:"isActive"`
	Exercises   []RoutineExercise  `bson:"exercises" json:"exercises"` // Ordered by OrderIndex
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// RoutineExercise is one exercise slot within a routine, carrying its
// planned set/rep scheme and rest duration.
type RoutineExercise struct {
	ID                primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ExerciseLibraryID *primitive.ObjectID `bson:"exerciseLibraryId,omitempty" json:"exerciseLibraryId,omitempty"`
	ExerciseName      string              `bson:"exerciseName" json:"exerciseName"`
	SetsData          []PlannedSet        `bson:"setsData" json:"setsData"` // Ordered by SetIndex
	RestSeconds       int                 `bson:"restSeconds" json:"restSeconds"`
	OrderIndex        int                 `bson:"orderIndex" json:"orderIndex"`
	Notes             string              `bson:"notes,omitempty" json:"notes,omitempty"`
}

// PlannedSet is one target set within a routine exercise. SetIndex is
// 1-based to match the indices of the WorkoutSet rows created from it.
type PlannedSet struct {
	SetIndex       int      `bson:"setIndex" json:"setIndex"`
	TargetReps     *int     `bson:"targetReps,omitempty" json:"targetReps,omitempty"`
	TargetWeightKg *float64 `bson:"targetWeightKg,omitempty" json:"targetWeightKg,omitempty"`
}
