package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutPlan stores an AI-generated plan document for a user. The plan
// payload is kept as an opaque document since its shape is owned by the
// external orchestrator; the server only versions and activates it.
type WorkoutPlan struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Plan      map[string]any     `bson:"plan" json:"plan"`
	Version   int                `bson:"version" json:"version"`
	IsActive  bool               `bson:"isActive" json:"isActive"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ExerciseLibraryItem is one entry of the shared exercise catalogue used
// to ground AI routine generation in exercises the user can actually do.
type ExerciseLibraryItem struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name           string             `bson:"name" json:"name"`
	Category       string             `bson:"category,omitempty" json:"category,omitempty"`   // e.g. "strength", "cardio", "stretching"
	Equipment      string             `bson:"equipment,omitempty" json:"equipment,omitempty"` // e.g. "barbell", "dumbbell", "body only"
	Level          string             `bson:"level,omitempty" json:"level,omitempty"`
	PrimaryMuscles []string           `bson:"primaryMuscles,omitempty" json:"primaryMuscles,omitempty"`
}
