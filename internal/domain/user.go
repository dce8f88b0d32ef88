package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents an account holder. The embedded Profile carries the
// onboarding answers that feed AI routine generation.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`    // Should be unique
	PasswordHash string             `bson:"passwordHash" json:"-"` // Never expose this via JSON
	Profile      Profile            `bson:"profile" json:"profile"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Profile holds training preferences collected during onboarding.
// All fields are optional; an empty profile is a valid state for a
// user who skipped onboarding.
type Profile struct {
	Goal           string     `bson:"goal,omitempty" json:"goal,omitempty"`                     // e.g. "build_muscle", "lose_weight"
	Experience     string     `bson:"experience,omitempty" json:"experience,omitempty"`         // e.g. "beginner", "intermediate", "advanced"
	Equipment      []string   `bson:"equipment,omitempty" json:"equipment,omitempty"`           // e.g. "full_gym", "dumbbells", "bodyweight_only"
	DaysPerWeek    int        `bson:"daysPerWeek,omitempty" json:"daysPerWeek,omitempty"`       // Target training days per week
	SessionMinutes int        `bson:"sessionMinutes,omitempty" json:"sessionMinutes,omitempty"` // Target session length
	WeightKg       *float64   `bson:"weightKg,omitempty" json:"weightKg,omitempty"`
	HeightCm       *float64   `bson:"heightCm,omitempty" json:"heightCm,omitempty"`
	BirthDate      *time.Time `bson:"birthDate,omitempty" json:"birthDate,omitempty"`
	Gender         string     `bson:"gender,omitempty" json:"gender,omitempty"`
}
