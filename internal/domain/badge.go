package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BadgeCriteriaType enumerates the supported badge criteria.
type BadgeCriteriaType string

const (
	CriteriaWorkoutCount   BadgeCriteriaType = "workout_count"
	CriteriaStreak         BadgeCriteriaType = "streak"
	CriteriaMorningWorkout BadgeCriteriaType = "morning_workout"
	CriteriaWorkoutType    BadgeCriteriaType = "workout_type"
)

// BadgeCriteria is the typed condition a user must satisfy to earn a
// badge. WorkoutType is only meaningful for CriteriaWorkoutType.
type BadgeCriteria struct {
	Type        BadgeCriteriaType `bson:"type" json:"type"`
	Target      int               `bson:"target" json:"target"`
	WorkoutType string            `bson:"workoutType,omitempty" json:"workout_type,omitempty"` // "strength" or "cardio"
}

// Badge is an achievement definition.
type Badge struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Code        string             `bson:"code" json:"code"` // Unique, stable identifier e.g. "first_workout"
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Icon        string             `bson:"icon,omitempty" json:"icon,omitempty"`
	Criteria    BadgeCriteria      `bson:"criteria" json:"criteria"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

// UserBadge records that a user earned a badge.
type UserBadge struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	BadgeID   primitive.ObjectID `bson:"badgeId" json:"badgeId"`
	AwardedAt time.Time          `bson:"awardedAt" json:"awardedAt"`
}

// Streak tracks consecutive training days per user. It is maintained
// incrementally against the LastActiveDate watermark rather than being
// recomputed from workout history on every update.
type Streak struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID         primitive.ObjectID `bson:"userId" json:"userId"`
	CurrentDays    int                `bson:"currentDays" json:"currentDays"`
	LongestDays    int                `bson:"longestDays" json:"longestDays"`
	LastActiveDate *time.Time         `bson:"lastActiveDate,omitempty" json:"lastActiveDate,omitempty"` // Midnight of the last counted day
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}
