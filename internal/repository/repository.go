package repository

import (
	"context"
	"time"

	"pulseapp/pulse/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer.
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors.
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// SetPatch is a partial update for a workout set. Only non-nil fields
// are written. Completed=true additionally stamps completedAt;
// Completed=false clears it.
type SetPatch struct {
	WeightKg  *float64
	Reps      *int
	Completed *bool
	RPE       *float64
	SetType   *domain.SetType
}

// IsEmpty reports whether the patch would write nothing.
func (p SetPatch) IsEmpty() bool {
	return p.WeightKg == nil && p.Reps == nil && p.Completed == nil && p.RPE == nil && p.SetType == nil
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, profile domain.Profile) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// RoutineRepository defines the interface for interacting with routines.
// Exercises are embedded in the routine document.
type RoutineRepository interface {
	Create(ctx context.Context, routine *domain.Routine) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Routine, error)
	GetActiveByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.Routine, error)
	Update(ctx context.Context, routine *domain.Routine) error
	SetActive(ctx context.Context, id, userID primitive.ObjectID, active bool) error
	DeleteByUser(ctx context.Context, userID primitive.ObjectID) error
}

// WorkoutRepository defines the interface for interacting with workouts.
type WorkoutRepository interface {
	Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error)
	// GetActiveByUser returns the user's single in_progress workout, or
	// ErrNotFound when there is none.
	GetActiveByUser(ctx context.Context, userID primitive.ObjectID) (*domain.Workout, error)
	// Finish transitions an in_progress workout to a terminal status,
	// stamping completedAt and (for completed) durationSeconds.
	Finish(ctx context.Context, id primitive.ObjectID, status domain.WorkoutStatus, completedAt time.Time, durationSeconds *int) error
	// ListCompletedByUser returns completed workouts newest first.
	// A zero limit means no limit.
	ListCompletedByUser(ctx context.Context, userID primitive.ObjectID, limit int) ([]domain.Workout, error)
	// ListCompletedInRange returns completed workouts whose completedAt
	// falls in [from, to), oldest first. A zero `to` means unbounded.
	ListCompletedInRange(ctx context.Context, userID primitive.ObjectID, from, to time.Time) ([]domain.Workout, error)
	// LastCompleted returns the most recently completed workout.
	LastCompleted(ctx context.Context, userID primitive.ObjectID) (*domain.Workout, error)
	ListIDsByUser(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error)
	DeleteByUser(ctx context.Context, userID primitive.ObjectID) error
}

// WorkoutSetRepository defines the interface for interacting with
// individual logged sets.
type WorkoutSetRepository interface {
	Create(ctx context.Context, set *domain.WorkoutSet) (primitive.ObjectID, error)
	CreateMany(ctx context.Context, sets []domain.WorkoutSet) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutSet, error)
	// GetByWorkoutID returns all sets of a workout ordered by exercise
	// name and set index.
	GetByWorkoutID(ctx context.Context, workoutID primitive.ObjectID) ([]domain.WorkoutSet, error)
	// Update applies a partial update and returns the updated set.
	Update(ctx context.Context, id primitive.ObjectID, patch SetPatch) (*domain.WorkoutSet, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	// ListCompletedByWorkoutIDs returns completed sets across many
	// workouts, used by the analytics aggregations.
	ListCompletedByWorkoutIDs(ctx context.Context, workoutIDs []primitive.ObjectID) ([]domain.WorkoutSet, error)
	ListByWorkoutIDs(ctx context.Context, workoutIDs []primitive.ObjectID) ([]domain.WorkoutSet, error)
	DeleteByWorkoutIDs(ctx context.Context, workoutIDs []primitive.ObjectID) error
}

// BadgeRepository defines the interface for badge definitions and
// per-user earned records.
type BadgeRepository interface {
	ListAll(ctx context.Context) ([]domain.Badge, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Badge, error)
	GetByCode(ctx context.Context, code string) (*domain.Badge, error)
	ListEarnedByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.UserBadge, error)
	GetUserBadge(ctx context.Context, userID, badgeID primitive.ObjectID) (*domain.UserBadge, error)
	Award(ctx context.Context, userID, badgeID primitive.ObjectID) (*domain.UserBadge, error)
	DeleteEarnedByUser(ctx context.Context, userID primitive.ObjectID) error
}

// StreakRepository defines the interface for the per-user streak record.
type StreakRepository interface {
	GetByUser(ctx context.Context, userID primitive.ObjectID) (*domain.Streak, error)
	Upsert(ctx context.Context, streak *domain.Streak) error
	DeleteByUser(ctx context.Context, userID primitive.ObjectID) error
}

// WorkoutPlanRepository defines the interface for AI-generated plan
// documents.
type WorkoutPlanRepository interface {
	Create(ctx context.Context, plan *domain.WorkoutPlan) (primitive.ObjectID, error)
	GetActiveByUser(ctx context.Context, userID primitive.ObjectID) (*domain.WorkoutPlan, error)
	DeactivateOthers(ctx context.Context, userID, excludePlanID primitive.ObjectID) error
	DeleteByUser(ctx context.Context, userID primitive.ObjectID) error
}

// ExerciseLibraryRepository defines read access to the shared exercise
// catalogue.
type ExerciseLibraryRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ExerciseLibraryItem, error)
	// ListByEquipment returns catalogue entries matching any of the
	// given equipment values; an empty filter returns everything.
	ListByEquipment(ctx context.Context, equipment []string) ([]domain.ExerciseLibraryItem, error)
}
