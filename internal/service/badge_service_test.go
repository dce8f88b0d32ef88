package service

import (
	"context"
	"testing"
	"time"

	"pulseapp/pulse/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type badgeFixture struct {
	svc         BadgeService
	badgeRepo   *fakeBadgeRepo
	streakRepo  *fakeStreakRepo
	workoutRepo *fakeWorkoutRepo
	setRepo     *fakeSetRepo
	userID      primitive.ObjectID
}

func newBadgeFixture(t *testing.T, badges ...domain.Badge) *badgeFixture {
	t.Helper()
	f := &badgeFixture{
		badgeRepo:   newFakeBadgeRepo(badges...),
		streakRepo:  newFakeStreakRepo(),
		workoutRepo: newFakeWorkoutRepo(),
		setRepo:     newFakeSetRepo(),
		userID:      primitive.NewObjectID(),
	}
	f.svc = NewBadgeService(f.badgeRepo, f.streakRepo, f.workoutRepo, f.setRepo, time.UTC)
	return f
}

// seedCompleted inserts a finished workout completed at the given time.
func (f *badgeFixture) seedCompleted(t *testing.T, completedAt time.Time) *domain.Workout {
	t.Helper()
	at := completedAt
	duration := 3600
	workout := &domain.Workout{
		UserID:          f.userID,
		Name:            "Session",
		Status:          domain.WorkoutCompleted,
		StartedAt:       completedAt.Add(-time.Hour),
		CompletedAt:     &at,
		DurationSeconds: &duration,
	}
	id, err := f.workoutRepo.Create(context.Background(), workout)
	require.NoError(t, err)
	workout.ID = id
	return workout
}

func TestAdvanceStreak_Watermark(t *testing.T) {
	f := newBadgeFixture(t)
	day := func(offset int) time.Time {
		return time.Date(2026, 8, 10+offset, 18, 0, 0, 0, time.UTC)
	}

	// First ever workout starts the run.
	w := f.seedCompleted(t, day(0))
	require.NoError(t, f.svc.HandleWorkoutCompleted(context.Background(), f.userID, w))
	streak, err := f.svc.GetStreak(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Equal(t, 1, streak.CurrentDays)
	assert.Equal(t, 1, streak.LongestDays)

	// A second workout on the same day is a no-op.
	w = f.seedCompleted(t, day(0).Add(2*time.Hour))
	require.NoError(t, f.svc.HandleWorkoutCompleted(context.Background(), f.userID, w))
	streak, _ = f.svc.GetStreak(context.Background(), f.userID)
	assert.Equal(t, 1, streak.CurrentDays)

	// The next day extends the run.
	w = f.seedCompleted(t, day(1))
	require.NoError(t, f.svc.HandleWorkoutCompleted(context.Background(), f.userID, w))
	streak, _ = f.svc.GetStreak(context.Background(), f.userID)
	assert.Equal(t, 2, streak.CurrentDays)
	assert.Equal(t, 2, streak.LongestDays)

	// A gap resets the current run but keeps the longest.
	w = f.seedCompleted(t, day(4))
	require.NoError(t, f.svc.HandleWorkoutCompleted(context.Background(), f.userID, w))
	streak, _ = f.svc.GetStreak(context.Background(), f.userID)
	assert.Equal(t, 1, streak.CurrentDays)
	assert.Equal(t, 2, streak.LongestDays)
}

func TestHandleWorkoutCompleted_AwardsWorkoutCountBadge(t *testing.T) {
	f := newBadgeFixture(t, domain.Badge{
		Code: "first_workout",
		Name: "First Workout",
		Criteria: domain.BadgeCriteria{
			Type:   domain.CriteriaWorkoutCount,
			Target: 1,
		},
	})

	w := f.seedCompleted(t, time.Now().UTC())
	require.NoError(t, f.svc.HandleWorkoutCompleted(context.Background(), f.userID, w))

	earned, err := f.svc.ListEarned(context.Background(), f.userID)
	require.NoError(t, err)
	require.Len(t, earned, 1)

	// Re-evaluation must not duplicate the award.
	require.NoError(t, f.svc.HandleWorkoutCompleted(context.Background(), f.userID, w))
	earned, _ = f.svc.ListEarned(context.Background(), f.userID)
	assert.Len(t, earned, 1)
}

func TestHandleWorkoutCompleted_StreakBadge(t *testing.T) {
	f := newBadgeFixture(t, domain.Badge{
		Code: "three_day_streak",
		Name: "On a Roll",
		Criteria: domain.BadgeCriteria{
			Type:   domain.CriteriaStreak,
			Target: 3,
		},
	})

	base := time.Date(2026, 8, 10, 7, 0, 0, 0, time.UTC)
	for offset := 0; offset < 3; offset++ {
		w := f.seedCompleted(t, base.AddDate(0, 0, offset))
		require.NoError(t, f.svc.HandleWorkoutCompleted(context.Background(), f.userID, w))
	}

	earned, err := f.svc.ListEarned(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Len(t, earned, 1)
}

func TestHandleWorkoutCompleted_WorkoutTypeFromExerciseNames(t *testing.T) {
	f := newBadgeFixture(t, domain.Badge{
		Code: "cardio_fan",
		Name: "Cardio Fan",
		Criteria: domain.BadgeCriteria{
			Type:        domain.CriteriaWorkoutType,
			Target:      1,
			WorkoutType: "cardio",
		},
	})

	w := f.seedCompleted(t, time.Now().UTC())
	require.NoError(t, f.setRepo.CreateMany(context.Background(), []domain.WorkoutSet{
		{WorkoutID: w.ID, ExerciseName: "Treadmill Run", SetIndex: 1, Completed: true},
	}))

	require.NoError(t, f.svc.HandleWorkoutCompleted(context.Background(), f.userID, w))
	earned, err := f.svc.ListEarned(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Len(t, earned, 1)
}

func TestAward_IsIdempotent(t *testing.T) {
	badge := domain.Badge{
		ID:   primitive.NewObjectID(),
		Code: "early_bird",
		Name: "Early Bird",
		Criteria: domain.BadgeCriteria{
			Type:   domain.CriteriaMorningWorkout,
			Target: 10,
		},
	}
	f := newBadgeFixture(t, badge)

	first, err := f.svc.Award(context.Background(), f.userID, badge.ID)
	require.NoError(t, err)
	assert.False(t, first.AlreadyEarned)

	second, err := f.svc.Award(context.Background(), f.userID, badge.ID)
	require.NoError(t, err)
	assert.True(t, second.AlreadyEarned)
	assert.Equal(t, first.UserBadge.ID, second.UserBadge.ID)
}

func TestAward_UnknownBadge(t *testing.T) {
	f := newBadgeFixture(t)
	_, err := f.svc.Award(context.Background(), f.userID, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrBadgeNotFound)
}

func TestGetStreak_ZeroValueForNewUser(t *testing.T) {
	f := newBadgeFixture(t)
	streak, err := f.svc.GetStreak(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Equal(t, 0, streak.CurrentDays)
	assert.Equal(t, 0, streak.LongestDays)
	assert.Nil(t, streak.LastActiveDate)
}

func TestClassifyExercise(t *testing.T) {
	assert.Equal(t, "strength", classifyExercise("Barbell Bench Press"))
	assert.Equal(t, "cardio", classifyExercise("Treadmill Run"))
	assert.Equal(t, "cardio", classifyExercise("Rowing Machine"))
	assert.Equal(t, "", classifyExercise("Yoga Flow"))
}
