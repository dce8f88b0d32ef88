package service

import (
	"context"
	"testing"
	"time"

	"pulseapp/pulse/internal/domain"
	"pulseapp/pulse/internal/repository"
	"pulseapp/pulse/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type workoutFixture struct {
	svc         WorkoutService
	workoutRepo *fakeWorkoutRepo
	setRepo     *fakeSetRepo
	routineRepo *fakeRoutineRepo
	tracker     *session.Tracker
	userID      primitive.ObjectID
}

func newWorkoutFixture(t *testing.T) *workoutFixture {
	t.Helper()
	f := &workoutFixture{
		workoutRepo: newFakeWorkoutRepo(),
		setRepo:     newFakeSetRepo(),
		routineRepo: newFakeRoutineRepo(),
		tracker:     session.NewTracker(),
		userID:      primitive.NewObjectID(),
	}
	t.Cleanup(f.tracker.Stop)
	f.svc = NewWorkoutService(f.workoutRepo, f.setRepo, f.routineRepo, f.tracker, nil)
	return f
}

func (f *workoutFixture) seedRoutine(t *testing.T, exercises ...domain.RoutineExercise) primitive.ObjectID {
	t.Helper()
	id, err := f.routineRepo.Create(context.Background(), &domain.Routine{
		UserID:    f.userID,
		Name:      "Push Day",
		IsActive:  true,
		Exercises: exercises,
	})
	require.NoError(t, err)
	return id
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func benchPress() domain.RoutineExercise {
	return domain.RoutineExercise{
		ID:           primitive.NewObjectID(),
		ExerciseName: "Bench Press",
		SetsData: []domain.PlannedSet{
			{SetIndex: 1, TargetReps: intPtr(8), TargetWeightKg: floatPtr(60)},
			{SetIndex: 2, TargetReps: intPtr(8), TargetWeightKg: floatPtr(60)},
		},
	}
}

func TestStartWorkout_FromRoutineCreatesPlannedSets(t *testing.T) {
	f := newWorkoutFixture(t)
	routineID := f.seedRoutine(t, benchPress(), domain.RoutineExercise{
		ID:           primitive.NewObjectID(),
		ExerciseName: "Overhead Press",
		SetsData:     []domain.PlannedSet{{SetIndex: 1, TargetReps: intPtr(10)}},
	})

	sess, err := f.svc.StartWorkout(context.Background(), f.userID, &routineID, "")
	require.NoError(t, err)
	require.NotNil(t, sess.Workout)

	assert.Equal(t, domain.WorkoutInProgress, sess.Workout.Status)
	assert.Equal(t, "Push Day", sess.Workout.Name)
	assert.Empty(t, sess.Warning)
	require.Len(t, sess.Sets, 3)

	indices := map[string][]int{}
	for _, set := range sess.Sets {
		indices[set.ExerciseName] = append(indices[set.ExerciseName], set.SetIndex)
		assert.False(t, set.Completed)
		assert.Nil(t, set.CompletedAt)
	}
	assert.Equal(t, []int{1, 2}, indices["Bench Press"])
	assert.Equal(t, []int{1}, indices["Overhead Press"])

	// Targets are copied in as prefills.
	first := sess.Sets[0]
	require.NotNil(t, first.WeightKg)
	assert.Equal(t, 60.0, *first.WeightKg)
}

func TestStartWorkout_SecondStartReturnsExistingSession(t *testing.T) {
	f := newWorkoutFixture(t)
	routineID := f.seedRoutine(t, benchPress())

	first, err := f.svc.StartWorkout(context.Background(), f.userID, &routineID, "")
	require.NoError(t, err)

	second, err := f.svc.StartWorkout(context.Background(), f.userID, &routineID, "")
	require.ErrorIs(t, err, ErrWorkoutAlreadyActive)
	require.NotNil(t, second)
	assert.Equal(t, first.Workout.ID, second.Workout.ID)

	// The conflicting start must not create a duplicate workout.
	ids, err := f.workoutRepo.ListIDsByUser(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}

func TestStartWorkout_EmptyRoutineWarnsButStarts(t *testing.T) {
	f := newWorkoutFixture(t)
	routineID := f.seedRoutine(t, domain.RoutineExercise{
		ID:           primitive.NewObjectID(),
		ExerciseName: "Plank",
	})

	sess, err := f.svc.StartWorkout(context.Background(), f.userID, &routineID, "")
	require.NoError(t, err)
	assert.Equal(t, WarnNoPlannedSets, sess.Warning)
	assert.Empty(t, sess.Sets)
}

func TestStartWorkout_ForeignRoutineIsHidden(t *testing.T) {
	f := newWorkoutFixture(t)
	otherUser := primitive.NewObjectID()
	routineID, err := f.routineRepo.Create(context.Background(), &domain.Routine{
		UserID: otherUser, Name: "Not yours", IsActive: true,
	})
	require.NoError(t, err)

	_, err = f.svc.StartWorkout(context.Background(), f.userID, &routineID, "")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUpdateSet_CompletionRoundTrip(t *testing.T) {
	f := newWorkoutFixture(t)
	routineID := f.seedRoutine(t, benchPress())
	sess, err := f.svc.StartWorkout(context.Background(), f.userID, &routineID, "")
	require.NoError(t, err)
	setID := sess.Sets[0].ID

	completed := true
	set, err := f.svc.UpdateSet(context.Background(), f.userID, setID, repository.SetPatch{
		WeightKg:  floatPtr(62.5),
		Reps:      intPtr(8),
		Completed: &completed,
	})
	require.NoError(t, err)
	assert.True(t, set.Completed)
	require.NotNil(t, set.CompletedAt)
	assert.Equal(t, 62.5, *set.WeightKg)

	uncompleted := false
	set, err = f.svc.UpdateSet(context.Background(), f.userID, setID, repository.SetPatch{Completed: &uncompleted})
	require.NoError(t, err)
	assert.False(t, set.Completed)
	assert.Nil(t, set.CompletedAt, "uncompleting must clear the completion timestamp")
}

func TestUpdateSet_RejectsEmptyAndInvalidPatches(t *testing.T) {
	f := newWorkoutFixture(t)
	routineID := f.seedRoutine(t, benchPress())
	sess, err := f.svc.StartWorkout(context.Background(), f.userID, &routineID, "")
	require.NoError(t, err)
	setID := sess.Sets[0].ID

	_, err = f.svc.UpdateSet(context.Background(), f.userID, setID, repository.SetPatch{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.UpdateSet(context.Background(), f.userID, setID, repository.SetPatch{RPE: floatPtr(11)})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAddSet_UsesMaxIndexEvenAfterGap(t *testing.T) {
	f := newWorkoutFixture(t)
	routineID := f.seedRoutine(t, domain.RoutineExercise{
		ID:           primitive.NewObjectID(),
		ExerciseName: "Squat",
		SetsData: []domain.PlannedSet{
			{SetIndex: 1, TargetReps: intPtr(5), TargetWeightKg: floatPtr(100)},
			{SetIndex: 2, TargetReps: intPtr(5), TargetWeightKg: floatPtr(100)},
			{SetIndex: 3, TargetReps: intPtr(5), TargetWeightKg: floatPtr(100)},
		},
	})
	sess, err := f.svc.StartWorkout(context.Background(), f.userID, &routineID, "")
	require.NoError(t, err)
	workoutID := sess.Workout.ID

	added, err := f.svc.AddSet(context.Background(), f.userID, workoutID, "Squat", nil)
	require.NoError(t, err)
	assert.Equal(t, 4, added.SetIndex)
	require.NotNil(t, added.WeightKg)
	assert.Equal(t, 100.0, *added.WeightKg, "weight defaults from the previous set")

	// Delete the middle set; the gap must not be refilled.
	var middle primitive.ObjectID
	for _, set := range sess.Sets {
		if set.SetIndex == 2 {
			middle = set.ID
		}
	}
	require.NoError(t, f.svc.DeleteSet(context.Background(), f.userID, middle))

	next, err := f.svc.AddSet(context.Background(), f.userID, workoutID, "Squat", nil)
	require.NoError(t, err)
	assert.Equal(t, 5, next.SetIndex)
}

func TestFinish_StampsWholeSecondDuration(t *testing.T) {
	f := newWorkoutFixture(t)
	startedAt := time.Now().UTC().Add(-90 * time.Second)
	workoutID, err := f.workoutRepo.Create(context.Background(), &domain.Workout{
		UserID:    f.userID,
		Name:      "Freestyle",
		Status:    domain.WorkoutInProgress,
		StartedAt: startedAt,
	})
	require.NoError(t, err)

	workout, err := f.svc.Finish(context.Background(), f.userID, workoutID)
	require.NoError(t, err)

	assert.Equal(t, domain.WorkoutCompleted, workout.Status)
	require.NotNil(t, workout.CompletedAt)
	require.NotNil(t, workout.DurationSeconds)
	assert.GreaterOrEqual(t, *workout.DurationSeconds, 90)
	assert.Equal(t, int(workout.CompletedAt.Sub(workout.StartedAt).Seconds()), *workout.DurationSeconds)

	// Transitions are one-way.
	_, err = f.svc.Finish(context.Background(), f.userID, workoutID)
	assert.ErrorIs(t, err, ErrWorkoutFinished)
	_, err = f.svc.Cancel(context.Background(), f.userID, workoutID)
	assert.ErrorIs(t, err, ErrWorkoutFinished)
}

func TestCancel_ClearsActiveSession(t *testing.T) {
	f := newWorkoutFixture(t)
	routineID := f.seedRoutine(t, benchPress())
	sess, err := f.svc.StartWorkout(context.Background(), f.userID, &routineID, "")
	require.NoError(t, err)

	workout, err := f.svc.Cancel(context.Background(), f.userID, sess.Workout.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.WorkoutCancelled, workout.Status)
	assert.NotNil(t, workout.CompletedAt)
	assert.Nil(t, workout.DurationSeconds)

	_, err = f.svc.GetActive(context.Background(), f.userID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestGetActive_RecomputesElapsedFromStartTimestamp(t *testing.T) {
	f := newWorkoutFixture(t)
	// A session that began 125 seconds ago on another instance; nothing
	// is tracked locally yet.
	_, err := f.workoutRepo.Create(context.Background(), &domain.Workout{
		UserID:    f.userID,
		Name:      "Resumed",
		Status:    domain.WorkoutInProgress,
		StartedAt: time.Now().UTC().Add(-125 * time.Second),
	})
	require.NoError(t, err)

	sess, err := f.svc.GetActive(context.Background(), f.userID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, sess.ElapsedSeconds, int64(125))
}
