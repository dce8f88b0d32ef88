package service

import (
	"context"
	"testing"

	"pulseapp/pulse/internal/domain"
	"pulseapp/pulse/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type routineFixture struct {
	svc    RoutineService
	repo   *fakeRoutineRepo
	userID primitive.ObjectID
}

func newRoutineFixture(t *testing.T) *routineFixture {
	t.Helper()
	f := &routineFixture{
		repo:   newFakeRoutineRepo(),
		userID: primitive.NewObjectID(),
	}
	f.svc = NewRoutineService(f.repo)
	return f
}

func TestCreateRoutine_NormalizesExercises(t *testing.T) {
	f := newRoutineFixture(t)

	routine, err := f.svc.CreateRoutine(context.Background(), f.userID, "Upper A", "Bench focus", []domain.RoutineExercise{
		{
			ExerciseName: "Bench Press",
			SetsData: []domain.PlannedSet{
				{TargetReps: intPtr(8)},
				{TargetReps: intPtr(8)},
			},
		},
		{ExerciseName: "Lat Pulldown"},
	})
	require.NoError(t, err)

	assert.True(t, routine.IsActive)
	require.Len(t, routine.Exercises, 2)
	for i, ex := range routine.Exercises {
		assert.False(t, ex.ID.IsZero(), "embedded exercises get stable IDs")
		assert.Equal(t, i, ex.OrderIndex)
	}
	// Planned set indices are 1-based regardless of input.
	assert.Equal(t, 1, routine.Exercises[0].SetsData[0].SetIndex)
	assert.Equal(t, 2, routine.Exercises[0].SetsData[1].SetIndex)
}

func TestCreateRoutine_Validation(t *testing.T) {
	f := newRoutineFixture(t)

	_, err := f.svc.CreateRoutine(context.Background(), f.userID, "", "", nil)
	assert.ErrorIs(t, err, ErrRoutineNameRequired)

	_, err = f.svc.CreateRoutine(context.Background(), f.userID, "Upper A", "", []domain.RoutineExercise{
		{ExerciseName: ""},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetRoutine_HidesForeignRoutines(t *testing.T) {
	f := newRoutineFixture(t)
	otherUser := primitive.NewObjectID()
	routineID, err := f.repo.Create(context.Background(), &domain.Routine{
		UserID: otherUser, Name: "Not yours", IsActive: true,
	})
	require.NoError(t, err)

	_, err = f.svc.GetRoutine(context.Background(), f.userID, routineID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUpdateRoutine_ReplacesExercises(t *testing.T) {
	f := newRoutineFixture(t)
	routine, err := f.svc.CreateRoutine(context.Background(), f.userID, "Upper A", "", []domain.RoutineExercise{
		{ExerciseName: "Bench Press"},
	})
	require.NoError(t, err)

	updated, err := f.svc.UpdateRoutine(context.Background(), f.userID, routine.ID, "Upper B", "volume block", []domain.RoutineExercise{
		{ExerciseName: "Incline Press"},
		{ExerciseName: "Dips"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Upper B", updated.Name)
	assert.Equal(t, "volume block", updated.Description)
	require.Len(t, updated.Exercises, 2)
	assert.Equal(t, "Incline Press", updated.Exercises[0].ExerciseName)

	stored, err := f.repo.GetByID(context.Background(), routine.ID)
	require.NoError(t, err)
	assert.Equal(t, "Upper B", stored.Name)
}

func TestDeactivate_SoftDeletes(t *testing.T) {
	f := newRoutineFixture(t)
	routine, err := f.svc.CreateRoutine(context.Background(), f.userID, "Upper A", "", nil)
	require.NoError(t, err)

	require.NoError(t, f.svc.Deactivate(context.Background(), f.userID, routine.ID))

	active, err := f.svc.ListActive(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Empty(t, active)

	// The document survives so finished workouts keep their reference.
	stored, err := f.repo.GetByID(context.Background(), routine.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
}

func TestDeactivate_ForeignRoutine(t *testing.T) {
	f := newRoutineFixture(t)
	otherUser := primitive.NewObjectID()
	routineID, err := f.repo.Create(context.Background(), &domain.Routine{
		UserID: otherUser, Name: "Not yours", IsActive: true,
	})
	require.NoError(t, err)

	err = f.svc.Deactivate(context.Background(), f.userID, routineID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	stored, err := f.repo.GetByID(context.Background(), routineID)
	require.NoError(t, err)
	assert.True(t, stored.IsActive)
}
