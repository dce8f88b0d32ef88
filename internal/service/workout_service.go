package service

import (
	"context"
	"errors"
	"log"
	"time"

	"pulseapp/pulse/internal/domain"
	"pulseapp/pulse/internal/repository"
	"pulseapp/pulse/internal/session"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrWorkoutAlreadyActive = errors.New("an in-progress workout already exists for this user")
	ErrWorkoutFinished      = errors.New("workout has already been finished")
	ErrInvalidInput         = errors.New("invalid input")
)

// WarnNoPlannedSets is attached to a started session when the source
// routine carried no planned sets, so clients can surface it without
// the start being rejected.
const WarnNoPlannedSets = "routine has no planned sets; workout started empty"

// ActiveSession is the live view of an in-progress workout: the workout
// row, its set rows, and the ticking elapsed clock.
type ActiveSession struct {
	Workout        *domain.Workout     `json:"workout"`
	Sets           []domain.WorkoutSet `json:"sets"`
	ElapsedSeconds int64               `json:"elapsedSeconds"`
	Warning        string              `json:"warning,omitempty"`
}

// WorkoutService owns the workout session lifecycle: at most one
// in-progress workout per user, transitions are one-way, and every set
// mutation is checked against the owning user's active workout.
type WorkoutService interface {
	// StartWorkout begins a session, optionally instantiated from a
	// routine. When the user already has an in-progress workout it
	// returns that session together with ErrWorkoutAlreadyActive, and
	// creates nothing.
	StartWorkout(ctx context.Context, userID primitive.ObjectID, routineID *primitive.ObjectID, name string) (*ActiveSession, error)
	// GetActive returns the user's in-progress session, re-seeding the
	// elapsed clock from the stored start timestamp when the session is
	// not currently tracked (e.g. after a server restart).
	GetActive(ctx context.Context, userID primitive.ObjectID) (*ActiveSession, error)
	GetWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, []domain.WorkoutSet, error)

	UpdateSet(ctx context.Context, userID, setID primitive.ObjectID, patch repository.SetPatch) (*domain.WorkoutSet, error)
	// AddSet appends a set for an exercise at index max(existing)+1.
	// Weight and reps default from the current highest-index set of the
	// same exercise.
	AddSet(ctx context.Context, userID, workoutID primitive.ObjectID, exerciseName string, exerciseLibraryID *primitive.ObjectID) (*domain.WorkoutSet, error)
	DeleteSet(ctx context.Context, userID, setID primitive.ObjectID) error

	// Finish completes the workout, stamping completedAt and the whole-
	// second duration, then runs badge and streak evaluation.
	Finish(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, error)
	// Cancel discards the session. No duration is recorded and no badge
	// evaluation runs.
	Cancel(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, error)
}

type workoutService struct {
	workoutRepo repository.WorkoutRepository
	setRepo     repository.WorkoutSetRepository
	routineRepo repository.RoutineRepository
	tracker     *session.Tracker
	badges      BadgeService // nil disables award evaluation
}

// NewWorkoutService creates a new instance of workoutService.
func NewWorkoutService(
	workoutRepo repository.WorkoutRepository,
	setRepo repository.WorkoutSetRepository,
	routineRepo repository.RoutineRepository,
	tracker *session.Tracker,
	badges BadgeService,
) WorkoutService {
	return &workoutService{
		workoutRepo: workoutRepo,
		setRepo:     setRepo,
		routineRepo: routineRepo,
		tracker:     tracker,
		badges:      badges,
	}
}

func (s *workoutService) StartWorkout(ctx context.Context, userID primitive.ObjectID, routineID *primitive.ObjectID, name string) (*ActiveSession, error) {
	// Single-active-session rule: adopt and report the existing workout
	// instead of creating a duplicate.
	existing, err := s.workoutRepo.GetActiveByUser(ctx, userID)
	if err == nil {
		s.adoptIfUntracked(userID, existing)
		sets, setsErr := s.setRepo.GetByWorkoutID(ctx, existing.ID)
		if setsErr != nil {
			return nil, setsErr
		}
		return s.sessionView(userID, existing, sets, ""), ErrWorkoutAlreadyActive
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	workout := &domain.Workout{
		UserID:    userID,
		RoutineID: routineID,
		Name:      name,
		Status:    domain.WorkoutInProgress,
		StartedAt: time.Now().UTC(),
	}

	var planned []domain.WorkoutSet
	warning := ""
	if routineID != nil {
		routine, err := s.routineRepo.GetByID(ctx, *routineID)
		if err != nil {
			return nil, err
		}
		if routine.UserID != userID {
			return nil, repository.ErrNotFound
		}
		if workout.Name == "" {
			workout.Name = routine.Name
		}
		planned = plannedSetsFromRoutine(routine)
		if len(planned) == 0 {
			warning = WarnNoPlannedSets
		}
	}
	if workout.Name == "" {
		return nil, ErrInvalidInput
	}

	workoutID, err := s.workoutRepo.Create(ctx, workout)
	if err != nil {
		return nil, err
	}
	workout.ID = workoutID

	if len(planned) > 0 {
		for i := range planned {
			planned[i].WorkoutID = workoutID
		}
		if err := s.setRepo.CreateMany(ctx, planned); err != nil {
			return nil, err
		}
		// Re-read so set IDs assigned on insert are present.
		planned, err = s.setRepo.GetByWorkoutID(ctx, workoutID)
		if err != nil {
			return nil, err
		}
	}

	s.tracker.Adopt(userID, workoutID, workout.StartedAt)
	return s.sessionView(userID, workout, planned, warning), nil
}

func (s *workoutService) GetActive(ctx context.Context, userID primitive.ObjectID) (*ActiveSession, error) {
	workout, err := s.workoutRepo.GetActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// The store is the source of truth: drop any stale clock.
			s.tracker.Clear(userID)
		}
		return nil, err
	}

	s.adoptIfUntracked(userID, workout)
	sets, err := s.setRepo.GetByWorkoutID(ctx, workout.ID)
	if err != nil {
		return nil, err
	}
	return s.sessionView(userID, workout, sets, ""), nil
}

func (s *workoutService) GetWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, []domain.WorkoutSet, error) {
	workout, err := s.ownedWorkout(ctx, userID, workoutID)
	if err != nil {
		return nil, nil, err
	}
	sets, err := s.setRepo.GetByWorkoutID(ctx, workoutID)
	if err != nil {
		return nil, nil, err
	}
	return workout, sets, nil
}

func (s *workoutService) UpdateSet(ctx context.Context, userID, setID primitive.ObjectID, patch repository.SetPatch) (*domain.WorkoutSet, error) {
	if patch.IsEmpty() {
		return nil, ErrInvalidInput
	}
	if err := validateSetPatch(patch); err != nil {
		return nil, err
	}

	set, err := s.setRepo.GetByID(ctx, setID)
	if err != nil {
		return nil, err
	}
	if _, err := s.mutableWorkout(ctx, userID, set.WorkoutID); err != nil {
		return nil, err
	}
	return s.setRepo.Update(ctx, setID, patch)
}

func (s *workoutService) AddSet(ctx context.Context, userID, workoutID primitive.ObjectID, exerciseName string, exerciseLibraryID *primitive.ObjectID) (*domain.WorkoutSet, error) {
	if exerciseName == "" {
		return nil, ErrInvalidInput
	}
	if _, err := s.mutableWorkout(ctx, userID, workoutID); err != nil {
		return nil, err
	}

	sets, err := s.setRepo.GetByWorkoutID(ctx, workoutID)
	if err != nil {
		return nil, err
	}

	// Next index is one past the highest existing index for this
	// exercise. Indices of deleted sets are never reused.
	maxIndex := 0
	var last *domain.WorkoutSet
	for i := range sets {
		if sets[i].ExerciseName != exerciseName {
			continue
		}
		if sets[i].SetIndex > maxIndex {
			maxIndex = sets[i].SetIndex
			last = &sets[i]
		}
	}

	newSet := &domain.WorkoutSet{
		WorkoutID:         workoutID,
		ExerciseLibraryID: exerciseLibraryID,
		ExerciseName:      exerciseName,
		SetIndex:          maxIndex + 1,
		SetType:           domain.SetTypeNormal,
	}
	if last != nil {
		newSet.WeightKg = copyFloat(last.WeightKg)
		newSet.Reps = copyInt(last.Reps)
		if last.ExerciseLibraryID != nil && newSet.ExerciseLibraryID == nil {
			id := *last.ExerciseLibraryID
			newSet.ExerciseLibraryID = &id
		}
	}

	setID, err := s.setRepo.Create(ctx, newSet)
	if err != nil {
		return nil, err
	}
	newSet.ID = setID
	return newSet, nil
}

func (s *workoutService) DeleteSet(ctx context.Context, userID, setID primitive.ObjectID) error {
	set, err := s.setRepo.GetByID(ctx, setID)
	if err != nil {
		return err
	}
	if _, err := s.mutableWorkout(ctx, userID, set.WorkoutID); err != nil {
		return err
	}
	return s.setRepo.Delete(ctx, setID)
}

func (s *workoutService) Finish(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, error) {
	workout, err := s.mutableWorkout(ctx, userID, workoutID)
	if err != nil {
		return nil, err
	}

	completedAt := time.Now().UTC()
	duration := int(completedAt.Sub(workout.StartedAt).Seconds())
	if duration < 0 {
		duration = 0
	}

	if err := s.workoutRepo.Finish(ctx, workoutID, domain.WorkoutCompleted, completedAt, &duration); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Lost the race against a concurrent finish/cancel.
			return nil, ErrWorkoutFinished
		}
		return nil, err
	}
	s.tracker.Clear(userID)

	workout.Status = domain.WorkoutCompleted
	workout.CompletedAt = &completedAt
	workout.DurationSeconds = &duration

	if s.badges != nil {
		if err := s.badges.HandleWorkoutCompleted(ctx, userID, workout); err != nil {
			// Awards are best effort; the workout is already finished.
			log.Printf("WARN: badge evaluation failed for user %s: %v", userID.Hex(), err)
		}
	}
	return workout, nil
}

func (s *workoutService) Cancel(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, error) {
	workout, err := s.mutableWorkout(ctx, userID, workoutID)
	if err != nil {
		return nil, err
	}

	completedAt := time.Now().UTC()
	if err := s.workoutRepo.Finish(ctx, workoutID, domain.WorkoutCancelled, completedAt, nil); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutFinished
		}
		return nil, err
	}
	s.tracker.Clear(userID)

	workout.Status = domain.WorkoutCancelled
	workout.CompletedAt = &completedAt
	return workout, nil
}

// --- helpers ---

// ownedWorkout loads a workout and hides other users' workouts behind
// ErrNotFound.
func (s *workoutService) ownedWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, error) {
	workout, err := s.workoutRepo.GetByID(ctx, workoutID)
	if err != nil {
		return nil, err
	}
	if workout.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return workout, nil
}

// mutableWorkout additionally rejects terminal workouts.
func (s *workoutService) mutableWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, error) {
	workout, err := s.ownedWorkout(ctx, userID, workoutID)
	if err != nil {
		return nil, err
	}
	if workout.IsTerminal() {
		return nil, ErrWorkoutFinished
	}
	return workout, nil
}

func (s *workoutService) adoptIfUntracked(userID primitive.ObjectID, workout *domain.Workout) {
	trackedID, _, ok := s.tracker.Elapsed(userID)
	if !ok || trackedID != workout.ID {
		s.tracker.Adopt(userID, workout.ID, workout.StartedAt)
	}
}

func (s *workoutService) sessionView(userID primitive.ObjectID, workout *domain.Workout, sets []domain.WorkoutSet, warning string) *ActiveSession {
	_, elapsed, _ := s.tracker.Elapsed(userID)
	if sets == nil {
		sets = []domain.WorkoutSet{}
	}
	return &ActiveSession{
		Workout:        workout,
		Sets:           sets,
		ElapsedSeconds: elapsed,
		Warning:        warning,
	}
}

// plannedSetsFromRoutine expands a routine's embedded plan into one
// uncompleted WorkoutSet per planned set, 1-based per exercise.
func plannedSetsFromRoutine(routine *domain.Routine) []domain.WorkoutSet {
	var sets []domain.WorkoutSet
	for _, ex := range routine.Exercises {
		for i, planned := range ex.SetsData {
			index := planned.SetIndex
			if index <= 0 {
				index = i + 1
			}
			set := domain.WorkoutSet{
				ExerciseName: ex.ExerciseName,
				SetIndex:     index,
				WeightKg:     copyFloat(planned.TargetWeightKg),
				Reps:         copyInt(planned.TargetReps),
				SetType:      domain.SetTypeNormal,
			}
			if ex.ExerciseLibraryID != nil {
				id := *ex.ExerciseLibraryID
				set.ExerciseLibraryID = &id
			}
			sets = append(sets, set)
		}
	}
	return sets
}

func validateSetPatch(patch repository.SetPatch) error {
	if patch.WeightKg != nil && *patch.WeightKg < 0 {
		return ErrInvalidInput
	}
	if patch.Reps != nil && *patch.Reps < 0 {
		return ErrInvalidInput
	}
	if patch.RPE != nil && (*patch.RPE < 1 || *patch.RPE > 10) {
		return ErrInvalidInput
	}
	if patch.SetType != nil {
		switch *patch.SetType {
		case domain.SetTypeWarmup, domain.SetTypeNormal, domain.SetTypeDropset, domain.SetTypeFailure:
		default:
			return ErrInvalidInput
		}
	}
	return nil
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
