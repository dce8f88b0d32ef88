package service

import (
	"context"
	"errors"

	"pulseapp/pulse/internal/domain"
	"pulseapp/pulse/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrRoutineNameRequired is returned when a routine is created or
// renamed without a name.
var ErrRoutineNameRequired = errors.New("routine name cannot be empty")

// RoutineService manages workout templates. Routines are deactivated,
// never hard-deleted, so finished workouts keep a valid reference.
type RoutineService interface {
	CreateRoutine(ctx context.Context, userID primitive.ObjectID, name, description string, exercises []domain.RoutineExercise) (*domain.Routine, error)
	GetRoutine(ctx context.Context, userID, routineID primitive.ObjectID) (*domain.Routine, error)
	ListActive(ctx context.Context, userID primitive.ObjectID) ([]domain.Routine, error)
	UpdateRoutine(ctx context.Context, userID, routineID primitive.ObjectID, name, description string, exercises []domain.RoutineExercise) (*domain.Routine, error)
	Deactivate(ctx context.Context, userID, routineID primitive.ObjectID) error
}

type routineService struct {
	routineRepo repository.RoutineRepository
}

// NewRoutineService creates a new instance of routineService.
func NewRoutineService(routineRepo repository.RoutineRepository) RoutineService {
	return &routineService{routineRepo: routineRepo}
}

func (s *routineService) CreateRoutine(ctx context.Context, userID primitive.ObjectID, name, description string, exercises []domain.RoutineExercise) (*domain.Routine, error) {
	if name == "" {
		return nil, ErrRoutineNameRequired
	}
	normalized, err := normalizeExercises(exercises)
	if err != nil {
		return nil, err
	}

	routine := &domain.Routine{
		UserID:      userID,
		Name:        name,
		Description: description,
		IsActive:    true,
		Exercises:   normalized,
	}
	routineID, err := s.routineRepo.Create(ctx, routine)
	if err != nil {
		return nil, err
	}
	routine.ID = routineID
	return routine, nil
}

func (s *routineService) GetRoutine(ctx context.Context, userID, routineID primitive.ObjectID) (*domain.Routine, error) {
	routine, err := s.routineRepo.GetByID(ctx, routineID)
	if err != nil {
		return nil, err
	}
	if routine.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return routine, nil
}

func (s *routineService) ListActive(ctx context.Context, userID primitive.ObjectID) ([]domain.Routine, error) {
	return s.routineRepo.GetActiveByUser(ctx, userID)
}

func (s *routineService) UpdateRoutine(ctx context.Context, userID, routineID primitive.ObjectID, name, description string, exercises []domain.RoutineExercise) (*domain.Routine, error) {
	if name == "" {
		return nil, ErrRoutineNameRequired
	}
	routine, err := s.GetRoutine(ctx, userID, routineID)
	if err != nil {
		return nil, err
	}

	normalized, err := normalizeExercises(exercises)
	if err != nil {
		return nil, err
	}
	routine.Name = name
	routine.Description = description
	routine.Exercises = normalized

	if err := s.routineRepo.Update(ctx, routine); err != nil {
		return nil, err
	}
	return routine, nil
}

func (s *routineService) Deactivate(ctx context.Context, userID, routineID primitive.ObjectID) error {
	if _, err := s.GetRoutine(ctx, userID, routineID); err != nil {
		return err
	}
	return s.routineRepo.SetActive(ctx, routineID, userID, false)
}

// normalizeExercises assigns stable IDs, sequential order indices and
// 1-based set indices to the embedded exercise list.
func normalizeExercises(exercises []domain.RoutineExercise) ([]domain.RoutineExercise, error) {
	normalized := make([]domain.RoutineExercise, 0, len(exercises))
	for i, ex := range exercises {
		if ex.ExerciseName == "" {
			return nil, ErrInvalidInput
		}
		if ex.ID.IsZero() {
			ex.ID = primitive.NewObjectID()
		}
		ex.OrderIndex = i
		for j := range ex.SetsData {
			ex.SetsData[j].SetIndex = j + 1
		}
		normalized = append(normalized, ex)
	}
	return normalized, nil
}
