package service

import (
	"context"
	"fmt"
	"log"

	"pulseapp/pulse/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AccountService handles full account deletion.
type AccountService interface {
	// DeleteAccount wipes every record owned by the user, children
	// before parents, finishing with the user document itself.
	DeleteAccount(ctx context.Context, userID primitive.ObjectID) error
}

type accountService struct {
	userRepo    repository.UserRepository
	routineRepo repository.RoutineRepository
	workoutRepo repository.WorkoutRepository
	setRepo     repository.WorkoutSetRepository
	badgeRepo   repository.BadgeRepository
	streakRepo  repository.StreakRepository
	planRepo    repository.WorkoutPlanRepository
}

// NewAccountService creates a new instance of accountService.
func NewAccountService(
	userRepo repository.UserRepository,
	routineRepo repository.RoutineRepository,
	workoutRepo repository.WorkoutRepository,
	setRepo repository.WorkoutSetRepository,
	badgeRepo repository.BadgeRepository,
	streakRepo repository.StreakRepository,
	planRepo repository.WorkoutPlanRepository,
) AccountService {
	return &accountService{
		userRepo:    userRepo,
		routineRepo: routineRepo,
		workoutRepo: workoutRepo,
		setRepo:     setRepo,
		badgeRepo:   badgeRepo,
		streakRepo:  streakRepo,
		planRepo:    planRepo,
	}
}

func (s *accountService) DeleteAccount(ctx context.Context, userID primitive.ObjectID) error {
	// Sets reference workouts, so collect workout IDs before the
	// workouts are gone.
	workoutIDs, err := s.workoutRepo.ListIDsByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("listing workouts for account deletion: %w", err)
	}
	if err := s.setRepo.DeleteByWorkoutIDs(ctx, workoutIDs); err != nil {
		return fmt.Errorf("deleting workout sets: %w", err)
	}
	if err := s.workoutRepo.DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("deleting workouts: %w", err)
	}
	if err := s.routineRepo.DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("deleting routines: %w", err)
	}
	if err := s.badgeRepo.DeleteEarnedByUser(ctx, userID); err != nil {
		return fmt.Errorf("deleting earned badges: %w", err)
	}
	if err := s.streakRepo.DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("deleting streak: %w", err)
	}
	if err := s.planRepo.DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("deleting workout plans: %w", err)
	}
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}

	log.Printf("INFO: account %s deleted (%d workouts wiped)", userID.Hex(), len(workoutIDs))
	return nil
}
