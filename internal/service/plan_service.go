package service

import (
	"context"
	"errors"
	"fmt"

	"pulseapp/pulse/internal/ai"
	"pulseapp/pulse/internal/domain"
	"pulseapp/pulse/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// Cap on catalogue entries per category sent to the orchestrator,
	// keeping prompts bounded regardless of library size.
	maxExercisesPerCategory = 12
	// Completed workouts summarized into adaptation requests.
	recentLogCount = 5
)

// Orchestrator is the outbound surface of the AI gateway. Satisfied by
// *ai.Client.
type Orchestrator interface {
	GenerateRoutine(ctx context.Context, payload any) (*ai.Response, error)
	AdaptRoutine(ctx context.Context, payload any) (*ai.Response, error)
	ExplainRoutine(ctx context.Context, payload any) (*ai.Response, error)
	Chat(ctx context.Context, payload any) (*ai.Response, error)
}

// PlanService enriches orchestrator requests with user context and
// manages the stored plan documents the orchestrator produces.
type PlanService interface {
	// GenerateRoutine asks the orchestrator for a new routine grounded
	// in the user's profile and available equipment.
	GenerateRoutine(ctx context.Context, userID primitive.ObjectID) (*ai.Response, error)
	// AdaptRoutine sends the current routine plus recent training logs
	// and optional user feedback.
	AdaptRoutine(ctx context.Context, userID primitive.ObjectID, currentRoutine map[string]any, feedback string) (*ai.Response, error)
	ExplainRoutine(ctx context.Context, userID primitive.ObjectID, routine map[string]any) (*ai.Response, error)
	Chat(ctx context.Context, userID primitive.ObjectID, message string, history []map[string]any) (*ai.Response, error)

	// SavePlan stores an orchestrator-produced plan document as the
	// user's active plan, versioning past the previous one.
	SavePlan(ctx context.Context, userID primitive.ObjectID, plan map[string]any) (*domain.WorkoutPlan, error)
	GetActivePlan(ctx context.Context, userID primitive.ObjectID) (*domain.WorkoutPlan, error)
}

type planService struct {
	orchestrator Orchestrator
	userRepo     repository.UserRepository
	libraryRepo  repository.ExerciseLibraryRepository
	workoutRepo  repository.WorkoutRepository
	setRepo      repository.WorkoutSetRepository
	planRepo     repository.WorkoutPlanRepository
}

// NewPlanService creates a new instance of planService.
func NewPlanService(
	orchestrator Orchestrator,
	userRepo repository.UserRepository,
	libraryRepo repository.ExerciseLibraryRepository,
	workoutRepo repository.WorkoutRepository,
	setRepo repository.WorkoutSetRepository,
	planRepo repository.WorkoutPlanRepository,
) PlanService {
	return &planService{
		orchestrator: orchestrator,
		userRepo:     userRepo,
		libraryRepo:  libraryRepo,
		workoutRepo:  workoutRepo,
		setRepo:      setRepo,
		planRepo:     planRepo,
	}
}

func (s *planService) GenerateRoutine(ctx context.Context, userID primitive.ObjectID) (*ai.Response, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	exercises, err := s.availableExercises(ctx, user.Profile)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"userId":              userID.Hex(),
		"profile":             user.Profile,
		"available_exercises": exercises,
	}
	return s.orchestrator.GenerateRoutine(ctx, payload)
}

func (s *planService) AdaptRoutine(ctx context.Context, userID primitive.ObjectID, currentRoutine map[string]any, feedback string) (*ai.Response, error) {
	if len(currentRoutine) == 0 {
		return nil, ErrInvalidInput
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	exercises, err := s.availableExercises(ctx, user.Profile)
	if err != nil {
		return nil, err
	}
	logs, err := s.recentLogs(ctx, userID)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"userId":              userID.Hex(),
		"profile":             user.Profile,
		"currentRoutine":      currentRoutine,
		"available_exercises": exercises,
		"recentLogs":          logs,
	}
	if feedback != "" {
		payload["feedback"] = feedback
	}
	return s.orchestrator.AdaptRoutine(ctx, payload)
}

func (s *planService) ExplainRoutine(ctx context.Context, userID primitive.ObjectID, routine map[string]any) (*ai.Response, error) {
	if len(routine) == 0 {
		return nil, ErrInvalidInput
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"routine": routine,
		"userId":  userID.Hex(),
		"profile": user.Profile,
	}
	return s.orchestrator.ExplainRoutine(ctx, payload)
}

func (s *planService) Chat(ctx context.Context, userID primitive.ObjectID, message string, history []map[string]any) (*ai.Response, error) {
	if message == "" {
		return nil, ErrInvalidInput
	}
	payload := map[string]any{
		"userId":  userID.Hex(),
		"message": message,
	}
	if len(history) > 0 {
		payload["history"] = history
	}
	return s.orchestrator.Chat(ctx, payload)
}

func (s *planService) SavePlan(ctx context.Context, userID primitive.ObjectID, plan map[string]any) (*domain.WorkoutPlan, error) {
	if len(plan) == 0 {
		return nil, ErrInvalidInput
	}

	version := 1
	if previous, err := s.planRepo.GetActiveByUser(ctx, userID); err == nil {
		version = previous.Version + 1
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	doc := &domain.WorkoutPlan{
		UserID:   userID,
		Plan:     plan,
		Version:  version,
		IsActive: true,
	}
	planID, err := s.planRepo.Create(ctx, doc)
	if err != nil {
		return nil, err
	}
	doc.ID = planID

	if err := s.planRepo.DeactivateOthers(ctx, userID, planID); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *planService) GetActivePlan(ctx context.Context, userID primitive.ObjectID) (*domain.WorkoutPlan, error) {
	return s.planRepo.GetActiveByUser(ctx, userID)
}

// availableExercises projects the catalogue into a prompt-sized list,
// filtered to the user's equipment and capped per category.
func (s *planService) availableExercises(ctx context.Context, profile domain.Profile) ([]map[string]any, error) {
	items, err := s.libraryRepo.ListByEquipment(ctx, equipmentFilter(profile.Equipment))
	if err != nil {
		return nil, err
	}

	perCategory := make(map[string]int)
	projected := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if perCategory[item.Category] >= maxExercisesPerCategory {
			continue
		}
		perCategory[item.Category]++
		projected = append(projected, map[string]any{
			"name":            item.Name,
			"category":        item.Category,
			"equipment":       item.Equipment,
			"level":           item.Level,
			"primary_muscles": item.PrimaryMuscles,
		})
	}
	return projected, nil
}

// equipmentFilter maps onboarding equipment answers to catalogue
// equipment values. A nil return means no filter (full gym).
func equipmentFilter(equipment []string) []string {
	if len(equipment) == 0 {
		return nil
	}
	seen := make(map[string]bool)
	var filter []string
	add := func(values ...string) {
		for _, v := range values {
			if !seen[v] {
				seen[v] = true
				filter = append(filter, v)
			}
		}
	}
	for _, e := range equipment {
		switch e {
		case "full_gym":
			return nil
		case "bodyweight_only":
			add("body only")
		case "dumbbells":
			add("dumbbell", "body only")
		case "bands":
			add("bands", "body only")
		case "kettlebells":
			add("kettlebells", "body only")
		default:
			add(e)
		}
	}
	return filter
}

// recentLogs compacts the last completed workouts into a small summary
// the orchestrator can reason over.
func (s *planService) recentLogs(ctx context.Context, userID primitive.ObjectID) ([]map[string]any, error) {
	workouts, err := s.workoutRepo.ListCompletedByUser(ctx, userID, recentLogCount)
	if err != nil {
		return nil, err
	}
	if len(workouts) == 0 {
		return nil, nil
	}

	ids := make([]primitive.ObjectID, len(workouts))
	for i, w := range workouts {
		ids[i] = w.ID
	}
	sets, err := s.setRepo.ListCompletedByWorkoutIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	type exerciseLog struct {
		name string
		sets []string
	}
	perWorkout := make(map[primitive.ObjectID][]*exerciseLog, len(workouts))
	for _, set := range sets {
		logs := perWorkout[set.WorkoutID]
		var entry *exerciseLog
		for _, l := range logs {
			if l.name == set.ExerciseName {
				entry = l
				break
			}
		}
		if entry == nil {
			entry = &exerciseLog{name: set.ExerciseName}
			perWorkout[set.WorkoutID] = append(logs, entry)
		}
		entry.sets = append(entry.sets, compactSet(set))
	}

	compacted := make([]map[string]any, 0, len(workouts))
	for _, w := range workouts {
		exercises := make([]map[string]any, 0, len(perWorkout[w.ID]))
		for _, l := range perWorkout[w.ID] {
			exercises = append(exercises, map[string]any{"name": l.name, "sets": l.sets})
		}
		entry := map[string]any{
			"name":      w.Name,
			"exercises": exercises,
		}
		if w.CompletedAt != nil {
			entry["date"] = w.CompletedAt.UTC().Format("2006-01-02")
		}
		compacted = append(compacted, entry)
	}
	return compacted, nil
}

// compactSet renders a set as "reps x weight" shorthand.
func compactSet(set domain.WorkoutSet) string {
	reps := 0
	if set.Reps != nil {
		reps = *set.Reps
	}
	if set.WeightKg == nil {
		return fmt.Sprintf("%d reps", reps)
	}
	return fmt.Sprintf("%dx%.1fkg", reps, *set.WeightKg)
}
