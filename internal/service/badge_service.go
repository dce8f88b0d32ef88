package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"pulseapp/pulse/internal/domain"
	"pulseapp/pulse/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrBadgeNotFound is returned when an award targets an unknown badge.
var ErrBadgeNotFound = errors.New("badge not found")

// AwardResult is the outcome of an award attempt. AlreadyEarned is true
// when the user had the badge before the call; the stored record is
// returned either way.
type AwardResult struct {
	UserBadge     *domain.UserBadge `json:"userBadge"`
	AlreadyEarned bool              `json:"alreadyEarned"`
}

// BadgeService evaluates badge criteria against workout history and
// maintains the per-user streak watermark.
type BadgeService interface {
	// HandleWorkoutCompleted advances the streak and awards every badge
	// whose criteria the user now satisfies. Called after each finished
	// workout; awarding is idempotent so re-evaluation is safe.
	HandleWorkoutCompleted(ctx context.Context, userID primitive.ObjectID, workout *domain.Workout) error

	ListBadges(ctx context.Context) ([]domain.Badge, error)
	GetBadge(ctx context.Context, badgeID primitive.ObjectID) (*domain.Badge, error)
	GetBadgeByCode(ctx context.Context, code string) (*domain.Badge, error)
	ListEarned(ctx context.Context, userID primitive.ObjectID) ([]domain.UserBadge, error)
	// Award grants a badge directly. Re-awarding returns the existing
	// record with AlreadyEarned set instead of failing.
	Award(ctx context.Context, userID, badgeID primitive.ObjectID) (*AwardResult, error)
	GetStreak(ctx context.Context, userID primitive.ObjectID) (*domain.Streak, error)
}

type badgeService struct {
	badgeRepo   repository.BadgeRepository
	streakRepo  repository.StreakRepository
	workoutRepo repository.WorkoutRepository
	setRepo     repository.WorkoutSetRepository
	location    *time.Location // day bucketing for streaks and morning checks
}

// NewBadgeService creates a new instance of badgeService. A nil location
// falls back to the server's local timezone.
func NewBadgeService(
	badgeRepo repository.BadgeRepository,
	streakRepo repository.StreakRepository,
	workoutRepo repository.WorkoutRepository,
	setRepo repository.WorkoutSetRepository,
	location *time.Location,
) BadgeService {
	if location == nil {
		location = time.Local
	}
	return &badgeService{
		badgeRepo:   badgeRepo,
		streakRepo:  streakRepo,
		workoutRepo: workoutRepo,
		setRepo:     setRepo,
		location:    location,
	}
}

func (s *badgeService) HandleWorkoutCompleted(ctx context.Context, userID primitive.ObjectID, workout *domain.Workout) error {
	completedAt := time.Now().UTC()
	if workout.CompletedAt != nil {
		completedAt = *workout.CompletedAt
	}

	streak, err := s.advanceStreak(ctx, userID, completedAt)
	if err != nil {
		return err
	}

	stats, err := s.collectStats(ctx, userID, streak)
	if err != nil {
		return err
	}

	badges, err := s.badgeRepo.ListAll(ctx)
	if err != nil {
		return err
	}
	earned, err := s.badgeRepo.ListEarnedByUser(ctx, userID)
	if err != nil {
		return err
	}
	earnedSet := make(map[primitive.ObjectID]bool, len(earned))
	for _, ub := range earned {
		earnedSet[ub.BadgeID] = true
	}

	for _, badge := range badges {
		if earnedSet[badge.ID] {
			continue
		}
		if !criteriaMet(badge.Criteria, stats) {
			continue
		}
		if _, err := s.badgeRepo.Award(ctx, userID, badge.ID); err != nil {
			// A concurrent finish may have raced us past the earned-set
			// snapshot; the unique index rejects the duplicate.
			if isDuplicate, checkErr := s.alreadyEarned(ctx, userID, badge.ID); checkErr == nil && isDuplicate {
				continue
			}
			return err
		}
	}
	return nil
}

func (s *badgeService) ListBadges(ctx context.Context) ([]domain.Badge, error) {
	return s.badgeRepo.ListAll(ctx)
}

func (s *badgeService) GetBadge(ctx context.Context, badgeID primitive.ObjectID) (*domain.Badge, error) {
	badge, err := s.badgeRepo.GetByID(ctx, badgeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBadgeNotFound
		}
		return nil, err
	}
	return badge, nil
}

func (s *badgeService) GetBadgeByCode(ctx context.Context, code string) (*domain.Badge, error) {
	badge, err := s.badgeRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBadgeNotFound
		}
		return nil, err
	}
	return badge, nil
}

func (s *badgeService) ListEarned(ctx context.Context, userID primitive.ObjectID) ([]domain.UserBadge, error) {
	return s.badgeRepo.ListEarnedByUser(ctx, userID)
}

func (s *badgeService) Award(ctx context.Context, userID, badgeID primitive.ObjectID) (*AwardResult, error) {
	if _, err := s.badgeRepo.GetByID(ctx, badgeID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBadgeNotFound
		}
		return nil, err
	}

	existing, err := s.badgeRepo.GetUserBadge(ctx, userID, badgeID)
	if err == nil {
		return &AwardResult{UserBadge: existing, AlreadyEarned: true}, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	awarded, err := s.badgeRepo.Award(ctx, userID, badgeID)
	if err != nil {
		// Race with a concurrent award of the same badge.
		if existing, checkErr := s.badgeRepo.GetUserBadge(ctx, userID, badgeID); checkErr == nil {
			return &AwardResult{UserBadge: existing, AlreadyEarned: true}, nil
		}
		return nil, err
	}
	return &AwardResult{UserBadge: awarded, AlreadyEarned: false}, nil
}

// GetStreak returns the user's streak, or a zero-value streak for users
// who have never trained.
func (s *badgeService) GetStreak(ctx context.Context, userID primitive.ObjectID) (*domain.Streak, error) {
	streak, err := s.streakRepo.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &domain.Streak{UserID: userID}, nil
		}
		return nil, err
	}
	return streak, nil
}

// advanceStreak moves the watermark to the day of completedAt:
// same day is a no-op, the day after the watermark extends the run, and
// any gap resets the current run to 1 while the longest run is kept.
func (s *badgeService) advanceStreak(ctx context.Context, userID primitive.ObjectID, completedAt time.Time) (*domain.Streak, error) {
	day := midnightOf(completedAt.In(s.location))

	streak, err := s.streakRepo.GetByUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		streak = &domain.Streak{UserID: userID}
	} else if err != nil {
		return nil, err
	}

	switch {
	case streak.LastActiveDate == nil:
		streak.CurrentDays = 1
	case day.Equal(*streak.LastActiveDate):
		return streak, nil
	case day.Equal(streak.LastActiveDate.AddDate(0, 0, 1)):
		streak.CurrentDays++
	case day.Before(*streak.LastActiveDate):
		// Backdated completion; never move the watermark backwards.
		return streak, nil
	default:
		streak.CurrentDays = 1
	}

	if streak.CurrentDays > streak.LongestDays {
		streak.LongestDays = streak.CurrentDays
	}
	streak.LastActiveDate = &day

	if err := s.streakRepo.Upsert(ctx, streak); err != nil {
		return nil, err
	}
	return streak, nil
}

// workoutStats is the snapshot badge criteria are evaluated against.
type workoutStats struct {
	totalCompleted int
	currentStreak  int
	morningCount   int
	typeCounts     map[string]int // "strength" / "cardio"
}

func (s *badgeService) collectStats(ctx context.Context, userID primitive.ObjectID, streak *domain.Streak) (*workoutStats, error) {
	completed, err := s.workoutRepo.ListCompletedByUser(ctx, userID, 0)
	if err != nil {
		return nil, err
	}

	stats := &workoutStats{
		totalCompleted: len(completed),
		currentStreak:  streak.CurrentDays,
		typeCounts:     make(map[string]int),
	}
	ids := make([]primitive.ObjectID, len(completed))
	for i, w := range completed {
		ids[i] = w.ID
		if w.StartedAt.In(s.location).Hour() < 12 {
			stats.morningCount++
		}
	}

	// Workout type is inferred from the exercise names logged in each
	// workout. A workout can count toward both buckets.
	sets, err := s.setRepo.ListByWorkoutIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	kinds := make(map[primitive.ObjectID]map[string]bool, len(completed))
	for _, set := range sets {
		kind := classifyExercise(set.ExerciseName)
		if kind == "" {
			continue
		}
		if kinds[set.WorkoutID] == nil {
			kinds[set.WorkoutID] = make(map[string]bool, 2)
		}
		kinds[set.WorkoutID][kind] = true
	}
	for _, perWorkout := range kinds {
		for kind := range perWorkout {
			stats.typeCounts[kind]++
		}
	}
	return stats, nil
}

func criteriaMet(c domain.BadgeCriteria, stats *workoutStats) bool {
	switch c.Type {
	case domain.CriteriaWorkoutCount:
		return stats.totalCompleted >= c.Target
	case domain.CriteriaStreak:
		return stats.currentStreak >= c.Target
	case domain.CriteriaMorningWorkout:
		return stats.morningCount >= c.Target
	case domain.CriteriaWorkoutType:
		return stats.typeCounts[c.WorkoutType] >= c.Target
	default:
		return false
	}
}

var (
	strengthKeywords = []string{"press", "squat", "deadlift", "curl", "row", "raise", "extension", "pulldown", "pull-up", "pull up", "push-up", "push up", "dip", "lunge", "fly"}
	cardioKeywords   = []string{"run", "treadmill", "bike", "cycling", "rowing", "elliptical", "jump rope", "sprint", "swim", "stair"}
)

// classifyExercise buckets an exercise by name keywords. Heuristic:
// unmatched names return "" and count toward neither bucket.
func classifyExercise(name string) string {
	lower := strings.ToLower(name)
	for _, kw := range cardioKeywords {
		if strings.Contains(lower, kw) {
			return "cardio"
		}
	}
	for _, kw := range strengthKeywords {
		if strings.Contains(lower, kw) {
			return "strength"
		}
	}
	return ""
}

func (s *badgeService) alreadyEarned(ctx context.Context, userID, badgeID primitive.ObjectID) (bool, error) {
	_, err := s.badgeRepo.GetUserBadge(ctx, userID, badgeID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	return false, err
}

// midnightOf truncates t to the start of its calendar day, keeping the
// location.
func midnightOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
