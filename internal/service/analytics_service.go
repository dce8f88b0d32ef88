package service

import (
	"context"
	"sort"
	"time"

	"pulseapp/pulse/internal/domain"
	"pulseapp/pulse/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	weeklyVolumeWeeks  = 8
	personalRecordsCap = 10
	defaultHistorySize = 10
)

// Overview is the headline training summary.
type Overview struct {
	TotalWorkouts        int        `json:"totalWorkouts"`
	TotalVolumeKg        float64    `json:"totalVolumeKg"`
	TotalDurationSeconds int        `json:"totalDurationSeconds"`
	AvgDurationSeconds   int        `json:"avgDurationSeconds"`
	ThisWeekWorkouts     int        `json:"thisWeekWorkouts"`
	ThisMonthWorkouts    int        `json:"thisMonthWorkouts"`
	CurrentStreakDays    int        `json:"currentStreakDays"`
	LongestStreakDays    int        `json:"longestStreakDays"`
	LastWorkoutAt        *time.Time `json:"lastWorkoutAt,omitempty"`
}

// WeeklyVolumePoint is one Monday-anchored week of training volume.
type WeeklyVolumePoint struct {
	WeekStart time.Time `json:"weekStart"`
	VolumeKg  float64   `json:"volumeKg"`
	Workouts  int       `json:"workouts"`
}

// PersonalRecord is the best completed effort for one exercise.
type PersonalRecord struct {
	ExerciseName   string  `json:"exerciseName"`
	BestWeightKg   float64 `json:"bestWeightKg"`
	RepsAtBest     int     `json:"repsAtBest"`
	Estimated1RM   float64 `json:"estimated1RM"`
	TimesPerformed int     `json:"timesPerformed"` // completed sets, all time
}

// HistoryEntry is one finished workout with its aggregates.
type HistoryEntry struct {
	Workout       domain.Workout `json:"workout"`
	TotalVolumeKg float64        `json:"totalVolumeKg"`
	CompletedSets int            `json:"completedSets"`
}

// CalendarDay is the per-day activity bucket for the calendar view.
type CalendarDay struct {
	Date     string  `json:"date"` // YYYY-MM-DD in the requested timezone
	Workouts int     `json:"workouts"`
	VolumeKg float64 `json:"volumeKg"`
}

// AnalyticsService derives read-only aggregates from finished workouts.
// Streaks here are recomputed from workout history so the numbers always
// reflect the store, independent of the incremental record badges use.
type AnalyticsService interface {
	GetOverview(ctx context.Context, userID primitive.ObjectID) (*Overview, error)
	// GetWeeklyVolume returns the last 8 Monday-anchored weeks, oldest
	// first, including empty weeks.
	GetWeeklyVolume(ctx context.Context, userID primitive.ObjectID) ([]WeeklyVolumePoint, error)
	// GetPersonalRecords returns the top exercises by completed-set
	// count, capped at 10.
	GetPersonalRecords(ctx context.Context, userID primitive.ObjectID) ([]PersonalRecord, error)
	GetHistory(ctx context.Context, userID primitive.ObjectID, limit int) ([]HistoryEntry, error)
	// GetCalendar buckets a month's finished workouts by calendar day in
	// the given IANA timezone. An unknown timezone is an ErrInvalidInput.
	GetCalendar(ctx context.Context, userID primitive.ObjectID, year int, month time.Month, timezone string) ([]CalendarDay, error)
}

type analyticsService struct {
	workoutRepo repository.WorkoutRepository
	setRepo     repository.WorkoutSetRepository
	location    *time.Location // day/week bucketing when no timezone is given
}

// NewAnalyticsService creates a new instance of analyticsService. A nil
// location falls back to the server's local timezone.
func NewAnalyticsService(workoutRepo repository.WorkoutRepository, setRepo repository.WorkoutSetRepository, location *time.Location) AnalyticsService {
	if location == nil {
		location = time.Local
	}
	return &analyticsService{
		workoutRepo: workoutRepo,
		setRepo:     setRepo,
		location:    location,
	}
}

func (s *analyticsService) GetOverview(ctx context.Context, userID primitive.ObjectID) (*Overview, error) {
	workouts, err := s.workoutRepo.ListCompletedByUser(ctx, userID, 0)
	if err != nil {
		return nil, err
	}
	overview := &Overview{TotalWorkouts: len(workouts)}
	if len(workouts) == 0 {
		return overview, nil
	}

	now := time.Now().In(s.location)
	weekStart := weekStartOf(now)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.location)

	ids := make([]primitive.ObjectID, len(workouts))
	days := make([]time.Time, 0, len(workouts))
	for i, w := range workouts {
		ids[i] = w.ID
		if w.DurationSeconds != nil {
			overview.TotalDurationSeconds += *w.DurationSeconds
		}
		if w.CompletedAt != nil {
			local := w.CompletedAt.In(s.location)
			days = append(days, midnightOf(local))
			if !local.Before(weekStart) {
				overview.ThisWeekWorkouts++
			}
			if !local.Before(monthStart) {
				overview.ThisMonthWorkouts++
			}
		}
	}
	overview.AvgDurationSeconds = overview.TotalDurationSeconds / overview.TotalWorkouts
	// ListCompletedByUser is newest first.
	overview.LastWorkoutAt = workouts[0].CompletedAt

	sets, err := s.setRepo.ListCompletedByWorkoutIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, set := range sets {
		overview.TotalVolumeKg += setVolume(set)
	}

	overview.CurrentStreakDays, overview.LongestStreakDays = computeStreaks(days, midnightOf(now))
	return overview, nil
}

func (s *analyticsService) GetWeeklyVolume(ctx context.Context, userID primitive.ObjectID) ([]WeeklyVolumePoint, error) {
	now := time.Now().In(s.location)
	currentWeek := weekStartOf(now)
	from := currentWeek.AddDate(0, 0, -7*(weeklyVolumeWeeks-1))

	workouts, err := s.workoutRepo.ListCompletedInRange(ctx, userID, from.UTC(), time.Time{})
	if err != nil {
		return nil, err
	}

	points := make([]WeeklyVolumePoint, weeklyVolumeWeeks)
	for i := range points {
		points[i].WeekStart = from.AddDate(0, 0, 7*i)
	}
	bucketIndex := func(t time.Time) int {
		week := weekStartOf(t.In(s.location))
		return int(week.Sub(from).Hours() / (24 * 7))
	}

	ids := make([]primitive.ObjectID, 0, len(workouts))
	workoutBucket := make(map[primitive.ObjectID]int, len(workouts))
	for _, w := range workouts {
		if w.CompletedAt == nil {
			continue
		}
		idx := bucketIndex(*w.CompletedAt)
		if idx < 0 || idx >= weeklyVolumeWeeks {
			continue
		}
		points[idx].Workouts++
		workoutBucket[w.ID] = idx
		ids = append(ids, w.ID)
	}

	sets, err := s.setRepo.ListCompletedByWorkoutIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, set := range sets {
		if idx, ok := workoutBucket[set.WorkoutID]; ok {
			points[idx].VolumeKg += setVolume(set)
		}
	}
	return points, nil
}

func (s *analyticsService) GetPersonalRecords(ctx context.Context, userID primitive.ObjectID) ([]PersonalRecord, error) {
	ids, err := s.workoutRepo.ListIDsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	sets, err := s.setRepo.ListCompletedByWorkoutIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byExercise := make(map[string]*PersonalRecord)
	for _, set := range sets {
		if set.WeightKg == nil || set.Reps == nil || *set.Reps <= 0 {
			continue
		}
		pr, ok := byExercise[set.ExerciseName]
		if !ok {
			pr = &PersonalRecord{ExerciseName: set.ExerciseName}
			byExercise[set.ExerciseName] = pr
		}
		pr.TimesPerformed++
		if *set.WeightKg > pr.BestWeightKg ||
			(*set.WeightKg == pr.BestWeightKg && *set.Reps > pr.RepsAtBest) {
			pr.BestWeightKg = *set.WeightKg
			pr.RepsAtBest = *set.Reps
			pr.Estimated1RM = epley1RM(*set.WeightKg, *set.Reps)
		}
	}

	records := make([]PersonalRecord, 0, len(byExercise))
	for _, pr := range byExercise {
		records = append(records, *pr)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].TimesPerformed != records[j].TimesPerformed {
			return records[i].TimesPerformed > records[j].TimesPerformed
		}
		return records[i].ExerciseName < records[j].ExerciseName
	})
	if len(records) > personalRecordsCap {
		records = records[:personalRecordsCap]
	}
	return records, nil
}

func (s *analyticsService) GetHistory(ctx context.Context, userID primitive.ObjectID, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = defaultHistorySize
	}
	workouts, err := s.workoutRepo.ListCompletedByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, len(workouts))
	for i, w := range workouts {
		ids[i] = w.ID
	}
	sets, err := s.setRepo.ListCompletedByWorkoutIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	volume := make(map[primitive.ObjectID]float64, len(workouts))
	count := make(map[primitive.ObjectID]int, len(workouts))
	for _, set := range sets {
		volume[set.WorkoutID] += setVolume(set)
		count[set.WorkoutID]++
	}

	entries := make([]HistoryEntry, len(workouts))
	for i, w := range workouts {
		entries[i] = HistoryEntry{
			Workout:       w,
			TotalVolumeKg: volume[w.ID],
			CompletedSets: count[w.ID],
		}
	}
	return entries, nil
}

func (s *analyticsService) GetCalendar(ctx context.Context, userID primitive.ObjectID, year int, month time.Month, timezone string) ([]CalendarDay, error) {
	loc := s.location
	if timezone != "" {
		parsed, err := time.LoadLocation(timezone)
		if err != nil {
			return nil, ErrInvalidInput
		}
		loc = parsed
	}
	if year < 1970 || month < time.January || month > time.December {
		return nil, ErrInvalidInput
	}

	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	monthEnd := monthStart.AddDate(0, 1, 0)

	workouts, err := s.workoutRepo.ListCompletedInRange(ctx, userID, monthStart.UTC(), monthEnd.UTC())
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(workouts))
	workoutDay := make(map[primitive.ObjectID]string, len(workouts))
	counts := make(map[string]int)
	for _, w := range workouts {
		if w.CompletedAt == nil {
			continue
		}
		day := w.CompletedAt.In(loc).Format("2006-01-02")
		counts[day]++
		workoutDay[w.ID] = day
		ids = append(ids, w.ID)
	}

	sets, err := s.setRepo.ListCompletedByWorkoutIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	volumes := make(map[string]float64)
	for _, set := range sets {
		if day, ok := workoutDay[set.WorkoutID]; ok {
			volumes[day] += setVolume(set)
		}
	}

	days := make([]CalendarDay, 0, len(counts))
	for day, n := range counts {
		days = append(days, CalendarDay{Date: day, Workouts: n, VolumeKg: volumes[day]})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days, nil
}

// --- aggregation helpers ---

func setVolume(set domain.WorkoutSet) float64 {
	if set.WeightKg == nil || set.Reps == nil {
		return 0
	}
	return *set.WeightKg * float64(*set.Reps)
}

// weekStartOf returns the Monday midnight of t's week.
func weekStartOf(t time.Time) time.Time {
	day := midnightOf(t)
	shift := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -shift)
}

// epley1RM estimates a one-rep max from a weight/reps pair.
func epley1RM(weightKg float64, reps int) float64 {
	if reps <= 1 {
		return weightKg
	}
	return weightKg * (1 + float64(reps)/30)
}

// computeStreaks derives the current and longest run of consecutive
// training days. days are midnights in a single location, any order,
// duplicates allowed. The current streak only counts while it is alive,
// i.e. its most recent day is today or yesterday.
func computeStreaks(days []time.Time, today time.Time) (current, longest int) {
	if len(days) == 0 {
		return 0, 0
	}

	distinct := make(map[time.Time]bool, len(days))
	for _, d := range days {
		distinct[d] = true
	}
	sorted := make([]time.Time, 0, len(distinct))
	for d := range distinct {
		sorted = append(sorted, d)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].After(sorted[j]) })

	run := 1
	for i := 1; i <= len(sorted); i++ {
		if i < len(sorted) && sorted[i].Equal(sorted[i-1].AddDate(0, 0, -1)) {
			run++
			continue
		}
		if run > longest {
			longest = run
		}
		run = 1
	}

	if sorted[0].Equal(today) || sorted[0].Equal(today.AddDate(0, 0, -1)) {
		current = 1
		for i := 1; i < len(sorted); i++ {
			if !sorted[i].Equal(sorted[i-1].AddDate(0, 0, -1)) {
				break
			}
			current++
		}
	}
	return current, longest
}
