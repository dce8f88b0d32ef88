package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"pulseapp/pulse/internal/domain"
	"pulseapp/pulse/internal/repository"
	"pulseapp/pulse/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrEmptyImport is returned when an uploaded CSV contains no usable rows.
var ErrEmptyImport = errors.New("import file contains no usable rows")

// lbsPerKg converts imported pound values to kilograms.
const lbsPerKg = 2.20462

// csvColumns is the fixed export column order. Imports match columns by
// header name and tolerate any order and extra columns.
var csvColumns = []string{
	"title", "start_time", "end_time", "exercise_title",
	"set_index", "set_type", "weight_kg", "weight_lbs", "reps", "rpe",
}

// Accepted timestamp layouts for imported files, tried in order.
var importTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"02 Jan 2006, 15:04",
}

// ImportSummary reports what an import produced.
type ImportSummary struct {
	WorkoutsCreated int `json:"workoutsCreated"`
	SetsCreated     int `json:"setsCreated"`
	SkippedRows     int `json:"skippedRows"`
}

// ExportArchive is a stored export with its temporary download link.
type ExportArchive struct {
	ObjectKey   string `json:"objectKey"`
	DownloadURL string `json:"downloadUrl"`
	Rows        int    `json:"rows"`
}

// TransferService moves workout history in and out as CSV. The row
// schema follows the common tracker-export convention: one row per set,
// workouts identified by (title, start_time).
type TransferService interface {
	// ImportCSV parses the file and writes completed workouts with their
	// sets. Weight prefers the weight_kg column; weight_lbs is converted
	// at 2.20462 and rounded to two decimals. Incoming set indices are
	// 0-based and normalized to 1-based.
	ImportCSV(ctx context.Context, userID primitive.ObjectID, r io.Reader) (*ImportSummary, error)
	// ExportCSV streams the user's completed workouts, one row per set,
	// and returns the number of data rows written.
	ExportCSV(ctx context.Context, userID primitive.ObjectID, w io.Writer) (int, error)
	// ExportToArchive writes the export to object storage and returns a
	// presigned download URL.
	ExportToArchive(ctx context.Context, userID primitive.ObjectID) (*ExportArchive, error)
}

type transferService struct {
	workoutRepo repository.WorkoutRepository
	setRepo     repository.WorkoutSetRepository
	files       storage.FileStorage // nil disables archive exports
}

// NewTransferService creates a new instance of transferService.
func NewTransferService(workoutRepo repository.WorkoutRepository, setRepo repository.WorkoutSetRepository, files storage.FileStorage) TransferService {
	return &transferService{
		workoutRepo: workoutRepo,
		setRepo:     setRepo,
		files:       files,
	}
}

// --- import ---

type importedWorkout struct {
	title     string
	startedAt time.Time
	endedAt   time.Time
	sets      []domain.WorkoutSet
}

func (s *transferService) ImportCSV(ctx context.Context, userID primitive.ObjectID, r io.Reader) (*ImportSummary, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // ragged rows are skipped per-row, not fatal
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, ErrEmptyImport
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := col["exercise_title"]; !ok {
		return nil, ErrInvalidInput
	}

	field := func(record []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	summary := &ImportSummary{}
	groups := make(map[string]*importedWorkout)
	var order []string

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			summary.SkippedRows++
			continue
		}

		exercise := field(record, "exercise_title")
		startRaw := field(record, "start_time")
		if exercise == "" || startRaw == "" {
			summary.SkippedRows++
			continue
		}
		startedAt, err := parseImportTime(startRaw)
		if err != nil {
			summary.SkippedRows++
			continue
		}

		title := field(record, "title")
		if title == "" {
			title = "Imported workout"
		}
		key := title + "|" + startRaw
		group, ok := groups[key]
		if !ok {
			group = &importedWorkout{title: title, startedAt: startedAt, endedAt: startedAt}
			groups[key] = group
			order = append(order, key)
		}
		if endedAt, err := parseImportTime(field(record, "end_time")); err == nil && endedAt.After(group.endedAt) {
			group.endedAt = endedAt
		}

		group.sets = append(group.sets, buildImportedSet(record, field, exercise, group))
		summary.SetsCreated++
	}

	if len(order) == 0 {
		return nil, ErrEmptyImport
	}

	for _, key := range order {
		group := groups[key]
		duration := int(group.endedAt.Sub(group.startedAt).Seconds())
		completedAt := group.endedAt

		workout := &domain.Workout{
			UserID:          userID,
			Name:            group.title,
			Status:          domain.WorkoutCompleted,
			StartedAt:       group.startedAt.UTC(),
			CompletedAt:     &completedAt,
			DurationSeconds: &duration,
		}
		workoutID, err := s.workoutRepo.Create(ctx, workout)
		if err != nil {
			return nil, err
		}
		for i := range group.sets {
			group.sets[i].WorkoutID = workoutID
		}
		if err := s.setRepo.CreateMany(ctx, group.sets); err != nil {
			return nil, err
		}
		summary.WorkoutsCreated++
	}
	return summary, nil
}

func buildImportedSet(record []string, field func([]string, string) string, exercise string, group *importedWorkout) domain.WorkoutSet {
	set := domain.WorkoutSet{
		ExerciseName: exercise,
		Completed:    true,
		SetType:      domain.NormalizeSetType(field(record, "set_type")),
	}
	completedAt := group.endedAt
	set.CompletedAt = &completedAt

	// Incoming indices are 0-based; fall back to position within the
	// exercise when the column is absent or malformed.
	if idx, err := strconv.Atoi(field(record, "set_index")); err == nil && idx >= 0 {
		set.SetIndex = idx + 1
	} else {
		count := 0
		for _, prev := range group.sets {
			if prev.ExerciseName == exercise {
				count++
			}
		}
		set.SetIndex = count + 1
	}

	// Kilograms win when both weight columns are present.
	if kg, err := strconv.ParseFloat(field(record, "weight_kg"), 64); err == nil {
		set.WeightKg = &kg
	} else if lbs, err := strconv.ParseFloat(field(record, "weight_lbs"), 64); err == nil {
		kg := math.Round(lbs/lbsPerKg*100) / 100
		set.WeightKg = &kg
	}
	if reps, err := strconv.Atoi(field(record, "reps")); err == nil && reps >= 0 {
		set.Reps = &reps
	}
	if rpe, err := strconv.ParseFloat(field(record, "rpe"), 64); err == nil && rpe >= 1 && rpe <= 10 {
		set.RPE = &rpe
	}
	return set
}

func parseImportTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	for _, layout := range importTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}

// --- export ---

func (s *transferService) ExportCSV(ctx context.Context, userID primitive.ObjectID, w io.Writer) (int, error) {
	workouts, err := s.workoutRepo.ListCompletedByUser(ctx, userID, 0)
	if err != nil {
		return 0, err
	}

	ids := make([]primitive.ObjectID, len(workouts))
	for i := range workouts {
		ids[i] = workouts[i].ID
	}
	sets, err := s.setRepo.ListByWorkoutIDs(ctx, ids)
	if err != nil {
		return 0, err
	}
	byWorkout := make(map[primitive.ObjectID][]domain.WorkoutSet, len(workouts))
	for _, set := range sets {
		byWorkout[set.WorkoutID] = append(byWorkout[set.WorkoutID], set)
	}

	// csv.Writer quotes fields containing commas, quotes or newlines and
	// doubles embedded quotes.
	writer := csv.NewWriter(w)
	if err := writer.Write(csvColumns); err != nil {
		return 0, err
	}

	rows := 0
	// Oldest workout first; ListCompletedByUser is newest first.
	for i := len(workouts) - 1; i >= 0; i-- {
		workout := &workouts[i]
		for _, set := range byWorkout[workout.ID] {
			if err := writer.Write(exportRow(workout, set)); err != nil {
				return rows, err
			}
			rows++
		}
	}
	writer.Flush()
	return rows, writer.Error()
}

func exportRow(workout *domain.Workout, set domain.WorkoutSet) []string {
	endTime := ""
	if workout.CompletedAt != nil {
		endTime = workout.CompletedAt.UTC().Format(time.RFC3339)
	}
	weightKg, weightLbs := "", ""
	if set.WeightKg != nil {
		weightKg = strconv.FormatFloat(*set.WeightKg, 'f', -1, 64)
		weightLbs = strconv.FormatFloat(math.Round(*set.WeightKg*lbsPerKg*100)/100, 'f', -1, 64)
	}
	reps := ""
	if set.Reps != nil {
		reps = strconv.Itoa(*set.Reps)
	}
	rpe := ""
	if set.RPE != nil {
		rpe = strconv.FormatFloat(*set.RPE, 'f', -1, 64)
	}

	return []string{
		workout.Name,
		workout.StartedAt.UTC().Format(time.RFC3339),
		endTime,
		set.ExerciseName,
		strconv.Itoa(set.SetIndex - 1), // exported indices are 0-based
		string(set.SetType),
		weightKg,
		weightLbs,
		reps,
		rpe,
	}
}

func (s *transferService) ExportToArchive(ctx context.Context, userID primitive.ObjectID) (*ExportArchive, error) {
	if s.files == nil {
		return nil, errors.New("archive storage is not configured")
	}

	var buf strings.Builder
	rows, err := s.ExportCSV(ctx, userID, &buf)
	if err != nil {
		return nil, err
	}

	objectKey := fmt.Sprintf("exports/%s/%s.csv", userID.Hex(), uuid.New().String())
	if err := s.files.Upload(ctx, objectKey, "text/csv", strings.NewReader(buf.String())); err != nil {
		return nil, err
	}
	url, err := s.files.GeneratePresignedDownloadURL(ctx, objectKey, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, err
	}
	return &ExportArchive{ObjectKey: objectKey, DownloadURL: url, Rows: rows}, nil
}
