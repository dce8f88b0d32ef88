package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"pulseapp/pulse/internal/domain"
	"pulseapp/pulse/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repository fakes mirroring the mongo implementations'
// semantics (ordering, one-way transitions, patch stamping).

// --- workouts ---

type fakeWorkoutRepo struct {
	workouts map[primitive.ObjectID]*domain.Workout
}

func newFakeWorkoutRepo() *fakeWorkoutRepo {
	return &fakeWorkoutRepo{workouts: make(map[primitive.ObjectID]*domain.Workout)}
}

func (f *fakeWorkoutRepo) Create(_ context.Context, workout *domain.Workout) (primitive.ObjectID, error) {
	w := *workout
	w.ID = primitive.NewObjectID()
	w.CreatedAt = time.Now().UTC()
	f.workouts[w.ID] = &w
	return w.ID, nil
}

func (f *fakeWorkoutRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Workout, error) {
	w, ok := f.workouts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *w
	return &copy, nil
}

func (f *fakeWorkoutRepo) GetActiveByUser(_ context.Context, userID primitive.ObjectID) (*domain.Workout, error) {
	var found *domain.Workout
	for _, w := range f.workouts {
		if w.UserID != userID || w.Status != domain.WorkoutInProgress {
			continue
		}
		if found == nil || w.StartedAt.Before(found.StartedAt) {
			found = w
		}
	}
	if found == nil {
		return nil, repository.ErrNotFound
	}
	copy := *found
	return &copy, nil
}

func (f *fakeWorkoutRepo) Finish(_ context.Context, id primitive.ObjectID, status domain.WorkoutStatus, completedAt time.Time, durationSeconds *int) error {
	w, ok := f.workouts[id]
	if !ok || w.Status != domain.WorkoutInProgress {
		return repository.ErrNotFound
	}
	w.Status = status
	at := completedAt
	w.CompletedAt = &at
	w.DurationSeconds = durationSeconds
	return nil
}

func (f *fakeWorkoutRepo) ListCompletedByUser(_ context.Context, userID primitive.ObjectID, limit int) ([]domain.Workout, error) {
	var out []domain.Workout
	for _, w := range f.workouts {
		if w.UserID == userID && w.Status == domain.WorkoutCompleted {
			out = append(out, *w)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CompletedAt.After(*out[j].CompletedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeWorkoutRepo) ListCompletedInRange(_ context.Context, userID primitive.ObjectID, from, to time.Time) ([]domain.Workout, error) {
	var out []domain.Workout
	for _, w := range f.workouts {
		if w.UserID != userID || w.Status != domain.WorkoutCompleted || w.CompletedAt == nil {
			continue
		}
		if w.CompletedAt.Before(from) {
			continue
		}
		if !to.IsZero() && !w.CompletedAt.Before(to) {
			continue
		}
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CompletedAt.Before(*out[j].CompletedAt)
	})
	return out, nil
}

func (f *fakeWorkoutRepo) LastCompleted(ctx context.Context, userID primitive.ObjectID) (*domain.Workout, error) {
	list, _ := f.ListCompletedByUser(ctx, userID, 1)
	if len(list) == 0 {
		return nil, repository.ErrNotFound
	}
	return &list[0], nil
}

func (f *fakeWorkoutRepo) ListIDsByUser(_ context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	var ids []primitive.ObjectID
	for id, w := range f.workouts {
		if w.UserID == userID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakeWorkoutRepo) DeleteByUser(_ context.Context, userID primitive.ObjectID) error {
	for id, w := range f.workouts {
		if w.UserID == userID {
			delete(f.workouts, id)
		}
	}
	return nil
}

// --- workout sets ---

type fakeSetRepo struct {
	sets map[primitive.ObjectID]*domain.WorkoutSet
}

func newFakeSetRepo() *fakeSetRepo {
	return &fakeSetRepo{sets: make(map[primitive.ObjectID]*domain.WorkoutSet)}
}

func (f *fakeSetRepo) Create(_ context.Context, set *domain.WorkoutSet) (primitive.ObjectID, error) {
	s := *set
	s.ID = primitive.NewObjectID()
	f.sets[s.ID] = &s
	return s.ID, nil
}

func (f *fakeSetRepo) CreateMany(ctx context.Context, sets []domain.WorkoutSet) error {
	for i := range sets {
		if _, err := f.Create(ctx, &sets[i]); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeSetRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.WorkoutSet, error) {
	s, ok := f.sets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *s
	return &copy, nil
}

func (f *fakeSetRepo) GetByWorkoutID(_ context.Context, workoutID primitive.ObjectID) ([]domain.WorkoutSet, error) {
	var out []domain.WorkoutSet
	for _, s := range f.sets {
		if s.WorkoutID == workoutID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ExerciseName != out[j].ExerciseName {
			return out[i].ExerciseName < out[j].ExerciseName
		}
		return out[i].SetIndex < out[j].SetIndex
	})
	return out, nil
}

func (f *fakeSetRepo) Update(_ context.Context, id primitive.ObjectID, patch repository.SetPatch) (*domain.WorkoutSet, error) {
	s, ok := f.sets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if patch.WeightKg != nil {
		s.WeightKg = patch.WeightKg
	}
	if patch.Reps != nil {
		s.Reps = patch.Reps
	}
	if patch.RPE != nil {
		s.RPE = patch.RPE
	}
	if patch.SetType != nil {
		s.SetType = *patch.SetType
	}
	if patch.Completed != nil {
		s.Completed = *patch.Completed
		if *patch.Completed {
			now := time.Now().UTC()
			s.CompletedAt = &now
		} else {
			s.CompletedAt = nil
		}
	}
	copy := *s
	return &copy, nil
}

func (f *fakeSetRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := f.sets[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.sets, id)
	return nil
}

func (f *fakeSetRepo) ListCompletedByWorkoutIDs(ctx context.Context, workoutIDs []primitive.ObjectID) ([]domain.WorkoutSet, error) {
	all, err := f.ListByWorkoutIDs(ctx, workoutIDs)
	if err != nil {
		return nil, err
	}
	var out []domain.WorkoutSet
	for _, s := range all {
		if s.Completed {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSetRepo) ListByWorkoutIDs(_ context.Context, workoutIDs []primitive.ObjectID) ([]domain.WorkoutSet, error) {
	wanted := make(map[primitive.ObjectID]bool, len(workoutIDs))
	for _, id := range workoutIDs {
		wanted[id] = true
	}
	var out []domain.WorkoutSet
	for _, s := range f.sets {
		if wanted[s.WorkoutID] {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeSetRepo) DeleteByWorkoutIDs(_ context.Context, workoutIDs []primitive.ObjectID) error {
	wanted := make(map[primitive.ObjectID]bool, len(workoutIDs))
	for _, id := range workoutIDs {
		wanted[id] = true
	}
	for id, s := range f.sets {
		if wanted[s.WorkoutID] {
			delete(f.sets, id)
		}
	}
	return nil
}

// --- routines ---

type fakeRoutineRepo struct {
	routines map[primitive.ObjectID]*domain.Routine
}

func newFakeRoutineRepo() *fakeRoutineRepo {
	return &fakeRoutineRepo{routines: make(map[primitive.ObjectID]*domain.Routine)}
}

func (f *fakeRoutineRepo) Create(_ context.Context, routine *domain.Routine) (primitive.ObjectID, error) {
	r := *routine
	r.ID = primitive.NewObjectID()
	r.CreatedAt = time.Now().UTC()
	r.UpdatedAt = r.CreatedAt
	f.routines[r.ID] = &r
	return r.ID, nil
}

func (f *fakeRoutineRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Routine, error) {
	r, ok := f.routines[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *r
	return &copy, nil
}

func (f *fakeRoutineRepo) GetActiveByUser(_ context.Context, userID primitive.ObjectID) ([]domain.Routine, error) {
	var out []domain.Routine
	for _, r := range f.routines {
		if r.UserID == userID && r.IsActive {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeRoutineRepo) Update(_ context.Context, routine *domain.Routine) error {
	if _, ok := f.routines[routine.ID]; !ok {
		return repository.ErrNotFound
	}
	r := *routine
	r.UpdatedAt = time.Now().UTC()
	f.routines[routine.ID] = &r
	return nil
}

func (f *fakeRoutineRepo) SetActive(_ context.Context, id, userID primitive.ObjectID, active bool) error {
	r, ok := f.routines[id]
	if !ok || r.UserID != userID {
		return repository.ErrNotFound
	}
	r.IsActive = active
	return nil
}

func (f *fakeRoutineRepo) DeleteByUser(_ context.Context, userID primitive.ObjectID) error {
	for id, r := range f.routines {
		if r.UserID == userID {
			delete(f.routines, id)
		}
	}
	return nil
}

// --- badges ---

type userBadgeKey struct {
	userID  primitive.ObjectID
	badgeID primitive.ObjectID
}

type fakeBadgeRepo struct {
	badges []domain.Badge
	earned map[userBadgeKey]*domain.UserBadge
}

func newFakeBadgeRepo(badges ...domain.Badge) *fakeBadgeRepo {
	for i := range badges {
		if badges[i].ID.IsZero() {
			badges[i].ID = primitive.NewObjectID()
		}
	}
	return &fakeBadgeRepo{
		badges: badges,
		earned: make(map[userBadgeKey]*domain.UserBadge),
	}
}

func (f *fakeBadgeRepo) ListAll(_ context.Context) ([]domain.Badge, error) {
	return append([]domain.Badge(nil), f.badges...), nil
}

func (f *fakeBadgeRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Badge, error) {
	for i := range f.badges {
		if f.badges[i].ID == id {
			copy := f.badges[i]
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeBadgeRepo) GetByCode(_ context.Context, code string) (*domain.Badge, error) {
	for i := range f.badges {
		if f.badges[i].Code == code {
			copy := f.badges[i]
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeBadgeRepo) ListEarnedByUser(_ context.Context, userID primitive.ObjectID) ([]domain.UserBadge, error) {
	var out []domain.UserBadge
	for key, ub := range f.earned {
		if key.userID == userID {
			out = append(out, *ub)
		}
	}
	return out, nil
}

func (f *fakeBadgeRepo) GetUserBadge(_ context.Context, userID, badgeID primitive.ObjectID) (*domain.UserBadge, error) {
	ub, ok := f.earned[userBadgeKey{userID, badgeID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *ub
	return &copy, nil
}

func (f *fakeBadgeRepo) Award(_ context.Context, userID, badgeID primitive.ObjectID) (*domain.UserBadge, error) {
	key := userBadgeKey{userID, badgeID}
	if _, ok := f.earned[key]; ok {
		// Mirrors the unique index on (userId, badgeId).
		return nil, errors.New("duplicate key error")
	}
	ub := &domain.UserBadge{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		BadgeID:   badgeID,
		AwardedAt: time.Now().UTC(),
	}
	f.earned[key] = ub
	copy := *ub
	return &copy, nil
}

func (f *fakeBadgeRepo) DeleteEarnedByUser(_ context.Context, userID primitive.ObjectID) error {
	for key := range f.earned {
		if key.userID == userID {
			delete(f.earned, key)
		}
	}
	return nil
}

// --- streaks ---

type fakeStreakRepo struct {
	streaks map[primitive.ObjectID]*domain.Streak
}

func newFakeStreakRepo() *fakeStreakRepo {
	return &fakeStreakRepo{streaks: make(map[primitive.ObjectID]*domain.Streak)}
}

func (f *fakeStreakRepo) GetByUser(_ context.Context, userID primitive.ObjectID) (*domain.Streak, error) {
	s, ok := f.streaks[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *s
	return &copy, nil
}

func (f *fakeStreakRepo) Upsert(_ context.Context, streak *domain.Streak) error {
	s := *streak
	s.UpdatedAt = time.Now().UTC()
	f.streaks[streak.UserID] = &s
	return nil
}

func (f *fakeStreakRepo) DeleteByUser(_ context.Context, userID primitive.ObjectID) error {
	delete(f.streaks, userID)
	return nil
}

// --- users ---

type fakeUserRepo struct {
	users map[primitive.ObjectID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]*domain.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	for _, u := range f.users {
		if u.Email == user.Email {
			return primitive.NilObjectID, errors.New("duplicate key error")
		}
	}
	u := *user
	u.ID = primitive.NewObjectID()
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	f.users[u.ID] = &u
	return u.ID, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *u
	return &copy, nil
}

func (f *fakeUserRepo) UpdateProfile(_ context.Context, id primitive.ObjectID, profile domain.Profile) error {
	u, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Profile = profile
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := f.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

// --- workout plans ---

type fakePlanRepo struct {
	plans map[primitive.ObjectID]*domain.WorkoutPlan
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{plans: make(map[primitive.ObjectID]*domain.WorkoutPlan)}
}

func (f *fakePlanRepo) Create(_ context.Context, plan *domain.WorkoutPlan) (primitive.ObjectID, error) {
	p := *plan
	p.ID = primitive.NewObjectID()
	p.CreatedAt = time.Now().UTC()
	f.plans[p.ID] = &p
	return p.ID, nil
}

func (f *fakePlanRepo) GetActiveByUser(_ context.Context, userID primitive.ObjectID) (*domain.WorkoutPlan, error) {
	for _, p := range f.plans {
		if p.UserID == userID && p.IsActive {
			copy := *p
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakePlanRepo) DeactivateOthers(_ context.Context, userID, excludePlanID primitive.ObjectID) error {
	for _, p := range f.plans {
		if p.UserID == userID && p.ID != excludePlanID {
			p.IsActive = false
		}
	}
	return nil
}

func (f *fakePlanRepo) DeleteByUser(_ context.Context, userID primitive.ObjectID) error {
	for id, p := range f.plans {
		if p.UserID == userID {
			delete(f.plans, id)
		}
	}
	return nil
}

// --- exercise library ---

type fakeLibraryRepo struct {
	items []domain.ExerciseLibraryItem
}

func newFakeLibraryRepo(items ...domain.ExerciseLibraryItem) *fakeLibraryRepo {
	return &fakeLibraryRepo{items: items}
}

func (f *fakeLibraryRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.ExerciseLibraryItem, error) {
	for _, item := range f.items {
		if item.ID == id {
			copy := item
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeLibraryRepo) ListByEquipment(_ context.Context, equipment []string) ([]domain.ExerciseLibraryItem, error) {
	if len(equipment) == 0 {
		return append([]domain.ExerciseLibraryItem(nil), f.items...), nil
	}
	allowed := make(map[string]bool, len(equipment))
	for _, e := range equipment {
		allowed[e] = true
	}
	var out []domain.ExerciseLibraryItem
	for _, item := range f.items {
		if allowed[item.Equipment] {
			out = append(out, item)
		}
	}
	return out, nil
}
