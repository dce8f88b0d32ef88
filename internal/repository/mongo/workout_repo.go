package mongo

import (
	"context"
	"errors"
	"time"

	"pulseapp/pulse/internal/domain"
	"pulseapp/pulse/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const workoutCollectionName = "workouts"

// mongoWorkoutRepository implements repository.WorkoutRepository
type mongoWorkoutRepository struct {
	collection *mongo.Collection
}

// NewMongoWorkoutRepository creates a new Workout repository.
func NewMongoWorkoutRepository(db *mongo.Database) repository.WorkoutRepository {
	return &mongoWorkoutRepository{
		collection: db.Collection(workoutCollectionName),
	}
}

// Create inserts a new workout.
func (r *mongoWorkoutRepository) Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error) {
	if workout.UserID == primitive.NilObjectID || workout.Name == "" {
		return primitive.NilObjectID, errors.New("workout requires userId and name")
	}
	if workout.Status == "" {
		workout.Status = domain.WorkoutInProgress
	}
	workout.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	if workout.StartedAt.IsZero() {
		workout.StartedAt = now
	}
	workout.CreatedAt = now

	result, err := r.collection.InsertOne(ctx, workout)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted workout ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single workout by its ID.
func (r *mongoWorkoutRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error) {
	var workout domain.Workout
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&workout)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &workout, nil
}

// GetActiveByUser retrieves the user's in_progress workout, if any.
// There should be at most one; if concurrent starts ever slipped a
// duplicate through, the oldest wins.
func (r *mongoWorkoutRepository) GetActiveByUser(ctx context.Context, userID primitive.ObjectID) (*domain.Workout, error) {
	var workout domain.Workout
	filter := bson.M{"userId": userID, "status": domain.WorkoutInProgress}
	findOptions := options.FindOne().SetSort(bson.D{{Key: "startedAt", Value: 1}})

	err := r.collection.FindOne(ctx, filter, findOptions).Decode(&workout)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &workout, nil
}

// Finish transitions an in_progress workout to completed or cancelled.
// The status filter makes the transition one-way: a terminal workout is
// never matched, so repeated finishes report ErrNotFound.
func (r *mongoWorkoutRepository) Finish(ctx context.Context, id primitive.ObjectID, status domain.WorkoutStatus, completedAt time.Time, durationSeconds *int) error {
	if status != domain.WorkoutCompleted && status != domain.WorkoutCancelled {
		return errors.New("finish requires a terminal status")
	}
	filter := bson.M{"_id": id, "status": domain.WorkoutInProgress}
	set := bson.M{
		"status":      status,
		"completedAt": completedAt,
	}
	if durationSeconds != nil {
		set["durationSeconds"] = *durationSeconds
	}

	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ListCompletedByUser returns completed workouts newest first. A zero
// limit means no limit.
func (r *mongoWorkoutRepository) ListCompletedByUser(ctx context.Context, userID primitive.ObjectID, limit int) ([]domain.Workout, error) {
	filter := bson.M{"userId": userID, "status": domain.WorkoutCompleted}
	findOptions := options.Find().SetSort(bson.D{{Key: "completedAt", Value: -1}})
	if limit > 0 {
		findOptions.SetLimit(int64(limit))
	}
	return r.find(ctx, filter, findOptions)
}

// ListCompletedInRange returns completed workouts with completedAt in
// [from, to), oldest first. A zero `to` means unbounded.
func (r *mongoWorkoutRepository) ListCompletedInRange(ctx context.Context, userID primitive.ObjectID, from, to time.Time) ([]domain.Workout, error) {
	completedAt := bson.M{"$gte": from}
	if !to.IsZero() {
		completedAt["$lt"] = to
	}
	filter := bson.M{
		"userId":      userID,
		"status":      domain.WorkoutCompleted,
		"completedAt": completedAt,
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "completedAt", Value: 1}})
	return r.find(ctx, filter, findOptions)
}

// LastCompleted returns the most recently completed workout.
func (r *mongoWorkoutRepository) LastCompleted(ctx context.Context, userID primitive.ObjectID) (*domain.Workout, error) {
	var workout domain.Workout
	filter := bson.M{"userId": userID, "status": domain.WorkoutCompleted}
	findOptions := options.FindOne().SetSort(bson.D{{Key: "completedAt", Value: -1}})

	err := r.collection.FindOne(ctx, filter, findOptions).Decode(&workout)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &workout, nil
}

// ListIDsByUser returns the IDs of every workout of a user, regardless
// of status. Used by the account wipe to find dependent sets.
func (r *mongoWorkoutRepository) ListIDsByUser(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	findOptions := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids, nil
}

// DeleteByUser hard-deletes every workout of a user (account wipe).
func (r *mongoWorkoutRepository) DeleteByUser(ctx context.Context, userID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"userId": userID})
	return err
}

func (r *mongoWorkoutRepository) find(ctx context.Context, filter bson.M, findOptions *options.FindOptions) ([]domain.Workout, error) {
	var workouts []domain.Workout
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &workouts); err != nil {
		return nil, err
	}
	return workouts, nil
}

// EnsureWorkoutIndexes creates necessary indexes. Call during startup.
func EnsureWorkoutIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// Active-workout lookup on every session-manager load
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index(),
		},
		{
			// Analytics range scans over completed workouts
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "completedAt", Value: -1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
