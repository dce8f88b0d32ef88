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

const workoutSetCollectionName = "workout_sets"

// mongoWorkoutSetRepository implements repository.WorkoutSetRepository
type mongoWorkoutSetRepository struct {
	collection *mongo.Collection
}

// NewMongoWorkoutSetRepository creates a new WorkoutSet repository.
func NewMongoWorkoutSetRepository(db *mongo.Database) repository.WorkoutSetRepository {
	return &mongoWorkoutSetRepository{
		collection: db.Collection(workoutSetCollectionName),
	}
}

// Create inserts a single set.
func (r *mongoWorkoutSetRepository) Create(ctx context.Context, set *domain.WorkoutSet) (primitive.ObjectID, error) {
	if set.WorkoutID == primitive.NilObjectID || set.ExerciseName == "" || set.SetIndex < 1 {
		return primitive.NilObjectID, errors.New("set requires workoutId, exerciseName and a 1-based setIndex")
	}
	if set.SetType == "" {
		set.SetType = domain.SetTypeNormal
	}
	set.ID = primitive.NewObjectID()

	result, err := r.collection.InsertOne(ctx, set)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted set ID")
	}
	return insertedID, nil
}

// CreateMany bulk-inserts the planned sets of a starting workout.
func (r *mongoWorkoutSetRepository) CreateMany(ctx context.Context, sets []domain.WorkoutSet) error {
	if len(sets) == 0 {
		return nil
	}
	docs := make([]interface{}, len(sets))
	for i := range sets {
		if sets[i].WorkoutID == primitive.NilObjectID || sets[i].ExerciseName == "" || sets[i].SetIndex < 1 {
			return errors.New("set requires workoutId, exerciseName and a 1-based setIndex")
		}
		if sets[i].SetType == "" {
			sets[i].SetType = domain.SetTypeNormal
		}
		sets[i].ID = primitive.NewObjectID()
		docs[i] = sets[i]
	}
	_, err := r.collection.InsertMany(ctx, docs)
	return err
}

// GetByID retrieves a single set by its ID.
func (r *mongoWorkoutSetRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutSet, error) {
	var set domain.WorkoutSet
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&set)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &set, nil
}

// GetByWorkoutID retrieves all sets of a workout ordered by exercise
// name and set index, matching the display grouping.
func (r *mongoWorkoutSetRepository) GetByWorkoutID(ctx context.Context, workoutID primitive.ObjectID) ([]domain.WorkoutSet, error) {
	filter := bson.M{"workoutId": workoutID}
	findOptions := options.Find().SetSort(bson.D{{Key: "exerciseName", Value: 1}, {Key: "setIndex", Value: 1}})
	return r.find(ctx, filter, findOptions)
}

// Update applies a partial update and returns the updated document.
// Only fields present in the patch are written; flipping Completed
// stamps or clears completedAt accordingly.
func (r *mongoWorkoutSetRepository) Update(ctx context.Context, id primitive.ObjectID, patch repository.SetPatch) (*domain.WorkoutSet, error) {
	set := bson.M{}
	unset := bson.M{}

	if patch.WeightKg != nil {
		set["weightKg"] = *patch.WeightKg
	}
	if patch.Reps != nil {
		set["reps"] = *patch.Reps
	}
	if patch.RPE != nil {
		set["rpe"] = *patch.RPE
	}
	if patch.SetType != nil {
		set["setType"] = *patch.SetType
	}
	if patch.Completed != nil {
		set["completed"] = *patch.Completed
		if *patch.Completed {
			set["completedAt"] = time.Now().UTC()
		} else {
			unset["completedAt"] = ""
		}
	}
	if len(set) == 0 && len(unset) == 0 {
		return r.GetByID(ctx, id)
	}

	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	var updated domain.WorkoutSet
	findOptions := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, findOptions).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &updated, nil
}

// Delete removes a set row. Indices of the remaining sets are left
// untouched; gaps are tolerated.
func (r *mongoWorkoutSetRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ListCompletedByWorkoutIDs returns completed sets across workouts.
func (r *mongoWorkoutSetRepository) ListCompletedByWorkoutIDs(ctx context.Context, workoutIDs []primitive.ObjectID) ([]domain.WorkoutSet, error) {
	if len(workoutIDs) == 0 {
		return []domain.WorkoutSet{}, nil
	}
	filter := bson.M{"workoutId": bson.M{"$in": workoutIDs}, "completed": true}
	return r.find(ctx, filter, options.Find())
}

// ListByWorkoutIDs returns every set across workouts.
func (r *mongoWorkoutSetRepository) ListByWorkoutIDs(ctx context.Context, workoutIDs []primitive.ObjectID) ([]domain.WorkoutSet, error) {
	if len(workoutIDs) == 0 {
		return []domain.WorkoutSet{}, nil
	}
	filter := bson.M{"workoutId": bson.M{"$in": workoutIDs}}
	findOptions := options.Find().SetSort(bson.D{{Key: "workoutId", Value: 1}, {Key: "exerciseName", Value: 1}, {Key: "setIndex", Value: 1}})
	return r.find(ctx, filter, findOptions)
}

// DeleteByWorkoutIDs removes all sets of the given workouts.
func (r *mongoWorkoutSetRepository) DeleteByWorkoutIDs(ctx context.Context, workoutIDs []primitive.ObjectID) error {
	if len(workoutIDs) == 0 {
		return nil
	}
	_, err := r.collection.DeleteMany(ctx, bson.M{"workoutId": bson.M{"$in": workoutIDs}})
	return err
}

func (r *mongoWorkoutSetRepository) find(ctx context.Context, filter bson.M, findOptions *options.FindOptions) ([]domain.WorkoutSet, error) {
	var sets []domain.WorkoutSet
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &sets); err != nil {
		return nil, err
	}
	return sets, nil
}

// EnsureWorkoutSetIndexes creates necessary indexes. Call during startup.
func EnsureWorkoutSetIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "workoutId", Value: 1}, {Key: "exerciseName", Value: 1}, {Key: "setIndex", Value: 1}},
			Options: options.Index(),
		},
		{
			// Volume aggregation filter
			Keys:    bson.D{{Key: "workoutId", Value: 1}, {Key: "completed", Value: 1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
