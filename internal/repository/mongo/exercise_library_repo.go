package mongo

import (
	"context"
	"errors"

	"pulseapp/pulse/internal/domain"
	"pulseapp/pulse/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const exerciseLibraryCollectionName = "exercise_library"

// mongoExerciseLibraryRepository implements repository.ExerciseLibraryRepository
type mongoExerciseLibraryRepository struct {
	collection *mongo.Collection
}

// NewMongoExerciseLibraryRepository creates a new ExerciseLibrary repository.
func NewMongoExerciseLibraryRepository(db *mongo.Database) repository.ExerciseLibraryRepository {
	return &mongoExerciseLibraryRepository{
		collection: db.Collection(exerciseLibraryCollectionName),
	}
}

// GetByID retrieves a catalogue entry by ID.
func (r *mongoExerciseLibraryRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ExerciseLibraryItem, error) {
	var item domain.ExerciseLibraryItem
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// ListByEquipment returns catalogue entries matching any of the given
// equipment values. An empty filter returns the whole catalogue.
func (r *mongoExerciseLibraryRepository) ListByEquipment(ctx context.Context, equipment []string) ([]domain.ExerciseLibraryItem, error) {
	filter := bson.M{}
	if len(equipment) > 0 {
		filter["equipment"] = bson.M{"$in": equipment}
	}

	var items []domain.ExerciseLibraryItem
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// EnsureExerciseLibraryIndexes creates necessary indexes. Call during startup.
func EnsureExerciseLibraryIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "equipment", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
