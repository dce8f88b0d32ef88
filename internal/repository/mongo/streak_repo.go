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

const streakCollectionName = "streaks"

// mongoStreakRepository implements repository.StreakRepository
type mongoStreakRepository struct {
	collection *mongo.Collection
}

// NewMongoStreakRepository creates a new Streak repository.
func NewMongoStreakRepository(db *mongo.Database) repository.StreakRepository {
	return &mongoStreakRepository{
		collection: db.Collection(streakCollectionName),
	}
}

// GetByUser retrieves the streak record of a user.
func (r *mongoStreakRepository) GetByUser(ctx context.Context, userID primitive.ObjectID) (*domain.Streak, error) {
	var streak domain.Streak
	err := r.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&streak)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &streak, nil
}

// Upsert writes the streak record, creating it on first use.
func (r *mongoStreakRepository) Upsert(ctx context.Context, streak *domain.Streak) error {
	if streak.UserID == primitive.NilObjectID {
		return errors.New("streak requires userId")
	}
	streak.UpdatedAt = time.Now().UTC()

	filter := bson.M{"userId": streak.UserID}
	update := bson.M{
		"$set": bson.M{
			"currentDays":    streak.CurrentDays,
			"longestDays":    streak.LongestDays,
			"lastActiveDate": streak.LastActiveDate,
			"updatedAt":      streak.UpdatedAt,
		},
	}
	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// DeleteByUser removes the streak record (account wipe).
func (r *mongoStreakRepository) DeleteByUser(ctx context.Context, userID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"userId": userID})
	return err
}

// EnsureStreakIndexes creates necessary indexes. Call during startup.
func EnsureStreakIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
