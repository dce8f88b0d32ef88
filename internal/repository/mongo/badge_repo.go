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

const (
	badgeCollectionName     = "badges"
	userBadgeCollectionName = "user_badges"
)

// mongoBadgeRepository implements repository.BadgeRepository over the
// badges and user_badges collections.
type mongoBadgeRepository struct {
	badges     *mongo.Collection
	userBadges *mongo.Collection
}

// NewMongoBadgeRepository creates a new Badge repository.
func NewMongoBadgeRepository(db *mongo.Database) repository.BadgeRepository {
	return &mongoBadgeRepository{
		badges:     db.Collection(badgeCollectionName),
		userBadges: db.Collection(userBadgeCollectionName),
	}
}

// ListAll returns every badge definition, oldest first.
func (r *mongoBadgeRepository) ListAll(ctx context.Context) ([]domain.Badge, error) {
	var badges []domain.Badge
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})

	cursor, err := r.badges.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &badges); err != nil {
		return nil, err
	}
	return badges, nil
}

// GetByID retrieves a badge definition by ID.
func (r *mongoBadgeRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Badge, error) {
	var badge domain.Badge
	err := r.badges.FindOne(ctx, bson.M{"_id": id}).Decode(&badge)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &badge, nil
}

// GetByCode retrieves a badge definition by its stable code.
func (r *mongoBadgeRepository) GetByCode(ctx context.Context, code string) (*domain.Badge, error) {
	var badge domain.Badge
	err := r.badges.FindOne(ctx, bson.M{"code": code}).Decode(&badge)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &badge, nil
}

// ListEarnedByUser returns the user's earned-badge records.
func (r *mongoBadgeRepository) ListEarnedByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.UserBadge, error) {
	var earned []domain.UserBadge
	cursor, err := r.userBadges.Find(ctx, bson.M{"userId": userID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &earned); err != nil {
		return nil, err
	}
	return earned, nil
}

// GetUserBadge returns the earned record for one user/badge pair.
func (r *mongoBadgeRepository) GetUserBadge(ctx context.Context, userID, badgeID primitive.ObjectID) (*domain.UserBadge, error) {
	var earned domain.UserBadge
	filter := bson.M{"userId": userID, "badgeId": badgeID}
	err := r.userBadges.FindOne(ctx, filter).Decode(&earned)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &earned, nil
}

// Award inserts an earned record.
func (r *mongoBadgeRepository) Award(ctx context.Context, userID, badgeID primitive.ObjectID) (*domain.UserBadge, error) {
	earned := &domain.UserBadge{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		BadgeID:   badgeID,
		AwardedAt: time.Now().UTC(),
	}
	if _, err := r.userBadges.InsertOne(ctx, earned); err != nil {
		return nil, err
	}
	return earned, nil
}

// DeleteEarnedByUser removes all earned records of a user (account wipe).
func (r *mongoBadgeRepository) DeleteEarnedByUser(ctx context.Context, userID primitive.ObjectID) error {
	_, err := r.userBadges.DeleteMany(ctx, bson.M{"userId": userID})
	return err
}

// EnsureBadgeIndexes creates necessary indexes. Call during startup.
func EnsureBadgeIndexes(ctx context.Context, badges, userBadges *mongo.Collection) {
	_, _ = badges.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	_, _ = userBadges.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			// One earned record per user/badge pair; backs award idempotency
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "badgeId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
}
