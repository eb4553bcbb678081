package mongodb

import (
	"context"
	"errors"
	"fmt"

	"teambuilder/internal/models"
	"teambuilder/internal/repositories/interfaces"
	"teambuilder/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type userRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewUserRepository(db *mongo.Database, collection string, log *logger.Logger) interfaces.UserRepository {
	if log == nil {
		log = logger.NewNop()
	}
	return &userRepository{
		collection: db.Collection(collection),
		logger:     log.WithField("collection", collection),
	}
}

func (r *userRepository) ListAll(ctx context.Context) ([]*models.User, error) {
	opts := options.Find().SetProjection(bson.M{
		models.FieldReferredBy: 1,
		models.FieldRole:       1,
		models.FieldEmail:      1,
	})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", mapError(err))
	}
	defer cursor.Close(ctx)

	var users []*models.User
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode user: %w", err)
		}

		user, warning, err := decodeUser(doc)
		if err != nil {
			r.logger.WithField("doc_id", doc["_id"]).WithError(err).Warn("Skipping user document")
			continue
		}
		if warning != "" {
			r.logger.WithUID(user.UID).Warn(warning)
		}
		users = append(users, user)
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", mapError(err))
	}

	return users, nil
}

func (r *userRepository) GetByID(ctx context.Context, uid string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": uid})
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{models.FieldEmail: email})
}

func (r *userRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc bson.M
	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, interfaces.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", mapError(err))
	}

	user, _, err := decodeUser(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	return user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if user == nil || user.UID == "" {
		return models.ErrMissingUID
	}

	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": user.UID}, user, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to create user: %w", mapError(err))
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, uid string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return r.updateOne(ctx, uid, bson.M{"$set": updates}, "update user")
}

func (r *userRepository) Delete(ctx context.Context, uid string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": uid})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", mapError(err))
	}
	if result.DeletedCount == 0 {
		return interfaces.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) IncrementField(ctx context.Context, uid string, field string) error {
	return r.updateOne(ctx, uid, bson.M{"$inc": bson.M{field: 1}}, "increment "+field)
}

func (r *userRepository) UpdateTeamCounts(ctx context.Context, uid string, counts models.TeamCounts) error {
	return r.updateOne(ctx, uid, bson.M{"$set": counts}, "update team counts")
}

func (r *userRepository) updateOne(ctx context.Context, uid string, update bson.M, action string) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": uid}, update)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", action, mapError(err))
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrUserNotFound
	}
	return nil
}

func decodeUser(doc bson.M) (*models.User, string, error) {
	id, _ := doc["_id"].(string)
	return models.UserFromDocument(id, doc)
}

func mapError(err error) error {
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) || errors.Is(err, mongo.ErrClientDisconnected) {
		return fmt.Errorf("%w: %v", interfaces.ErrStoreUnavailable, err)
	}
	return err
}
