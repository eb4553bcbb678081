package firestore

import (
	"context"
	"fmt"

	"teambuilder/internal/models"
	"teambuilder/internal/repositories/interfaces"
	"teambuilder/pkg/logger"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type userRepository struct {
	collection *firestore.CollectionRef
	logger     *logger.Logger
}

func NewUserRepository(client *firestore.Client, collection string, log *logger.Logger) interfaces.UserRepository {
	if log == nil {
		log = logger.NewNop()
	}
	return &userRepository{
		collection: client.Collection(collection),
		logger:     log.WithField("collection", collection),
	}
}

// ListAll streams the collection projected to the fields the tooling reads.
func (r *userRepository) ListAll(ctx context.Context) ([]*models.User, error) {
	iter := r.collection.
		Select(models.FieldReferredBy, models.FieldRole, models.FieldEmail).
		Documents(ctx)
	defer iter.Stop()

	var users []*models.User
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to stream users: %w", mapError(err))
		}

		user, warning, err := models.UserFromDocument(doc.Ref.ID, doc.Data())
		if err != nil {
			r.logger.WithField("doc_id", doc.Ref.ID).WithError(err).Warn("Skipping user document")
			continue
		}
		if warning != "" {
			r.logger.WithUID(user.UID).Warn(warning)
		}
		users = append(users, user)
	}

	return users, nil
}

func (r *userRepository) GetByID(ctx context.Context, uid string) (*models.User, error) {
	snap, err := r.collection.Doc(uid).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", mapError(err))
	}

	user, _, err := models.UserFromDocument(snap.Ref.ID, snap.Data())
	if err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	return user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	iter := r.collection.Where(models.FieldEmail, "==", email).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, interfaces.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", mapError(err))
	}

	user, _, err := models.UserFromDocument(doc.Ref.ID, doc.Data())
	if err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	return user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if user == nil || user.UID == "" {
		return models.ErrMissingUID
	}

	if _, err := r.collection.Doc(user.UID).Set(ctx, user); err != nil {
		return fmt.Errorf("failed to create user: %w", mapError(err))
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, uid string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}

	fields := make([]firestore.Update, 0, len(updates))
	for path, value := range updates {
		fields = append(fields, firestore.Update{Path: path, Value: value})
	}

	if _, err := r.collection.Doc(uid).Update(ctx, fields); err != nil {
		return fmt.Errorf("failed to update user: %w", mapError(err))
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, uid string) error {
	if _, err := r.collection.Doc(uid).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete user: %w", mapError(err))
	}
	return nil
}

func (r *userRepository) IncrementField(ctx context.Context, uid string, field string) error {
	_, err := r.collection.Doc(uid).Update(ctx, []firestore.Update{
		{Path: field, Value: firestore.Increment(1)},
	})
	if err != nil {
		return fmt.Errorf("failed to increment %s: %w", field, mapError(err))
	}
	return nil
}

func (r *userRepository) UpdateTeamCounts(ctx context.Context, uid string, counts models.TeamCounts) error {
	_, err := r.collection.Doc(uid).Update(ctx, []firestore.Update{
		{Path: models.FieldDirectSponsorCount, Value: counts.DirectSponsorCount},
		{Path: models.FieldTotalTeamCount, Value: counts.TotalTeamCount},
	})
	if err != nil {
		return fmt.Errorf("failed to update team counts: %w", mapError(err))
	}
	return nil
}

// mapError translates gRPC status codes into repository sentinels.
func mapError(err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%w: %v", interfaces.ErrUserNotFound, err)
	case codes.Unavailable, codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %v", interfaces.ErrStoreUnavailable, err)
	case codes.Canceled:
		return fmt.Errorf("%w: %v", context.Canceled, err)
	case codes.DeadlineExceeded:
		return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	default:
		return err
	}
}
