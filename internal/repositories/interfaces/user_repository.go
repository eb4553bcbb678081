package interfaces

import (
	"context"
	"errors"

	"teambuilder/internal/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	// ErrStoreUnavailable marks errors after which no further calls to the
	// store are expected to succeed (connectivity, credentials).
	ErrStoreUnavailable = errors.New("user store unavailable")
)

type UserRepository interface {
	// ListAll returns a snapshot of every user with at least uid, referredBy
	// and role populated.
	ListAll(ctx context.Context) ([]*models.User, error)

	GetByID(ctx context.Context, uid string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, uid string, updates map[string]interface{}) error
	Delete(ctx context.Context, uid string) error
	IncrementField(ctx context.Context, uid string, field string) error

	UpdateTeamCounts(ctx context.Context, uid string, counts models.TeamCounts) error
}
