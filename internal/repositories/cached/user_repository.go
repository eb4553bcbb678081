// Package cached decorates a UserRepository with read-through caching of
// single-user lookups.
package cached

import (
	"context"
	"fmt"
	"time"

	"teambuilder/internal/models"
	"teambuilder/internal/repositories/interfaces"
)

const DefaultTTL = 15 * time.Minute

type userRepository struct {
	interfaces.UserRepository
	cache interfaces.CacheService
	ttl   time.Duration
}

func NewUserRepository(repo interfaces.UserRepository, cache interfaces.CacheService, ttl time.Duration) interfaces.UserRepository {
	if cache == nil {
		return repo
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &userRepository{
		UserRepository: repo,
		cache:          cache,
		ttl:            ttl,
	}
}

func userKey(uid string) string {
	return fmt.Sprintf("user:%s", uid)
}

func emailKey(email string) string {
	return fmt.Sprintf("user_email:%s", email)
}

func (r *userRepository) GetByID(ctx context.Context, uid string) (*models.User, error) {
	var user models.User
	if err := r.cache.Get(ctx, userKey(uid), &user); err == nil && user.UID != "" {
		return &user, nil
	}

	found, err := r.UserRepository.GetByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	_ = r.cache.Set(ctx, userKey(uid), found, r.ttl)
	return found, nil
}

// GetByEmail caches the email to uid mapping only, so invalidating the uid
// key is enough to drop stale profiles.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var uid string
	if err := r.cache.Get(ctx, emailKey(email), &uid); err == nil && uid != "" {
		if user, err := r.GetByID(ctx, uid); err == nil && user.Email == email {
			return user, nil
		}
	}

	found, err := r.UserRepository.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	_ = r.cache.Set(ctx, emailKey(email), found.UID, r.ttl)
	_ = r.cache.Set(ctx, userKey(found.UID), found, r.ttl)
	return found, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.UserRepository.Create(ctx, user); err != nil {
		return err
	}
	r.invalidate(ctx, user.UID)
	return nil
}

func (r *userRepository) Update(ctx context.Context, uid string, updates map[string]interface{}) error {
	defer r.invalidate(ctx, uid)
	return r.UserRepository.Update(ctx, uid, updates)
}

func (r *userRepository) Delete(ctx context.Context, uid string) error {
	defer r.invalidate(ctx, uid)
	return r.UserRepository.Delete(ctx, uid)
}

func (r *userRepository) IncrementField(ctx context.Context, uid string, field string) error {
	defer r.invalidate(ctx, uid)
	return r.UserRepository.IncrementField(ctx, uid, field)
}

func (r *userRepository) UpdateTeamCounts(ctx context.Context, uid string, counts models.TeamCounts) error {
	defer r.invalidate(ctx, uid)
	return r.UserRepository.UpdateTeamCounts(ctx, uid, counts)
}

func (r *userRepository) invalidate(ctx context.Context, uid string) {
	_ = r.cache.Delete(ctx, userKey(uid))
}
