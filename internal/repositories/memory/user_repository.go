// Package memory holds an in-process user store. It backs tests and local
// runs against a JSON export of the users collection.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"teambuilder/internal/models"
	"teambuilder/internal/repositories/interfaces"
)

type UserRepository struct {
	mu    sync.RWMutex
	order []string
	docs  map[string]map[string]interface{}
}

func NewUserRepository(users ...*models.User) *UserRepository {
	r := &UserRepository{docs: make(map[string]map[string]interface{})}
	for _, u := range users {
		_ = r.Create(context.Background(), u)
	}
	return r
}

// LoadUserRepository reads a JSON object keyed by uid, the shape produced by
// exporting the users collection.
func LoadUserRepository(path string) (*UserRepository, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var docs map[string]map[string]interface{}
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	r := &UserRepository{docs: make(map[string]map[string]interface{}, len(docs))}
	for uid, data := range docs {
		r.order = append(r.order, uid)
		r.docs[uid] = data
	}
	sort.Strings(r.order)
	return r, nil
}

func (r *UserRepository) ListAll(ctx context.Context) ([]*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]*models.User, 0, len(r.order))
	for _, uid := range r.order {
		u, _, err := models.UserFromDocument(uid, r.docs[uid])
		if err != nil {
			continue
		}
		users = append(users, u)
	}
	return users, nil
}

func (r *UserRepository) GetByID(ctx context.Context, uid string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data, ok := r.docs[uid]
	if !ok {
		return nil, interfaces.ErrUserNotFound
	}
	u, _, err := models.UserFromDocument(uid, data)
	return u, err
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, uid := range r.order {
		if e, _ := r.docs[uid][models.FieldEmail].(string); e == email {
			u, _, err := models.UserFromDocument(uid, r.docs[uid])
			return u, err
		}
	}
	return nil, interfaces.ErrUserNotFound
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user == nil || user.UID == "" {
		return models.ErrMissingUID
	}

	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.docs[user.UID]; !exists {
		r.order = append(r.order, user.UID)
	}
	r.docs[user.UID] = data
	return nil
}

func (r *UserRepository) Update(ctx context.Context, uid string, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, ok := r.docs[uid]
	if !ok {
		return interfaces.ErrUserNotFound
	}
	for k, v := range updates {
		data[k] = v
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, uid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.docs[uid]; !ok {
		return interfaces.ErrUserNotFound
	}
	delete(r.docs, uid)
	for i, id := range r.order {
		if id == uid {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *UserRepository) IncrementField(ctx context.Context, uid string, field string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, ok := r.docs[uid]
	if !ok {
		return interfaces.ErrUserNotFound
	}
	switch v := data[field].(type) {
	case nil:
		data[field] = int64(1)
	case int64:
		data[field] = v + 1
	case int:
		data[field] = int64(v) + 1
	case float64:
		data[field] = v + 1
	default:
		return fmt.Errorf("field %s is not numeric", field)
	}
	return nil
}

func (r *UserRepository) UpdateTeamCounts(ctx context.Context, uid string, counts models.TeamCounts) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.Update(ctx, uid, counts.Updates())
}

// Counts reads the stored counts back, for assertions.
func (r *UserRepository) Counts(uid string) (models.TeamCounts, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data, ok := r.docs[uid]
	if !ok {
		return models.TeamCounts{}, false
	}
	direct, okDirect := data[models.FieldDirectSponsorCount].(int64)
	total, okTotal := data[models.FieldTotalTeamCount].(int64)
	if !okDirect || !okTotal {
		return models.TeamCounts{}, false
	}
	return models.TeamCounts{DirectSponsorCount: direct, TotalTeamCount: total}, true
}

func (r *UserRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
