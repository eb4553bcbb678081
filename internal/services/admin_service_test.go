package services

import (
	"context"
	"fmt"
	"testing"

	"teambuilder/internal/models"
	"teambuilder/internal/repositories/memory"
	"teambuilder/internal/validators"
	"teambuilder/pkg/identity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminService_CreateIdentity(t *testing.T) {
	ids := identity.NewMemoryProvider()
	svc := NewAdminService(memory.NewUserRepository(), ids, nil)
	ctx := context.Background()

	rec, err := svc.CreateIdentity(ctx, &validators.CreateIdentityRequest{
		UID: "admin-1", Email: "admin@example.com", Password: "11111111",
	}, true)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", rec.UID)
	assert.True(t, rec.Admin)

	got, err := ids.GetUser(ctx, "admin-1")
	require.NoError(t, err)
	assert.True(t, got.Admin)

	rec, err = svc.CreateIdentity(ctx, &validators.CreateIdentityRequest{
		Email: "user@example.com", Password: "secret1",
	}, false)
	require.NoError(t, err)
	assert.False(t, rec.Admin)

	_, err = svc.CreateIdentity(ctx, &validators.CreateIdentityRequest{Email: "bad", Password: "x"}, false)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAdminService_CleanupUsers(t *testing.T) {
	admin := newUser("root")
	otherAdmin := newUser("ops")
	otherAdmin.Role = models.UserRoleAdmin

	repo := memory.NewUserRepository(admin, otherAdmin, newUser("A", "root"), newUser("B", "A"))
	ids := identity.NewMemoryProvider()
	for _, uid := range []string{"root", "ops", "A"} {
		ids.Add(&identity.UserRecord{UID: uid})
	}

	svc := NewAdminService(repo, ids, nil)
	result, err := svc.CleanupUsers(context.Background(), "root")
	require.NoError(t, err)

	assert.Equal(t, 2, result.Deleted)
	assert.Equal(t, 2, result.Skipped)
	assert.Zero(t, result.Failed)
	assert.Equal(t, []string{"identity not found: B"}, result.Warnings)

	assert.Equal(t, 2, repo.Len())
	_, err = ids.GetUser(context.Background(), "A")
	assert.ErrorIs(t, err, identity.ErrUserNotFound)
	_, err = ids.GetUser(context.Background(), "ops")
	assert.NoError(t, err)
}

func TestAdminService_CleanupIdentities(t *testing.T) {
	ids := identity.NewMemoryProvider()
	for i := 0; i < 2500; i++ {
		ids.Add(&identity.UserRecord{UID: fmt.Sprintf("u%04d", i)})
	}

	svc := NewAdminService(memory.NewUserRepository(), ids, nil)
	result, err := svc.CleanupIdentities(context.Background(), "u0042")
	require.NoError(t, err)

	assert.Equal(t, 2499, result.Deleted)
	assert.Equal(t, 1, result.Skipped)

	page, err := ids.ListUsers(context.Background(), 10, "")
	require.NoError(t, err)
	require.Len(t, page.Users, 1)
	assert.Equal(t, "u0042", page.Users[0].UID)
}
