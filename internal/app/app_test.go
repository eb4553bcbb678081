package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"teambuilder/internal/config"
	"teambuilder/internal/services"
	"teambuilder/pkg/identity"
	"teambuilder/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig(t *testing.T, seed string) *config.Config {
	t.Helper()
	t.Setenv("STORE_PROVIDER", config.StoreMemory)
	t.Setenv("SEED_FILE", seed)
	t.Setenv("STORAGE_PROVIDER", config.StorageLocal)
	t.Setenv("STORAGE_LOCAL_PATH", t.TempDir())
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("FIREBASE_PROJECT_ID", "")
	t.Setenv("FIREBASE_CREDENTIALS_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func TestNew_MemoryStack(t *testing.T) {
	seed := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(seed, []byte(`{
		"root": {"email": "root@example.com", "role": "admin"},
		"a":    {"email": "a@example.com", "referredBy": "root"},
		"b":    {"email": "b@example.com", "referredBy": "a"}
	}`), 0o644))

	cfg := memoryConfig(t, seed)
	a, err := New(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)
	defer a.Close()

	assert.IsType(t, &identity.MemoryProvider{}, a.Identities)
	assert.NotNil(t, a.Reports)

	run, err := a.Team.Recalculate(context.Background(), services.RecalculateOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, run.TotalUsers)
	assert.Equal(t, 3, run.Updated)
	assert.NotEmpty(t, run.ReportURL)

	root, err := a.Users.GetByID(context.Background(), "root")
	require.NoError(t, err)
	require.NotNil(t, root.TotalTeamCount)
	assert.Equal(t, int64(2), *root.TotalTeamCount)
}

func TestNew_MissingSeedFile(t *testing.T) {
	cfg := memoryConfig(t, filepath.Join(t.TempDir(), "missing.json"))
	_, err := New(context.Background(), cfg, logger.NewNop())
	assert.Error(t, err)
}
