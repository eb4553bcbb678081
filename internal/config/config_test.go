package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_PROVIDER", StoreMemory)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "teambuilder", cfg.App.Name)
	assert.Equal(t, 8, cfg.Team.Workers)
	assert.Equal(t, 30*time.Minute, cfg.Team.LockTTL)
	assert.Equal(t, "team-counts/", cfg.Team.ReportPrefix)
	assert.Equal(t, "users", cfg.Database.UsersCollection)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, StorageLocal, cfg.Storage.Provider)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_PROVIDER", StoreMongoDB)
	t.Setenv("TEAM_COUNT_WORKERS", "32")
	t.Setenv("TEAM_COUNT_DRY_RUN", "true")
	t.Setenv("TEAM_COUNT_LOCK_TTL", "5m")
	t.Setenv("REDIS_ENABLED", "1")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 32, cfg.Team.Workers)
	assert.True(t, cfg.Team.DryRun)
	assert.Equal(t, 5*time.Minute, cfg.Team.LockTTL)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Security.CORSAllowedOrigins)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("STORE_PROVIDER", StoreMemory)
	t.Setenv("TEAM_COUNT_WORKERS", "many")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Team.Workers)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "firestore without project",
			env:     map[string]string{"STORE_PROVIDER": StoreFirestore, "FIREBASE_PROJECT_ID": "", "FIREBASE_CREDENTIALS_FILE": "", "GOOGLE_APPLICATION_CREDENTIALS": ""},
			wantErr: "FIREBASE_PROJECT_ID",
		},
		{
			name:    "unknown store",
			env:     map[string]string{"STORE_PROVIDER": "postgres"},
			wantErr: "unknown STORE_PROVIDER",
		},
		{
			name:    "unknown storage",
			env:     map[string]string{"STORE_PROVIDER": StoreMemory, "STORAGE_PROVIDER": "ftp"},
			wantErr: "unknown STORAGE_PROVIDER",
		},
		{
			name:    "zero workers",
			env:     map[string]string{"STORE_PROVIDER": StoreMemory, "TEAM_COUNT_WORKERS": "0"},
			wantErr: "TEAM_COUNT_WORKERS",
		},
		{
			name:    "zero lock ttl",
			env:     map[string]string{"STORE_PROVIDER": StoreMemory, "TEAM_COUNT_LOCK_TTL": "0s"},
			wantErr: "TEAM_COUNT_LOCK_TTL",
		},
		{
			name: "firestore with project",
			env:  map[string]string{"STORE_PROVIDER": StoreFirestore, "FIREBASE_PROJECT_ID": "demo"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
