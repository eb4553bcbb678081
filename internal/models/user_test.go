package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserFromDocument(t *testing.T) {
	user, warning, err := UserFromDocument("B", map[string]interface{}{
		"referredBy":           " A ",
		"role":                 "admin",
		"email":                "b@example.com",
		"level":                int32(3),
		"direct_sponsor_count": int64(2),
		"total_team_count":     float64(7),
		"unknown":              []string{"ignored"},
	})
	require.NoError(t, err)
	assert.Empty(t, warning)

	assert.Equal(t, "B", user.UID)
	assert.Equal(t, "A", user.Sponsor())
	assert.True(t, user.IsAdmin())
	assert.Equal(t, 3, user.Level)
	require.NotNil(t, user.TotalTeamCount)
	assert.Equal(t, int64(7), *user.TotalTeamCount)
	assert.Equal(t, int64(2), *user.DirectSponsorCount)
}

func TestUserFromDocument_FallsBackToUIDField(t *testing.T) {
	user, _, err := UserFromDocument("", map[string]interface{}{"uid": "X"})
	require.NoError(t, err)
	assert.Equal(t, "X", user.UID)

	_, _, err = UserFromDocument("  ", map[string]interface{}{})
	assert.ErrorIs(t, err, ErrMissingUID)
}

func TestUserFromDocument_ReferredByShapes(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		sponsor string
		warns   bool
	}{
		{"absent", nil, "", false},
		{"empty", "", "", false},
		{"whitespace", "   ", "", false},
		{"number", 42, "", true},
		{"map", map[string]interface{}{"id": "A"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, warning, err := UserFromDocument("U", map[string]interface{}{"referredBy": tt.value})
			require.NoError(t, err)
			assert.Equal(t, tt.sponsor, user.Sponsor())
			assert.Equal(t, tt.warns, warning != "")
		})
	}
}

func TestTeamCountRun_HasIssues(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	run := &TeamCountRun{StartedAt: start, FinishedAt: start.Add(90 * time.Second)}
	assert.False(t, run.HasIssues())
	assert.Equal(t, 90*time.Second, run.Duration())

	run.Orphans = []OrphanReference{{UID: "B", ReferredBy: "gone"}}
	assert.False(t, run.HasIssues())

	run.Failed = []FailedUpdate{{UID: "C", Error: "boom"}, {UID: "D", Error: "boom"}}
	assert.True(t, run.HasIssues())
	assert.Equal(t, []string{"C", "D"}, run.FailedUIDs())
}

func TestTeamCounts_Updates(t *testing.T) {
	updates := TeamCounts{DirectSponsorCount: 1, TotalTeamCount: 4}.Updates()
	assert.Equal(t, int64(1), updates[FieldDirectSponsorCount])
	assert.Equal(t, int64(4), updates[FieldTotalTeamCount])
}
