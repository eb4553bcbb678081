package validators

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidUID(t *testing.T) {
	tests := []struct {
		uid  string
		want bool
	}{
		{"abc123", true},
		{"", false},
		{".", false},
		{"..", false},
		{"a/b", false},
		{"__reserved__", false},
		{" padded", false},
		{strings.Repeat("x", 129), false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsValidUID(tt.uid), "uid %q", tt.uid)
	}
}

func TestValidateCreateUser(t *testing.T) {
	self := "u1"
	errs := ValidateCreateUser(&CreateUserRequest{UID: "u1", ReferredBy: &self})
	require.Len(t, errs, 1)
	assert.Equal(t, "self_referral", errs[0].Tag)

	errs = ValidateCreateUser(&CreateUserRequest{UID: "", Email: "nope"})
	assert.Len(t, errs, 2)

	sponsor := "u0"
	assert.Empty(t, ValidateCreateUser(&CreateUserRequest{UID: "u1", ReferredBy: &sponsor, Role: "user"}))
}

func TestValidateUpdateUser(t *testing.T) {
	errs := ValidateUpdateUser(&UpdateUserRequest{Fields: map[string]interface{}{"total_team_count": 3}})
	require.Len(t, errs, 1)
	assert.Equal(t, "read_only", errs[0].Tag)

	errs = ValidateUpdateUser(&UpdateUserRequest{Fields: map[string]interface{}{"a.b": 1}})
	require.Len(t, errs, 1)
	assert.Equal(t, "field_name", errs[0].Tag)

	errs = ValidateUpdateUser(&UpdateUserRequest{Fields: map[string]interface{}{}})
	require.Len(t, errs, 1)
	assert.Equal(t, "min", errs[0].Tag)

	assert.Empty(t, ValidateUpdateUser(&UpdateUserRequest{Fields: map[string]interface{}{"city": "Lagos"}}))
}

func TestValidateIdentity(t *testing.T) {
	assert.Empty(t, ValidateStruct(&CreateIdentityRequest{Email: "a@example.com", Password: "11111111"}))

	errs := ValidateStruct(&CreateIdentityRequest{Email: "a@example.com", Password: "123"})
	require.Len(t, errs, 1)
	assert.Equal(t, "min", errs[0].Tag)
}
