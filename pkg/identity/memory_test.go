package identity

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryProvider_CreateAndAdmin(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryProvider()

	u, err := p.CreateUser(ctx, &CreateUserRequest{Email: "a@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, u.UID)

	_, err = p.CreateUser(ctx, &CreateUserRequest{Email: "A@example.com", Password: "secret123"})
	assert.Error(t, err)

	require.NoError(t, p.SetAdmin(ctx, u.UID, true))
	got, err := p.GetUser(ctx, u.UID)
	require.NoError(t, err)
	assert.True(t, got.Admin)

	p.IssueToken("tok", u.UID)
	tok, err := p.VerifyIDToken(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, u.UID, tok.UID)
	assert.True(t, tok.Admin)

	_, err = p.VerifyIDToken(ctx, "bad")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMemoryProvider_DeleteMissing(t *testing.T) {
	p := NewMemoryProvider()
	assert.ErrorIs(t, p.DeleteUser(context.Background(), "ghost"), ErrUserNotFound)
	assert.ErrorIs(t, p.SetAdmin(context.Background(), "ghost", true), ErrUserNotFound)
}

func TestMemoryProvider_ListUsersPages(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryProvider()
	for i := 0; i < 5; i++ {
		p.Add(&UserRecord{UID: fmt.Sprintf("u%d", i)})
	}

	var seen []string
	token := ""
	for {
		page, err := p.ListUsers(ctx, 2, token)
		require.NoError(t, err)
		for _, u := range page.Users {
			seen = append(seen, u.UID)
		}
		if page.NextPageToken == "" {
			break
		}
		token = page.NextPageToken
	}

	assert.Equal(t, []string{"u0", "u1", "u2", "u3", "u4"}, seen)
}
