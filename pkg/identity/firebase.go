package identity

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/iterator"
)

const adminClaim = "admin"

type FirebaseProvider struct {
	client *auth.Client
}

func NewFirebaseProvider(ctx context.Context, app *firebase.App) (*FirebaseProvider, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth client: %w", err)
	}
	return &FirebaseProvider{client: client}, nil
}

func (p *FirebaseProvider) CreateUser(ctx context.Context, req *CreateUserRequest) (*UserRecord, error) {
	params := (&auth.UserToCreate{}).
		Email(req.Email).
		Password(req.Password).
		EmailVerified(req.EmailVerified)
	if req.UID != "" {
		params = params.UID(req.UID)
	}
	if req.DisplayName != "" {
		params = params.DisplayName(req.DisplayName)
	}

	u, err := p.client.CreateUser(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity for %s: %w", req.Email, err)
	}
	return toRecord(u), nil
}

func (p *FirebaseProvider) SetAdmin(ctx context.Context, uid string, admin bool) error {
	if err := p.client.SetCustomUserClaims(ctx, uid, map[string]interface{}{adminClaim: admin}); err != nil {
		return fmt.Errorf("failed to set claims for %s: %w", uid, mapError(err))
	}
	return nil
}

func (p *FirebaseProvider) GetUser(ctx context.Context, uid string) (*UserRecord, error) {
	u, err := p.client.GetUser(ctx, uid)
	if err != nil {
		return nil, mapError(err)
	}
	return toRecord(u), nil
}

func (p *FirebaseProvider) DeleteUser(ctx context.Context, uid string) error {
	if err := p.client.DeleteUser(ctx, uid); err != nil {
		return mapError(err)
	}
	return nil
}

func (p *FirebaseProvider) ListUsers(ctx context.Context, pageSize int, pageToken string) (*UserPage, error) {
	var exported []*auth.ExportedUserRecord
	pager := iterator.NewPager(p.client.Users(ctx, ""), pageSize, pageToken)

	next, err := pager.NextPage(&exported)
	if err != nil {
		return nil, fmt.Errorf("failed to list identities: %w", err)
	}

	page := &UserPage{NextPageToken: next}
	for _, u := range exported {
		page.Users = append(page.Users, toRecord(u.UserRecord))
	}
	return page, nil
}

func (p *FirebaseProvider) VerifyIDToken(ctx context.Context, idToken string) (*Token, error) {
	t, err := p.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}

	token := &Token{UID: t.UID}
	if email, ok := t.Claims["email"].(string); ok {
		token.Email = email
	}
	if admin, ok := t.Claims[adminClaim].(bool); ok {
		token.Admin = admin
	}
	return token, nil
}

func toRecord(u *auth.UserRecord) *UserRecord {
	r := &UserRecord{
		UID:         u.UID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
	}
	if admin, ok := u.CustomClaims[adminClaim].(bool); ok {
		r.Admin = admin
	}
	return r
}

func mapError(err error) error {
	if auth.IsUserNotFound(err) {
		return fmt.Errorf("%w: %v", ErrUserNotFound, err)
	}
	return err
}
