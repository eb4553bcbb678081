package identity

import (
	"context"
	"errors"
)

var ErrUserNotFound = errors.New("identity not found")

// Provider is the subset of an auth backend the admin tooling and the API
// rely on.
type Provider interface {
	CreateUser(ctx context.Context, req *CreateUserRequest) (*UserRecord, error)
	SetAdmin(ctx context.Context, uid string, admin bool) error
	GetUser(ctx context.Context, uid string) (*UserRecord, error)
	DeleteUser(ctx context.Context, uid string) error
	ListUsers(ctx context.Context, pageSize int, pageToken string) (*UserPage, error)
	VerifyIDToken(ctx context.Context, idToken string) (*Token, error)
}

// CreateUserRequest describes a new identity. UID is generated when empty.
type CreateUserRequest struct {
	UID           string
	Email         string
	Password      string
	DisplayName   string
	EmailVerified bool
}

type UserRecord struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
	Admin       bool   `json:"admin"`
}

type UserPage struct {
	Users         []*UserRecord
	NextPageToken string
}

// Token is a verified ID token.
type Token struct {
	UID   string
	Email string
	Admin bool
}
