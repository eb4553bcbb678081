package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"teambuilder/internal/models"
	"teambuilder/internal/repositories/interfaces"
	"teambuilder/internal/team"
	"teambuilder/internal/validators"
	"teambuilder/pkg/logger"
)

var (
	ErrDerivedField = errors.New("team count fields are maintained by the recalculation run")
	ErrInvalidInput = errors.New("invalid input")
)

type UserService interface {
	GetUser(ctx context.Context, uid string) (*models.User, error)
	GetProfileByEmail(ctx context.Context, email string) (*models.User, error)
	GetDownline(ctx context.Context, uid string) (*DownlineResponse, error)
	CreateUser(ctx context.Context, req *validators.CreateUserRequest) (*models.User, error)
	UpdateUser(ctx context.Context, uid string, fields map[string]interface{}) error
	IncrementField(ctx context.Context, uid string, field string) error
}

type DownlineMember struct {
	UID        string          `json:"uid"`
	Email      string          `json:"email,omitempty"`
	ReferredBy string          `json:"referredBy"`
	Role       models.UserRole `json:"role,omitempty"`
}

type DownlineResponse struct {
	UID     string           `json:"uid"`
	Count   int              `json:"count"`
	Members []DownlineMember `json:"members"`
}

type userService struct {
	userRepo interfaces.UserRepository
	logger   *logger.Logger
}

func NewUserService(userRepo interfaces.UserRepository, log *logger.Logger) UserService {
	if log == nil {
		log = logger.NewNop()
	}
	return &userService{
		userRepo: userRepo,
		logger:   log,
	}
}

func (s *userService) GetUser(ctx context.Context, uid string) (*models.User, error) {
	return s.userRepo.GetByID(ctx, uid)
}

func (s *userService) GetProfileByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	return s.userRepo.GetByEmail(ctx, email)
}

// GetDownline returns everyone below uid in the referral forest, closest
// levels first. Members of a cycle that includes uid are returned once.
func (s *userService) GetDownline(ctx context.Context, uid string) (*DownlineResponse, error) {
	users, err := s.userRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}

	forest := team.BuildForest(users)
	uids, ok := forest.Descendants(uid)
	if !ok {
		return nil, interfaces.ErrUserNotFound
	}

	byUID := make(map[string]*models.User, len(users))
	for _, u := range users {
		if u == nil {
			continue
		}
		if _, seen := byUID[u.UID]; !seen {
			byUID[u.UID] = u
		}
	}

	resp := &DownlineResponse{UID: uid, Count: len(uids), Members: make([]DownlineMember, 0, len(uids))}
	for _, d := range uids {
		u := byUID[d]
		resp.Members = append(resp.Members, DownlineMember{
			UID:        u.UID,
			Email:      u.Email,
			ReferredBy: u.Sponsor(),
			Role:       u.Role,
		})
	}
	return resp, nil
}

func (s *userService) CreateUser(ctx context.Context, req *validators.CreateUserRequest) (*models.User, error) {
	if errs := validators.ValidateCreateUser(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, errs.Error())
	}

	user := req.ToUser()
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.WithUID(user.UID).WithField("referred_by", user.Sponsor()).Info("User record created")
	return user, nil
}

func (s *userService) UpdateUser(ctx context.Context, uid string, fields map[string]interface{}) error {
	for field := range fields {
		if validators.IsDerivedField(field) {
			return fmt.Errorf("%w: %s", ErrDerivedField, field)
		}
	}
	if errs := validators.ValidateUpdateUser(&validators.UpdateUserRequest{Fields: fields}); len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInput, errs.Error())
	}

	if err := s.userRepo.Update(ctx, uid, fields); err != nil {
		return err
	}

	s.logger.WithUID(uid).WithField("fields", len(fields)).Info("User record updated")
	return nil
}

func (s *userService) IncrementField(ctx context.Context, uid string, field string) error {
	if validators.IsDerivedField(field) {
		return fmt.Errorf("%w: %s", ErrDerivedField, field)
	}
	if !validators.IsValidFieldName(field) {
		return fmt.Errorf("%w: invalid field %q", ErrInvalidInput, field)
	}

	if err := s.userRepo.IncrementField(ctx, uid, field); err != nil {
		return err
	}

	s.logger.WithUID(uid).WithField("field", field).Debug("User field incremented")
	return nil
}
