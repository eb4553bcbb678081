package services

import (
	"context"
	"errors"
	"fmt"

	"teambuilder/internal/repositories/interfaces"
	"teambuilder/internal/validators"
	"teambuilder/pkg/identity"
	"teambuilder/pkg/logger"
)

const identityPageSize = 1000

// AdminService covers account maintenance: creating identities and wiping
// test data while preserving the admin account.
type AdminService interface {
	CreateIdentity(ctx context.Context, req *validators.CreateIdentityRequest, admin bool) (*identity.UserRecord, error)
	CleanupUsers(ctx context.Context, adminUID string) (*CleanupResult, error)
	CleanupIdentities(ctx context.Context, adminUID string) (*CleanupResult, error)
}

type CleanupResult struct {
	Deleted  int      `json:"deleted"`
	Skipped  int      `json:"skipped"`
	Failed   int      `json:"failed"`
	Warnings []string `json:"warnings,omitempty"`
}

type adminService struct {
	userRepo   interfaces.UserRepository
	identities identity.Provider
	logger     *logger.Logger
}

func NewAdminService(userRepo interfaces.UserRepository, identities identity.Provider, log *logger.Logger) AdminService {
	if log == nil {
		log = logger.NewNop()
	}
	return &adminService{
		userRepo:   userRepo,
		identities: identities,
		logger:     log,
	}
}

func (s *adminService) CreateIdentity(ctx context.Context, req *validators.CreateIdentityRequest, admin bool) (*identity.UserRecord, error) {
	if errs := validators.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, errs.Error())
	}

	record, err := s.identities.CreateUser(ctx, &identity.CreateUserRequest{
		UID:           req.UID,
		Email:         req.Email,
		Password:      req.Password,
		DisplayName:   req.DisplayName,
		EmailVerified: admin,
	})
	if err != nil {
		return nil, err
	}

	if admin {
		if err := s.identities.SetAdmin(ctx, record.UID, true); err != nil {
			return record, err
		}
		record.Admin = true
	}

	s.logger.LogAdminAction("create_identity", record.UID, map[string]interface{}{
		"email": record.Email,
		"admin": admin,
	})
	return record, nil
}

// CleanupUsers deletes every user record except the admin uid and records
// whose role is admin, then deletes the matching identity. A missing identity
// is a warning. Failures are counted and never stop the loop.
func (s *adminService) CleanupUsers(ctx context.Context, adminUID string) (*CleanupResult, error) {
	users, err := s.userRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}

	result := &CleanupResult{}
	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if u.UID == adminUID || u.IsAdmin() {
			result.Skipped++
			continue
		}

		log := s.logger.WithUID(u.UID)
		if err := s.userRepo.Delete(ctx, u.UID); err != nil && !errors.Is(err, interfaces.ErrUserNotFound) {
			result.Failed++
			log.WithError(err).Error("Failed to delete user record")
			continue
		}

		if err := s.identities.DeleteUser(ctx, u.UID); err != nil {
			if !errors.Is(err, identity.ErrUserNotFound) {
				result.Failed++
				log.WithError(err).Error("Failed to delete identity")
				continue
			}
			result.Warnings = append(result.Warnings, fmt.Sprintf("identity not found: %s", u.UID))
			log.Warn("Identity not found, record deleted only")
		}

		result.Deleted++
		log.Debug("Deleted user")
	}

	s.logger.LogAdminAction("cleanup_users", adminUID, map[string]interface{}{
		"deleted": result.Deleted,
		"skipped": result.Skipped,
		"failed":  result.Failed,
	})
	return result, nil
}

// CleanupIdentities deletes every identity except adminUID. Pages are listed
// before deleting so deletions do not shift the cursor.
func (s *adminService) CleanupIdentities(ctx context.Context, adminUID string) (*CleanupResult, error) {
	var uids []string
	token := ""
	for {
		page, err := s.identities.ListUsers(ctx, identityPageSize, token)
		if err != nil {
			return nil, err
		}
		for _, u := range page.Users {
			uids = append(uids, u.UID)
		}
		if page.NextPageToken == "" {
			break
		}
		token = page.NextPageToken
	}

	result := &CleanupResult{}
	for _, uid := range uids {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if uid == adminUID {
			result.Skipped++
			continue
		}

		if err := s.identities.DeleteUser(ctx, uid); err != nil && !errors.Is(err, identity.ErrUserNotFound) {
			result.Failed++
			s.logger.WithUID(uid).WithError(err).Error("Failed to delete identity")
			continue
		}
		result.Deleted++
	}

	s.logger.LogAdminAction("cleanup_identities", adminUID, map[string]interface{}{
		"deleted": result.Deleted,
		"skipped": result.Skipped,
		"failed":  result.Failed,
	})
	return result, nil
}
