package validators

import (
	"teambuilder/internal/models"
)

type CreateUserRequest struct {
	UID          string  `json:"uid" validate:"required,uid"`
	Email        string  `json:"email" validate:"omitempty,email"`
	FirstName    string  `json:"firstName" validate:"omitempty,max=100"`
	LastName     string  `json:"lastName" validate:"omitempty,max=100"`
	ReferralCode string  `json:"referralCode" validate:"omitempty,max=64"`
	ReferredBy   *string `json:"referredBy" validate:"omitempty,uid"`
	Role         string  `json:"role" validate:"omitempty,oneof=user admin"`
	Country      string  `json:"country" validate:"omitempty,max=100"`
	State        string  `json:"state" validate:"omitempty,max=100"`
	City         string  `json:"city" validate:"omitempty,max=100"`
}

func (r *CreateUserRequest) ToUser() *models.User {
	role := models.UserRole(r.Role)
	if role == "" {
		role = models.UserRoleUser
	}
	return &models.User{
		UID:          r.UID,
		Email:        r.Email,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		ReferralCode: r.ReferralCode,
		ReferredBy:   r.ReferredBy,
		Role:         role,
		Country:      r.Country,
		State:        r.State,
		City:         r.City,
	}
}

type UpdateUserRequest struct {
	Fields map[string]interface{} `json:"fields" validate:"required,min=1,dive,keys,field_name,endkeys"`
}

type IncrementFieldRequest struct {
	Field string `json:"field" validate:"required,field_name"`
}

type CreateIdentityRequest struct {
	UID         string `json:"uid" validate:"omitempty,uid"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6,max=128"`
	DisplayName string `json:"display_name" validate:"omitempty,max=100"`
}

type RecalculateRequest struct {
	DryRun bool `json:"dry_run"`
}

// IsDerivedField reports whether field is owned by the team count run and
// must not be written directly.
func IsDerivedField(field string) bool {
	return field == models.FieldDirectSponsorCount || field == models.FieldTotalTeamCount
}

func ValidateCreateUser(req *CreateUserRequest) ValidationErrors {
	errs := ValidateStruct(req)
	if req.ReferredBy != nil && *req.ReferredBy == req.UID {
		errs = append(errs, ValidationError{
			Field:   "ReferredBy",
			Tag:     "self_referral",
			Value:   *req.ReferredBy,
			Message: "A user cannot refer themselves",
		})
	}
	return errs
}

func ValidateUpdateUser(req *UpdateUserRequest) ValidationErrors {
	errs := ValidateStruct(req)
	for field := range req.Fields {
		if IsDerivedField(field) || field == models.FieldUID {
			errs = append(errs, ValidationError{
				Field:   field,
				Tag:     "read_only",
				Message: field + " cannot be updated directly",
			})
		}
	}
	return errs
}
