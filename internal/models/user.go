package models

import (
	"errors"
	"fmt"
	"strings"
)

type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

// Field names as stored in the users collection.
const (
	FieldUID                = "uid"
	FieldEmail              = "email"
	FieldReferredBy         = "referredBy"
	FieldRole               = "role"
	FieldDirectSponsorCount = "direct_sponsor_count"
	FieldTotalTeamCount     = "total_team_count"
)

var ErrMissingUID = errors.New("user record has no uid")

type User struct {
	UID                string   `json:"uid" firestore:"uid" bson:"_id"`
	Email              string   `json:"email,omitempty" firestore:"email,omitempty" bson:"email,omitempty"`
	FirstName          string   `json:"firstName,omitempty" firestore:"firstName,omitempty" bson:"firstName,omitempty"`
	LastName           string   `json:"lastName,omitempty" firestore:"lastName,omitempty" bson:"lastName,omitempty"`
	ReferralCode       string   `json:"referralCode,omitempty" firestore:"referralCode,omitempty" bson:"referralCode,omitempty"`
	ReferredBy         *string  `json:"referredBy" firestore:"referredBy" bson:"referredBy"`
	Role               UserRole `json:"role,omitempty" firestore:"role,omitempty" bson:"role,omitempty"`
	Level              int      `json:"level" firestore:"level" bson:"level"`
	Country            string   `json:"country,omitempty" firestore:"country,omitempty" bson:"country,omitempty"`
	State              string   `json:"state,omitempty" firestore:"state,omitempty" bson:"state,omitempty"`
	City               string   `json:"city,omitempty" firestore:"city,omitempty" bson:"city,omitempty"`
	PhotoURL           string   `json:"photoUrl,omitempty" firestore:"photoUrl,omitempty" bson:"photoUrl,omitempty"`
	DirectSponsorCount *int64   `json:"direct_sponsor_count" firestore:"direct_sponsor_count" bson:"direct_sponsor_count"`
	TotalTeamCount     *int64   `json:"total_team_count" firestore:"total_team_count" bson:"total_team_count"`
}

// Sponsor returns the sponsor uid, or "" for roots.
func (u *User) Sponsor() string {
	if u.ReferredBy == nil {
		return ""
	}
	return *u.ReferredBy
}

func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// UserFromDocument builds a User from a schema-less document. Only uid and
// the fields the tooling reads are interpreted; everything else is ignored.
// A referredBy value that is not a non-empty string is treated as absent and
// reported through the returned warning.
func UserFromDocument(id string, data map[string]interface{}) (*User, string, error) {
	uid := strings.TrimSpace(id)
	if uid == "" {
		if v, ok := data[FieldUID].(string); ok {
			uid = strings.TrimSpace(v)
		}
	}
	if uid == "" {
		return nil, "", ErrMissingUID
	}

	user := &User{UID: uid}
	var warning string

	switch v := data[FieldReferredBy].(type) {
	case nil:
	case string:
		if sponsor := strings.TrimSpace(v); sponsor != "" {
			user.ReferredBy = &sponsor
		}
	default:
		warning = fmt.Sprintf("referredBy has unexpected type %T, treating user as root", v)
	}

	if v, ok := data[FieldRole].(string); ok {
		user.Role = UserRole(v)
	}
	if v, ok := data[FieldEmail].(string); ok {
		user.Email = v
	}
	if v, ok := data["firstName"].(string); ok {
		user.FirstName = v
	}
	if v, ok := data["lastName"].(string); ok {
		user.LastName = v
	}
	if v, ok := data["referralCode"].(string); ok {
		user.ReferralCode = v
	}
	if v, ok := data["country"].(string); ok {
		user.Country = v
	}
	if v, ok := data["state"].(string); ok {
		user.State = v
	}
	if v, ok := data["city"].(string); ok {
		user.City = v
	}
	if v, ok := data["photoUrl"].(string); ok {
		user.PhotoURL = v
	}
	if v, ok := toInt64(data["level"]); ok {
		user.Level = int(v)
	}
	if v, ok := toInt64(data[FieldDirectSponsorCount]); ok {
		user.DirectSponsorCount = &v
	}
	if v, ok := toInt64(data[FieldTotalTeamCount]); ok {
		user.TotalTeamCount = &v
	}

	return user, warning, nil
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}
