package services

import (
	"teambuilder/internal/models"
)

func newUser(uid string, sponsor ...string) *models.User {
	u := &models.User{UID: uid, Email: uid + "@example.com", Role: models.UserRoleUser}
	if len(sponsor) > 0 {
		s := sponsor[0]
		u.ReferredBy = &s
	}
	return u
}
