package models

import (
	"time"
)

// Roles form a closed set fixed at route-registration time.
const (
	RoleUser      = "user"
	RoleGuide     = "guide"
	RoleLeadGuide = "lead-guide"
	RoleAdmin     = "admin"
)

// ValidRoles lists every role a user record may carry.
var ValidRoles = []string{RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin}

type User struct {
	ID            string
	Name          string
	Email         string
	Photo         string
	PasswordHash  string // never serialized in responses
	Role          string
	EmailVerified bool
	Active        bool

	// Set whenever the password hash changes, except at account creation.
	// Any bearer token issued before this instant is stale.
	PasswordChangedAt *time.Time

	// Side-channel token pairs: either both fields are set (pending) or
	// both are nil. Only the SHA-256 digest of the raw token is stored.
	PasswordResetTokenHash     *string
	PasswordResetExpiresAt     *time.Time
	EmailVerificationTokenHash *string
	EmailVerificationExpiresAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PasswordChangedAfter reports whether the password was changed after the
// given token issue time. A user who has never changed their password
// cannot hold stale tokens.
func (u *User) PasswordChangedAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	// JWT iat claims carry second precision only.
	return issuedAt.Unix() < u.PasswordChangedAt.Unix()
}

// HasRole reports whether the user's role is in the given set.
func (u *User) HasRole(roles ...string) bool {
	for _, role := range roles {
		if u.Role == role {
			return true
		}
	}
	return false
}

// PendingVerification reports whether an unexpired email verification
// token is outstanding for this user.
func (u *User) PendingVerification(now time.Time) bool {
	return u.EmailVerificationTokenHash != nil &&
		u.EmailVerificationExpiresAt != nil &&
		u.EmailVerificationExpiresAt.After(now)
}
