package models

import (
	"regexp"
	"strings"
)

// Roles a user can hold. Superuser status is a separate flag, not a role.
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

var (
	usernamePattern = regexp.MustCompile(`^[\w.@+-]{1,150}$`)
	emailPattern    = regexp.MustCompile(`^[\w.@+-]{1,254}$`)
	emailShape      = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// User represents a registered account.
type User struct {
	ID               uint   `json:"-" gorm:"primaryKey"`
	Username         string `json:"username" gorm:"uniqueIndex;type:varchar(150)"`
	Email            string `json:"email" gorm:"uniqueIndex;type:varchar(254)"`
	FirstName        string `json:"first_name" gorm:"type:varchar(150)"`
	LastName         string `json:"last_name" gorm:"type:varchar(150)"`
	Bio              string `json:"bio"`
	Role             string `json:"role" gorm:"type:varchar(9);default:user"`
	ConfirmationHash string `json:"-" gorm:"type:varchar(254)"` // bcrypt of the current code
	IsSuperuser      bool   `json:"-"`
}

// IsAdmin reports whether the user's role is admin.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// IsModerator reports whether the user's role is moderator.
func (u *User) IsModerator() bool { return u.Role == RoleModerator }

// IsUser reports whether the user holds the plain user role.
func (u *User) IsUser() bool { return u.Role == RoleUser }

// HasAdminAccess reports whether the user passes admin-level checks:
// either the admin role or the orthogonal superuser flag.
func (u *User) HasAdminAccess() bool { return u.IsAdmin() || u.IsSuperuser }

// ValidRole reports whether role is one of the known role values.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleModerator || role == RoleAdmin
}

// ValidateUsername checks the allowed character class (letters, digits and
// . @ + -), the 1-150 length bound, and rejects the reserved name "me".
func ValidateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return &ValidationError{
			Field:   "username",
			Message: "only letters, digits and . @ + - are allowed, length 1-150",
		}
	}
	if strings.EqualFold(username, "me") {
		return &ValidationError{
			Field:   "username",
			Message: `username "me" is reserved`,
		}
	}
	return nil
}

// ValidateEmail checks the address shape plus the same restricted
// character class and the 254-character bound used for usernames.
func ValidateEmail(email string) error {
	if !emailShape.MatchString(email) || !emailPattern.MatchString(email) {
		return &ValidationError{
			Field:   "email",
			Message: "not a valid email address (max length 254)",
		}
	}
	return nil
}
