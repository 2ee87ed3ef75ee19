package users

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/Bigfish4tim/km-portal-client/roles"
)

// User is the profile the backend reports for an authenticated account.
type User struct {
	ID         int64        `json:"id,omitempty"`         // Unique identifier for the user
	Username   string       `json:"username,omitempty"`   // Unique login name
	FullName   string       `json:"fullName,omitempty"`   // Real name for display
	Email      string       `json:"email,omitempty"`      // User's email address
	Department string       `json:"department,omitempty"` // Organisational unit (optional)
	Position   string       `json:"position,omitempty"`   // Job title (optional)
	Roles      []roles.Role `json:"roles,omitempty"`      // Granted roles, at least one
}

// DisplayName returns the name to show in UIs: full name when set, otherwise
// the login name.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// HasRole reports whether the user holds the given role.
func (u *User) HasRole(r roles.Role) bool {
	if u == nil {
		return false
	}
	return roles.HasAnyRole(u.Roles, r)
}

// PrimaryRoleLabel returns the display label of the user's most privileged
// role.
func (u *User) PrimaryRoleLabel() string {
	if u == nil {
		return roles.NoPermissionLabel
	}
	return roles.PrimaryDisplayLabel(u.Roles)
}

// Registration carries the fields for a new-account request.
type Registration struct {
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	Password    string     `json:"password"`
	FullName    string     `json:"fullName"`
	Department  string     `json:"department,omitempty"`
	Position    string     `json:"position,omitempty"`
	PhoneNumber string     `json:"phoneNumber,omitempty"`
	RoleName    roles.Role `json:"roleName,omitempty"` // Backend defaults to ROLE_EMPLOYEE when empty
}

// Validate checks the registration locally before any network call.
func (r Registration) Validate() error {
	if strings.TrimSpace(r.Username) == "" {
		return fmt.Errorf("username is required")
	}
	if strings.TrimSpace(r.Email) == "" {
		return fmt.Errorf("email is required")
	}
	if !strings.Contains(r.Email, "@") {
		return fmt.Errorf("email address is not valid")
	}
	if strings.TrimSpace(r.FullName) == "" {
		return fmt.Errorf("full name is required")
	}
	if r.RoleName != "" && !r.RoleName.Valid() {
		return fmt.Errorf("unknown role %q", r.RoleName)
	}
	return ValidatePasswordStrength(r.Password)
}

// ValidatePasswordStrength checks if a password meets the portal's rules:
// - At least 8 characters long
// - Contains at least one letter
// - Contains at least one number
// - Contains at least one special character
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasLetter  bool
		hasNumber  bool
		hasSpecial bool
	)

	for _, char := range password {
		switch {
		case unicode.IsLetter(char):
			hasLetter = true
		case unicode.IsDigit(char):
			hasNumber = true
		default:
			hasSpecial = true
		}
	}

	if !hasLetter {
		return fmt.Errorf("password must contain at least one letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}
	if !hasSpecial {
		return fmt.Errorf("password must contain at least one special character")
	}

	return nil
}
