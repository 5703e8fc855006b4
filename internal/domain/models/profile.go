package models

import (
	"time"
	"unicode"
)

// Role is the catalog role stored on a profile.
type Role string

const (
	// RoleNone means there is no signed-in identity.
	RoleNone  Role = ""
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// IsAdmin reports whether the role grants the admin manager.
func (r Role) IsAdmin() bool { return r == RoleAdmin }

// SignedIn reports whether the role belongs to an authenticated identity.
func (r Role) SignedIn() bool { return r != RoleNone }

// Profile is the row in the profiles table keyed by the auth user id.
// A database trigger creates it on sign-up; the service fills it in.
type Profile struct {
	UserID      string     `json:"user_id" db:"user_id"`
	Name        string     `json:"name" db:"name"`
	Gender      string     `json:"gender" db:"gender"`
	DOB         *time.Time `json:"dob,omitempty" db:"dob"`
	Phone       string     `json:"phone" db:"phone"`
	Role        Role       `json:"role" db:"role"`
	DisplayName string     `json:"display_name" db:"display_name"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// Initial returns the upper-cased first letter of the name, used as the
// avatar fallback.
func (p *Profile) Initial() string {
	for _, r := range p.Name {
		return string(unicode.ToUpper(r))
	}
	return ""
}
