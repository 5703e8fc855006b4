package services

import (
	"context"

	"github.com/angermaster11/eduhub/internal/domain/models"
)

// SignInRequest represents an email and password sign-in
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUpRequest carries the identity plus the profile fields collected at
// registration. DOB uses the 2006-01-02 layout.
type SignUpRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Name        string `json:"name"`
	Gender      string `json:"gender"`
	DOB         string `json:"dob"`
	Phone       string `json:"phone"`
	DisplayName string `json:"display_name"`
}

// SignUpResult is the new session (tokens empty when the project requires
// email confirmation) and the stored profile.
type SignUpResult struct {
	Session *models.Session `json:"session"`
	Profile *models.Profile `json:"profile"`
}

// Identity is the signed-in user together with the resolved role
type Identity struct {
	User    *models.AuthUser `json:"user"`
	Profile *models.Profile  `json:"profile,omitempty"`
	Role    models.Role      `json:"role"`
}

// IdentityService wraps the hosted identity provider and the profiles table
type IdentityService interface {
	SignIn(ctx context.Context, req *SignInRequest) (*models.Session, error)
	SignUp(ctx context.Context, req *SignUpRequest) (*SignUpResult, error)
	Refresh(ctx context.Context, refreshToken string) (*models.Session, error)
	SignOut(ctx context.Context, accessToken string) error

	// CurrentUserRole returns RoleNone when accessToken does not belong to
	// a signed-in identity.
	CurrentUserRole(ctx context.Context, accessToken string) (models.Role, error)

	// RoleForUser reads the profile role; a missing profile is RoleUser.
	RoleForUser(ctx context.Context, userID string) (models.Role, error)

	// Me resolves the identity behind a verified user id
	Me(ctx context.Context, user *models.AuthUser) (*Identity, error)

	// OnAuthStateChange calls fn for every auth transition until the
	// returned func is called.
	OnAuthStateChange(fn func(models.AuthEvent)) (unsubscribe func())
}
