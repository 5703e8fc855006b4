package repositories

import (
	"context"

	"github.com/angermaster11/eduhub/internal/domain/models"
)

// ProfileRepository defines data access operations for user profiles
type ProfileRepository interface {
	// GetByUserID retrieves the profile for an auth user.
	// Returns domain.ErrNotFound when no row exists.
	GetByUserID(ctx context.Context, userID string) (*models.Profile, error)

	// Upsert writes every profile field, creating the row when the
	// sign-up trigger has not done so yet.
	Upsert(ctx context.Context, profile *models.Profile) error

	// SetRole changes only the role column.
	SetRole(ctx context.Context, userID string, role models.Role) error
}
