package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/angermaster11/eduhub/internal/domain"
	"github.com/angermaster11/eduhub/internal/domain/models"
	"github.com/angermaster11/eduhub/internal/domain/repositories"
)

// ProfileRepository keeps profiles keyed by auth user id
type ProfileRepository struct {
	mu       sync.RWMutex
	profiles map[string]models.Profile
}

// NewProfileRepository creates an empty profile repository
func NewProfileRepository() *ProfileRepository {
	return &ProfileRepository{profiles: make(map[string]models.Profile)}
}

// GetByUserID returns a copy of the stored profile
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	profile, ok := r.profiles[userID]
	if !ok {
		return nil, fmt.Errorf("profile %s: %w", userID, domain.ErrNotFound)
	}
	return &profile, nil
}

// Upsert writes every field, keeping the original creation time
func (r *ProfileRepository) Upsert(ctx context.Context, profile *models.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	profile.UpdatedAt = now
	if existing, ok := r.profiles[profile.UserID]; ok {
		profile.CreatedAt = existing.CreatedAt
	} else {
		profile.CreatedAt = now
	}
	r.profiles[profile.UserID] = *profile
	return nil
}

// SetRole changes only the role
func (r *ProfileRepository) SetRole(ctx context.Context, userID string, role models.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	profile, ok := r.profiles[userID]
	if !ok {
		return fmt.Errorf("profile %s: %w", userID, domain.ErrNotFound)
	}
	profile.Role = role
	profile.UpdatedAt = time.Now()
	r.profiles[userID] = profile
	return nil
}

var _ repositories.ProfileRepository = (*ProfileRepository)(nil)
