package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/angermaster11/eduhub/internal/domain"
	"github.com/angermaster11/eduhub/internal/domain/models"
	"github.com/angermaster11/eduhub/internal/domain/repositories"
)

// PostgresProfileRepository implements repositories.ProfileRepository
type PostgresProfileRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(config *RepositoryConfig) repositories.ProfileRepository {
	return &PostgresProfileRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// GetByUserID retrieves the profile for an auth user
func (r *PostgresProfileRepository) GetByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	query := fmt.Sprintf(`
		SELECT user_id::text, COALESCE(name, ''), COALESCE(gender, ''), dob,
			COALESCE(phone, ''), COALESCE(role, 'user'), COALESCE(display_name, ''),
			created_at, updated_at
		FROM %s
		WHERE user_id::text = $1
	`, r.tables.Profiles)

	var profile models.Profile
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, userID).Scan(
		&profile.UserID,
		&profile.Name,
		&profile.Gender,
		&profile.DOB,
		&profile.Phone,
		&profile.Role,
		&profile.DisplayName,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		if IsPgNoRowsError(err) || IsPgInvalidInputError(err) {
			return nil, fmt.Errorf("profile %s: %w", userID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}

	return &profile, nil
}

// Upsert writes every profile field. The sign-up trigger normally creates
// the row first; the insert branch covers projects without that trigger.
func (r *PostgresProfileRepository) Upsert(ctx context.Context, profile *models.Profile) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, name, gender, dob, phone, role, display_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		ON CONFLICT (user_id) DO UPDATE SET
			name = EXCLUDED.name,
			gender = EXCLUDED.gender,
			dob = EXCLUDED.dob,
			phone = EXCLUDED.phone,
			role = EXCLUDED.role,
			display_name = EXCLUDED.display_name,
			updated_at = now()
		RETURNING created_at, updated_at
	`, r.tables.Profiles)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		profile.UserID,
		profile.Name,
		profile.Gender,
		profile.DOB,
		profile.Phone,
		string(profile.Role),
		profile.DisplayName,
	).Scan(&profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		if IsPgInvalidInputError(err) {
			return fmt.Errorf("%w: invalid user id", domain.ErrValidation)
		}
		return fmt.Errorf("upsert profile: %w", err)
	}

	r.logger.Debug("profile saved", "user_id", profile.UserID, "role", profile.Role)
	return nil
}

// SetRole changes only the role column
func (r *PostgresProfileRepository) SetRole(ctx context.Context, userID string, role models.Role) error {
	query := fmt.Sprintf(`
		UPDATE %s SET role = $1, updated_at = now() WHERE user_id::text = $2
	`, r.tables.Profiles)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, string(role), userID)
	if err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("profile %s: %w", userID, domain.ErrNotFound)
	}
	return nil
}
