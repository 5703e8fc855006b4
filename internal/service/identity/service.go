// Package identity resolves who is signed in and which catalog role they
// hold. Roles live in the profiles table, never in the token.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/angermaster11/eduhub/internal/auth"
	"github.com/angermaster11/eduhub/internal/config"
	"github.com/angermaster11/eduhub/internal/domain"
	"github.com/angermaster11/eduhub/internal/domain/models"
	"github.com/angermaster11/eduhub/internal/domain/repositories"
	"github.com/angermaster11/eduhub/internal/domain/services"
	"github.com/angermaster11/eduhub/internal/events"
)

const dobLayout = "2006-01-02"

// Service implements services.IdentityService
type Service struct {
	provider auth.Provider
	verifier auth.JWTVerifier
	profiles repositories.ProfileRepository
	bus      events.Bus
	logger   *slog.Logger
}

// NewService creates a new identity service
func NewService(
	provider auth.Provider,
	verifier auth.JWTVerifier,
	profiles repositories.ProfileRepository,
	bus events.Bus,
	logger *slog.Logger,
) *Service {
	return &Service{
		provider: provider,
		verifier: verifier,
		profiles: profiles,
		bus:      bus,
		logger:   logger,
	}
}

// SignIn exchanges credentials for a session
func (s *Service) SignIn(ctx context.Context, req *services.SignInRequest) (*models.Session, error) {
	err := validation.ValidateStruct(req,
		validation.Field(&req.Email, validation.Required, is.EmailFormat),
		validation.Field(&req.Password, validation.Required),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	session, err := s.provider.SignInWithPassword(ctx, strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, models.AuthSignedIn, session.User)
	s.logger.Info("user signed in", "user_id", userID(session.User))
	return session, nil
}

// SignUp registers the identity, then fills in the profile row. The role
// is always RoleUser; admins are promoted by an operator.
func (s *Service) SignUp(ctx context.Context, req *services.SignUpRequest) (*services.SignUpResult, error) {
	if err := validateSignUp(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	var dob *time.Time
	if req.DOB != "" {
		parsed, err := time.Parse(dobLayout, req.DOB)
		if err != nil {
			return nil, fmt.Errorf("%w: dob: must be a date like 2006-01-02", domain.ErrValidation)
		}
		dob = &parsed
	}

	displayName := req.DisplayName
	if displayName == "" {
		displayName = req.Name
	}

	session, err := s.provider.SignUp(ctx, strings.TrimSpace(req.Email), req.Password, auth.SignUpMetadata{
		Name:        req.Name,
		DisplayName: displayName,
	})
	if err != nil {
		return nil, err
	}

	profile := &models.Profile{
		UserID:      session.User.ID,
		Name:        req.Name,
		Gender:      req.Gender,
		DOB:         dob,
		Phone:       req.Phone,
		Role:        models.RoleUser,
		DisplayName: displayName,
	}
	if err := s.profiles.Upsert(ctx, profile); err != nil {
		s.logger.Error("failed to store profile after sign-up", "user_id", profile.UserID, "error", err)
		return nil, fmt.Errorf("store profile: %w", err)
	}

	if session.AccessToken != "" {
		s.publish(ctx, models.AuthSignedIn, session.User)
	} else {
		s.publish(ctx, models.AuthUserUpdated, session.User)
	}

	s.logger.Info("user signed up", "user_id", profile.UserID, "confirmed", session.AccessToken != "")
	return &services.SignUpResult{Session: session, Profile: profile}, nil
}

// Refresh trades a refresh token for a new session
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*models.Session, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: refresh_token is required", domain.ErrValidation)
	}

	session, err := s.provider.RefreshSession(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, models.AuthTokenRefreshed, session.User)
	return session, nil
}

// SignOut revokes the session and notifies subscribers
func (s *Service) SignOut(ctx context.Context, accessToken string) error {
	claims, err := s.verifier.VerifyToken(accessToken)
	if err != nil {
		return err
	}

	if err := s.provider.SignOut(ctx, accessToken); err != nil {
		return err
	}

	s.publish(ctx, models.AuthSignedOut, &models.AuthUser{ID: claims.GetUserID()})
	s.logger.Info("user signed out", "user_id", claims.GetUserID())
	return nil
}

// CurrentUserRole resolves the role behind an access token
func (s *Service) CurrentUserRole(ctx context.Context, accessToken string) (models.Role, error) {
	if accessToken == "" {
		return models.RoleNone, nil
	}

	claims, err := s.verifier.VerifyToken(accessToken)
	if errors.Is(err, domain.ErrUnauthorized) {
		// Expired or foreign tokens mean nobody is signed in
		return models.RoleNone, nil
	}
	if err != nil {
		return models.RoleNone, fmt.Errorf("verify token: %w", err)
	}

	return s.RoleForUser(ctx, claims.GetUserID())
}

// RoleForUser reads the role from the user's profile
func (s *Service) RoleForUser(ctx context.Context, userID string) (models.Role, error) {
	if userID == "" {
		return models.RoleNone, nil
	}

	profile, err := s.profiles.GetByUserID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.Debug("no profile row, treating as user", "user_id", userID)
		return models.RoleUser, nil
	}
	if err != nil {
		return models.RoleNone, fmt.Errorf("resolve role: %w", err)
	}

	if profile.Role == models.RoleNone {
		return models.RoleUser, nil
	}
	return profile.Role, nil
}

// Me returns the user with profile and resolved role
func (s *Service) Me(ctx context.Context, user *models.AuthUser) (*services.Identity, error) {
	if user == nil || user.ID == "" {
		return nil, domain.ErrUnauthorized
	}

	identity := &services.Identity{User: user, Role: models.RoleUser}

	profile, err := s.profiles.GetByUserID(ctx, user.ID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("get profile: %w", err)
	default:
		identity.Profile = profile
		if profile.Role != models.RoleNone {
			identity.Role = profile.Role
		}
	}

	return identity, nil
}

// OnAuthStateChange subscribes fn to auth transitions, including those
// relayed from other instances.
func (s *Service) OnAuthStateChange(fn func(models.AuthEvent)) func() {
	return s.bus.Subscribe(events.TopicAuth, func(_ context.Context, e events.Event) {
		fn(models.AuthEvent{
			Type:   models.AuthEventType(e.Type),
			UserID: e.UserID,
			At:     e.At,
		})
	})
}

func (s *Service) publish(ctx context.Context, eventType models.AuthEventType, user *models.AuthUser) {
	err := s.bus.Publish(ctx, events.Event{
		Topic:  events.TopicAuth,
		Type:   string(eventType),
		UserID: userID(user),
	})
	if err != nil {
		s.logger.Warn("failed to publish auth event", "type", eventType, "error", err)
	}
}

func validateSignUp(req *services.SignUpRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Email, validation.Required, is.EmailFormat),
		validation.Field(&req.Password, validation.Required, validation.Length(config.MinPasswordLength, 0)),
		validation.Field(&req.Name, validation.Required, validation.Length(1, config.MaxTitleLength)),
		validation.Field(&req.DisplayName, validation.Length(0, config.MaxTitleLength)),
		validation.Field(&req.Phone, validation.Length(0, 32)),
	)
}

func userID(user *models.AuthUser) string {
	if user == nil {
		return ""
	}
	return user.ID
}

var _ services.IdentityService = (*Service)(nil)
