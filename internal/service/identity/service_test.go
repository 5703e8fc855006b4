package identity

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angermaster11/eduhub/internal/auth"
	"github.com/angermaster11/eduhub/internal/domain"
	"github.com/angermaster11/eduhub/internal/domain/models"
	"github.com/angermaster11/eduhub/internal/domain/services"
	"github.com/angermaster11/eduhub/internal/events"
	"github.com/angermaster11/eduhub/internal/repository/memory"
)

type fixture struct {
	svc      *Service
	provider *auth.LocalProvider
	profiles *memory.ProfileRepository
	bus      *events.LocalBus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	provider, err := auth.NewLocalProvider(logger)
	require.NoError(t, err)
	profiles := memory.NewProfileRepository()
	bus := events.NewLocalBus(logger)
	verifier := auth.NewStaticJWTVerifier(provider.Keyfunc, logger)

	return &fixture{
		svc:      NewService(provider, verifier, profiles, bus, logger),
		provider: provider,
		profiles: profiles,
		bus:      bus,
	}
}

func signUpRequest() *services.SignUpRequest {
	return &services.SignUpRequest{
		Email:    "meera@example.com",
		Password: "secret1",
		Name:     "meera",
		Gender:   "female",
		DOB:      "2001-04-09",
		Phone:    "9999999999",
	}
}

func TestCurrentUserRole_NoneThenAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	role, err := f.svc.CurrentUserRole(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, models.RoleNone, role)

	result, err := f.svc.SignUp(ctx, signUpRequest())
	require.NoError(t, err)
	token := result.Session.AccessToken

	role, err = f.svc.CurrentUserRole(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, role)

	require.NoError(t, f.profiles.SetRole(ctx, result.Session.User.ID, models.RoleAdmin))

	role, err = f.svc.CurrentUserRole(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, role)
	assert.True(t, role.IsAdmin())
}

func TestCurrentUserRole_GarbageTokenIsNone(t *testing.T) {
	f := newFixture(t)

	role, err := f.svc.CurrentUserRole(context.Background(), "garbage")
	require.NoError(t, err)
	assert.Equal(t, models.RoleNone, role)
}

func TestRoleForUser_MissingProfileIsUser(t *testing.T) {
	f := newFixture(t)

	role, err := f.svc.RoleForUser(context.Background(), "no-profile")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, role)
}

func TestSignUp_StoresProfileAsUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := signUpRequest()
	result, err := f.svc.SignUp(ctx, req)
	require.NoError(t, err)

	profile, err := f.profiles.GetByUserID(ctx, result.Session.User.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, profile.Role)
	assert.Equal(t, "meera", profile.DisplayName)
	require.NotNil(t, profile.DOB)
	assert.Equal(t, 2001, profile.DOB.Year())
	assert.Equal(t, "M", profile.Initial())
}

func TestSignUp_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *services.SignUpRequest)
	}{
		{"bad email", func(r *services.SignUpRequest) { r.Email = "meera" }},
		{"short password", func(r *services.SignUpRequest) { r.Password = "abc" }},
		{"missing name", func(r *services.SignUpRequest) { r.Name = "" }},
		{"bad dob", func(r *services.SignUpRequest) { r.DOB = "09/04/2001" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := signUpRequest()
			tt.mutate(req)

			_, err := f.svc.SignUp(context.Background(), req)
			assert.ErrorIs(t, err, domain.ErrValidation)

			_, err = f.provider.SignInWithPassword(context.Background(), "meera@example.com", "secret1")
			assert.ErrorIs(t, err, domain.ErrUnauthorized, "no identity may be created")
		})
	}
}

func TestOnAuthStateChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var seen []models.AuthEventType
	unsubscribe := f.svc.OnAuthStateChange(func(e models.AuthEvent) {
		seen = append(seen, e.Type)
	})

	result, err := f.svc.SignUp(ctx, signUpRequest())
	require.NoError(t, err)

	session, err := f.svc.SignIn(ctx, &services.SignInRequest{Email: "meera@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = f.svc.Refresh(ctx, session.RefreshToken)
	require.NoError(t, err)

	require.NoError(t, f.svc.SignOut(ctx, result.Session.AccessToken))

	unsubscribe()
	_, err = f.svc.SignIn(ctx, &services.SignInRequest{Email: "meera@example.com", Password: "secret1"})
	require.NoError(t, err)

	assert.Equal(t, []models.AuthEventType{
		models.AuthSignedIn,
		models.AuthSignedIn,
		models.AuthTokenRefreshed,
		models.AuthSignedOut,
	}, seen)
}

func TestMe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Me(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	result, err := f.svc.SignUp(ctx, signUpRequest())
	require.NoError(t, err)

	identity, err := f.svc.Me(ctx, result.Session.User)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, identity.Role)
	require.NotNil(t, identity.Profile)
	assert.Equal(t, "meera", identity.Profile.Name)
}

func TestCurrentUserRole_KeySetFailureSurfaces(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session, err := f.provider.SignUp(ctx, "kai@example.com", "secret1", auth.SignUpMetadata{})
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	down := auth.NewStaticJWTVerifier(func(*jwt.Token) (interface{}, error) {
		return nil, errors.New("jwks fetch: connection reset")
	}, logger)
	svc := NewService(f.provider, down, f.profiles, f.bus, logger)

	role, err := svc.CurrentUserRole(ctx, session.AccessToken)
	var storeErr *domain.StoreError
	assert.ErrorAs(t, err, &storeErr)
	assert.Equal(t, models.RoleNone, role)
}
