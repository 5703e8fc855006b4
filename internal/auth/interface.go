package auth

import (
	"context"

	"github.com/angermaster11/eduhub/internal/domain/models"
)

// JWTVerifier defines the interface for JWT token verification.
// This abstraction allows for different JWT verification implementations
// while keeping the middleware agnostic to the verification details.
type JWTVerifier interface {
	// VerifyToken validates a JWT token string and returns the parsed claims.
	// Returns domain.ErrUnauthorized if the token is invalid, expired, or has an
	// invalid signature, and a *domain.StoreError if the keys could not be loaded.
	VerifyToken(tokenString string) (*models.SupabaseClaims, error)

	// Close releases any resources held by the verifier (e.g., HTTP connections for JWKS).
	// Should be called when the verifier is no longer needed.
	Close() error
}

// SignUpMetadata is stored as user_metadata on the auth user.
type SignUpMetadata struct {
	Name        string `json:"name,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// Provider is the hosted identity provider. Implementations never return
// a catalog role; roles come from the profiles table.
type Provider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error)

	// SignUp returns a session when the project auto-confirms emails,
	// otherwise a session with only User set.
	SignUp(ctx context.Context, email, password string, meta SignUpMetadata) (*models.Session, error)

	GetUser(ctx context.Context, accessToken string) (*models.AuthUser, error)
	RefreshSession(ctx context.Context, refreshToken string) (*models.Session, error)
	SignOut(ctx context.Context, accessToken string) error
}
