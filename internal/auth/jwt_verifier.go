package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/angermaster11/eduhub/internal/domain"
	"github.com/angermaster11/eduhub/internal/domain/models"
)

// allowedAlgorithms prevents algorithm confusion attacks
var allowedAlgorithms = []string{"RS256", "ES256"}

// errKeySetUnavailable marks a key lookup that failed for reasons other
// than the token itself, such as an unreachable JWKS endpoint.
var errKeySetUnavailable = errors.New("signing keys unavailable")

// SupabaseJWTVerifier implements JWTVerifier using JWKS from Supabase.
type SupabaseJWTVerifier struct {
	keyfunc jwt.Keyfunc
	cancel  context.CancelFunc
	logger  *slog.Logger
}

// NewJWTVerifier creates a new JWT verifier that fetches public keys from Supabase's JWKS endpoint.
// The JWKS keys are cached and refreshed in the background until Close is called.
func NewJWTVerifier(jwksURL string, logger *slog.Logger) (JWTVerifier, error) {
	if jwksURL == "" {
		return nil, errors.New("JWKS URL cannot be empty")
	}

	ctx, cancel := context.WithCancel(context.Background())
	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create JWKS client: %w", err)
	}

	logger.Info("JWT verifier initialized", "jwks_url", jwksURL)

	return &SupabaseJWTVerifier{
		keyfunc: jwks.Keyfunc,
		cancel:  cancel,
		logger:  logger,
	}, nil
}

// NewStaticJWTVerifier verifies tokens with a fixed key lookup. It backs
// the memory store mode and tests, where no JWKS endpoint exists.
func NewStaticJWTVerifier(keyfunc jwt.Keyfunc, logger *slog.Logger) JWTVerifier {
	return &SupabaseJWTVerifier{
		keyfunc: keyfunc,
		cancel:  func() {},
		logger:  logger,
	}
}

// VerifyToken validates a JWT token and extracts Supabase claims.
// Returns domain.ErrUnauthorized if the token is invalid, expired, or has incorrect claims,
// and a *domain.StoreError when the signing keys could not be loaded.
func (v *SupabaseJWTVerifier) VerifyToken(tokenString string) (*models.SupabaseClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.SupabaseClaims{}, v.lookupKey,
		jwt.WithValidMethods(allowedAlgorithms))
	if errors.Is(err, errKeySetUnavailable) {
		v.logger.Warn("token could not be checked", "error", err)
		return nil, &domain.StoreError{Op: "fetch signing keys", Cause: err}
	}
	if err != nil {
		v.logger.Debug("token rejected", "error", err)
		return nil, domain.ErrUnauthorized
	}

	if !token.Valid {
		v.logger.Debug("token is invalid after parsing")
		return nil, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(*models.SupabaseClaims)
	if !ok {
		v.logger.Error("failed to extract claims from token")
		return nil, domain.ErrUnauthorized
	}

	// Validate user ID exists (sub claim)
	if claims.Subject == "" {
		v.logger.Debug("token missing subject claim")
		return nil, domain.ErrUnauthorized
	}

	// Reject anonymous tokens
	if claims.Role != "authenticated" {
		v.logger.Warn("token has invalid role",
			"role", claims.Role,
			"expected", "authenticated",
			"user_id", claims.Subject,
		)
		return nil, domain.ErrUnauthorized
	}

	return claims, nil
}

// lookupKey runs the key lookup and tags failures that do not come from
// the token: an unknown kid or a malformed kid header is the token's fault.
func (v *SupabaseJWTVerifier) lookupKey(token *jwt.Token) (interface{}, error) {
	key, err := v.keyfunc(token)
	if err == nil || errors.Is(err, jwkset.ErrKeyNotFound) {
		return key, err
	}
	if kid, ok := token.Header[jwkset.HeaderKID]; ok {
		if _, isString := kid.(string); !isString {
			return nil, err
		}
	}
	return nil, errors.Join(errKeySetUnavailable, err)
}

// Close stops the background JWKS refresh.
func (v *SupabaseJWTVerifier) Close() error {
	v.cancel()
	v.logger.Info("JWT verifier closed")
	return nil
}
