package auth

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/angermaster11/eduhub/internal/domain"
	"github.com/angermaster11/eduhub/internal/domain/models"
)

// LocalProvider is an in-process identity provider for STORE=memory and
// tests. It issues ES256 access tokens shaped like Supabase's, so the
// same verifier and middleware run against it.
type LocalProvider struct {
	mu       sync.Mutex
	key      *ecdsa.PrivateKey
	users    map[string]*localUser // by lower-cased email
	refresh  map[string]string     // refresh token -> user id
	revoked  map[string]bool       // session ids
	tokenTTL time.Duration
	logger   *slog.Logger
}

type localUser struct {
	user models.AuthUser
	hash []byte
}

// NewLocalProvider generates a signing key and returns an empty provider
func NewLocalProvider(logger *slog.Logger) (*LocalProvider, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate signing key: %w", err)
	}
	return &LocalProvider{
		key:      key,
		users:    make(map[string]*localUser),
		refresh:  make(map[string]string),
		revoked:  make(map[string]bool),
		tokenTTL: time.Hour,
		logger:   logger,
	}, nil
}

// Keyfunc returns the public key for NewStaticJWTVerifier
func (p *LocalProvider) Keyfunc(*jwt.Token) (interface{}, error) {
	return &p.key.PublicKey, nil
}

// CreateUser registers an identity without issuing a session.
func (p *LocalProvider) CreateUser(email, password string) (*models.AuthUser, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := strings.ToLower(email)
	if _, ok := p.users[key]; ok {
		return nil, &domain.ConflictError{Message: "User already registered", ResourceType: "user"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &localUser{
		user: models.AuthUser{ID: uuid.NewString(), Email: email, CreatedAt: time.Now()},
		hash: hash,
	}
	p.users[key] = u
	user := u.user
	return &user, nil
}

// SignInWithPassword checks the password and issues a session
func (p *LocalProvider) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	p.mu.Lock()
	u, ok := p.users[strings.ToLower(email)]
	p.mu.Unlock()

	if !ok || bcrypt.CompareHashAndPassword(u.hash, []byte(password)) != nil {
		return nil, fmt.Errorf("%w: Invalid login credentials", domain.ErrUnauthorized)
	}
	return p.issue(u.user)
}

// SignUp creates the identity and signs it in; local accounts need no
// email confirmation.
func (p *LocalProvider) SignUp(ctx context.Context, email, password string, meta SignUpMetadata) (*models.Session, error) {
	user, err := p.CreateUser(email, password)
	if err != nil {
		return nil, err
	}
	return p.issue(*user)
}

// GetUser verifies the token and returns its user
func (p *LocalProvider) GetUser(ctx context.Context, accessToken string) (*models.AuthUser, error) {
	claims, err := p.parse(accessToken)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, u := range p.users {
		if u.user.ID == claims.Subject {
			user := u.user
			return &user, nil
		}
	}
	return nil, domain.ErrUnauthorized
}

// RefreshSession rotates the refresh token
func (p *LocalProvider) RefreshSession(ctx context.Context, refreshToken string) (*models.Session, error) {
	p.mu.Lock()
	userID, ok := p.refresh[refreshToken]
	delete(p.refresh, refreshToken)
	var user models.AuthUser
	for _, u := range p.users {
		if u.user.ID == userID {
			user = u.user
		}
	}
	p.mu.Unlock()

	if !ok || user.ID == "" {
		return nil, fmt.Errorf("%w: Invalid Refresh Token", domain.ErrUnauthorized)
	}
	return p.issue(user)
}

// SignOut revokes the session the token belongs to
func (p *LocalProvider) SignOut(ctx context.Context, accessToken string) error {
	claims, err := p.parse(accessToken)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.revoked[claims.SessionID] = true
	for token, userID := range p.refresh {
		if userID == claims.Subject {
			delete(p.refresh, token)
		}
	}
	p.mu.Unlock()
	return nil
}

func (p *LocalProvider) issue(user models.AuthUser) (*models.Session, error) {
	now := time.Now()
	expires := now.Add(p.tokenTTL)

	claims := models.SupabaseClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			Audience:  jwt.ClaimStrings{"authenticated"},
		},
		Email:     user.Email,
		Role:      "authenticated",
		SessionID: uuid.NewString(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodES256, claims).SignedString(p.key)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}
	refreshToken := hex.EncodeToString(buf)

	p.mu.Lock()
	p.refresh[refreshToken] = user.ID
	p.mu.Unlock()

	return &models.Session{
		AccessToken:  signed,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int(p.tokenTTL.Seconds()),
		ExpiresAt:    expires.Unix(),
		User:         &user,
	}, nil
}

func (p *LocalProvider) parse(accessToken string) (*models.SupabaseClaims, error) {
	claims := &models.SupabaseClaims{}
	_, err := jwt.ParseWithClaims(accessToken, claims, p.Keyfunc, jwt.WithValidMethods(allowedAlgorithms))
	if err != nil {
		return nil, domain.ErrUnauthorized
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.revoked[claims.SessionID] {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}

var _ Provider = (*LocalProvider)(nil)
