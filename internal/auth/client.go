package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/angermaster11/eduhub/internal/domain"
	"github.com/angermaster11/eduhub/internal/domain/models"
)

// Client talks to the Supabase GoTrue REST API with the project's public
// (anon) key. Each call is a single round trip; nothing is retried.
type Client struct {
	supabaseURL string
	anonKey     string
	httpClient  *http.Client
	logger      *slog.Logger
}

// NewClient creates a GoTrue client
func NewClient(supabaseURL, anonKey string, logger *slog.Logger) *Client {
	return &Client{
		supabaseURL: strings.TrimRight(supabaseURL, "/"),
		anonKey:     anonKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}
}

// gotrueUser is the user object GoTrue returns
type gotrueUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *gotrueUser) toModel() *models.AuthUser {
	if u == nil || u.ID == "" {
		return nil
	}
	return &models.AuthUser{ID: u.ID, Email: u.Email, Phone: u.Phone, CreatedAt: u.CreatedAt}
}

// gotrueSession covers both token responses and the unconfirmed sign-up
// response, which is a bare user object.
type gotrueSession struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	TokenType    string      `json:"token_type"`
	ExpiresIn    int         `json:"expires_in"`
	ExpiresAt    int64       `json:"expires_at"`
	User         *gotrueUser `json:"user"`
	gotrueUser
}

func (s *gotrueSession) toModel() *models.Session {
	session := &models.Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    s.TokenType,
		ExpiresIn:    s.ExpiresIn,
		ExpiresAt:    s.ExpiresAt,
		User:         s.User.toModel(),
	}
	if session.User == nil {
		session.User = s.gotrueUser.toModel()
	}
	return session
}

// gotrueError is the union of the error shapes GoTrue has used
type gotrueError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (e gotrueError) text() string {
	for _, s := range []string{e.Msg, e.ErrorDescription, e.Message, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

// SignInWithPassword exchanges credentials for a session
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	var resp gotrueSession
	err := c.do(ctx, "sign in", http.MethodPost, "/auth/v1/token?grant_type=password", "",
		map[string]string{"email": email, "password": password}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.toModel(), nil
}

// SignUp registers a new identity. The profile row is filled in by the
// identity service afterwards.
func (c *Client) SignUp(ctx context.Context, email, password string, meta SignUpMetadata) (*models.Session, error) {
	payload := map[string]interface{}{
		"email":    email,
		"password": password,
		"data":     meta,
	}

	var resp gotrueSession
	if err := c.do(ctx, "sign up", http.MethodPost, "/auth/v1/signup", "", payload, &resp); err != nil {
		return nil, err
	}

	session := resp.toModel()
	if session.User == nil {
		return nil, &domain.StoreError{Op: "sign up", Cause: errors.New("response carried no user")}
	}
	return session, nil
}

// GetUser resolves an access token to its user
func (c *Client) GetUser(ctx context.Context, accessToken string) (*models.AuthUser, error) {
	var resp gotrueUser
	if err := c.do(ctx, "get user", http.MethodGet, "/auth/v1/user", accessToken, nil, &resp); err != nil {
		return nil, err
	}
	user := resp.toModel()
	if user == nil {
		return nil, domain.ErrUnauthorized
	}
	return user, nil
}

// RefreshSession trades a refresh token for a new session
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*models.Session, error) {
	var resp gotrueSession
	err := c.do(ctx, "refresh session", http.MethodPost, "/auth/v1/token?grant_type=refresh_token", "",
		map[string]string{"refresh_token": refreshToken}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.toModel(), nil
}

// SignOut revokes the session behind accessToken
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, "sign out", http.MethodPost, "/auth/v1/logout", accessToken, nil, nil)
}

// do sends one request. bearer defaults to the anon key.
func (c *Client) do(ctx context.Context, op, method, path, bearer string, body, dest interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal %s request: %w", op, err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.supabaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", op, err)
	}

	if bearer == "" {
		bearer = c.anonKey
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.StoreError{Op: op, Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.StoreError{Op: op, Cause: err}
	}

	if resp.StatusCode >= 300 {
		return c.classify(op, resp.StatusCode, respBody)
	}

	if dest == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, dest); err != nil {
		return &domain.StoreError{Op: op, Cause: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// classify maps a GoTrue error response onto domain errors
func (c *Client) classify(op string, status int, body []byte) error {
	var apiErr gotrueError
	_ = json.Unmarshal(body, &apiErr)
	msg := apiErr.text()
	if msg == "" {
		msg = http.StatusText(status)
	}

	c.logger.Debug("identity provider rejected request", "op", op, "status", status, "message", msg)

	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "already registered") || apiErr.ErrorCode == "user_already_exists":
		return &domain.ConflictError{Message: msg, ResourceType: "user"}
	case status == http.StatusBadRequest && (apiErr.Error == "invalid_grant" || apiErr.ErrorCode == "invalid_credentials"):
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, msg)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, msg)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", domain.ErrValidation, msg)
	}
	return &domain.StoreError{Op: op, Cause: fmt.Errorf("status %d: %s", status, msg)}
}

var _ Provider = (*Client)(nil)
