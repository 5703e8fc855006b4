package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MicahParks/jwkset"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angermaster11/eduhub/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClient_SignInWithPassword(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "anon", r.Header.Get("apikey"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		if body["password"] != "secret1" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
			return
		}
		w.Write([]byte(`{
			"access_token":"at","refresh_token":"rt","token_type":"bearer","expires_in":3600,
			"user":{"id":"u1","email":"asha@example.com"}
		}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", "anon", testLogger())

	session, err := client.SignInWithPassword(context.Background(), "asha@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "at", session.AccessToken)
	require.NotNil(t, session.User)
	assert.Equal(t, "u1", session.User.ID)

	_, err = client.SignInWithPassword(context.Background(), "asha@example.com", "wrong")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestClient_SignUpUnconfirmedReturnsUserOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/signup", r.URL.Path)

		var body struct {
			Email string         `json:"email"`
			Data  SignUpMetadata `json:"data"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Asha", body.Data.Name)

		w.Write([]byte(`{"id":"u2","email":"asha@example.com","created_at":"2024-01-02T03:04:05Z"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "anon", testLogger())
	session, err := client.SignUp(context.Background(), "asha@example.com", "secret1", SignUpMetadata{Name: "Asha"})
	require.NoError(t, err)
	assert.Empty(t, session.AccessToken)
	require.NotNil(t, session.User)
	assert.Equal(t, "u2", session.User.ID)
}

func TestClient_ErrorClassification(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"already registered", http.StatusUnprocessableEntity, `{"code":422,"msg":"User already registered"}`, domain.ErrConflict},
		{"weak password", http.StatusUnprocessableEntity, `{"code":422,"msg":"Password should be at least 6 characters"}`, domain.ErrValidation},
		{"expired token", http.StatusUnauthorized, `{"msg":"invalid JWT"}`, domain.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient(srv.URL, "anon", testLogger())
			_, err := client.SignUp(context.Background(), "a@example.com", "x", SignUpMetadata{})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("server error is a store error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		client := NewClient(srv.URL, "anon", testLogger())
		_, err := client.GetUser(context.Background(), "token")

		var storeErr *domain.StoreError
		require.ErrorAs(t, err, &storeErr)
		assert.Equal(t, "get user", storeErr.Op)
	})
}

func TestLocalProvider_TokensVerify(t *testing.T) {
	provider, err := NewLocalProvider(testLogger())
	require.NoError(t, err)
	verifier := NewStaticJWTVerifier(provider.Keyfunc, testLogger())
	ctx := context.Background()

	session, err := provider.SignUp(ctx, "Ravi@example.com", "secret1", SignUpMetadata{})
	require.NoError(t, err)

	claims, err := verifier.VerifyToken(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, claims.GetUserID())

	_, err = provider.SignInWithPassword(ctx, "ravi@example.com", "nope")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = provider.SignUp(ctx, "ravi@example.com", "secret1", SignUpMetadata{})
	assert.ErrorIs(t, err, domain.ErrConflict)

	refreshed, err := provider.RefreshSession(ctx, session.RefreshToken)
	require.NoError(t, err)
	_, err = provider.RefreshSession(ctx, session.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrUnauthorized, "refresh tokens are single use")

	require.NoError(t, provider.SignOut(ctx, refreshed.AccessToken))
	_, err = provider.GetUser(ctx, refreshed.AccessToken)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestVerifier_RejectsGarbage(t *testing.T) {
	provider, err := NewLocalProvider(testLogger())
	require.NoError(t, err)
	verifier := NewStaticJWTVerifier(provider.Keyfunc, testLogger())

	_, err = verifier.VerifyToken("not-a-token")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestVerifier_KeyLookupFailures(t *testing.T) {
	provider, err := NewLocalProvider(testLogger())
	require.NoError(t, err)
	session, err := provider.SignUp(context.Background(), "lin@example.com", "secret1", SignUpMetadata{})
	require.NoError(t, err)

	t.Run("unreachable key set is a store error", func(t *testing.T) {
		verifier := NewStaticJWTVerifier(func(*jwt.Token) (interface{}, error) {
			return nil, errors.New("dial tcp: connection refused")
		}, testLogger())

		_, err := verifier.VerifyToken(session.AccessToken)
		var storeErr *domain.StoreError
		require.ErrorAs(t, err, &storeErr)
		assert.Equal(t, "fetch signing keys", storeErr.Op)
		assert.NotErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("unknown key id is unauthorized", func(t *testing.T) {
		verifier := NewStaticJWTVerifier(func(*jwt.Token) (interface{}, error) {
			return nil, fmt.Errorf("read key: %w", jwkset.ErrKeyNotFound)
		}, testLogger())

		_, err := verifier.VerifyToken(session.AccessToken)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}
