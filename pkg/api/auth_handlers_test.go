package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanbanhq/taskboard/pkg/auth"
)

func TestRegistration(t *testing.T) {
	env := newTestEnv(t)

	env.auth.registerFn = func(ctx context.Context, email, fullname, password string) (*auth.User, error) {
		return &auth.User{ID: 5, Email: email, Fullname: fullname, IsActive: true}, nil
	}
	env.auth.issueTokenFn = func(ctx context.Context, userID int64) (*auth.APIToken, string, error) {
		require.Equal(t, int64(5), userID)
		return &auth.APIToken{ID: 9, UserID: userID}, "tb_fresh-token", nil
	}

	rec := env.request(t, http.MethodPost, "/api/registration", RegistrationRequest{
		Email:            "dave@example.com",
		Fullname:         "Dave",
		Password:         "hunter2hunter2",
		RepeatedPassword: "hunter2hunter2",
	}, false)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp TokenResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "tb_fresh-token", resp.Token)
	assert.Equal(t, "dave@example.com", resp.Email)
	assert.Equal(t, int64(5), resp.UserID)
}

func TestRegistrationValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		req  RegistrationRequest
	}{
		{"missing email", RegistrationRequest{Fullname: "Dave", Password: "hunter2hunter2", RepeatedPassword: "hunter2hunter2"}},
		{"missing fullname", RegistrationRequest{Email: "dave@example.com", Password: "hunter2hunter2", RepeatedPassword: "hunter2hunter2"}},
		{"short password", RegistrationRequest{Email: "dave@example.com", Fullname: "Dave", Password: "short", RepeatedPassword: "short"}},
		{"password mismatch", RegistrationRequest{Email: "dave@example.com", Fullname: "Dave", Password: "hunter2hunter2", RepeatedPassword: "different-pass"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.request(t, http.MethodPost, "/api/registration", tt.req, false)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestRegistrationEmailTaken(t *testing.T) {
	env := newTestEnv(t)

	env.auth.registerFn = func(ctx context.Context, email, fullname, password string) (*auth.User, error) {
		return nil, auth.ErrEmailTaken
	}

	rec := env.request(t, http.MethodPost, "/api/registration", RegistrationRequest{
		Email:            "alice@example.com",
		Fullname:         "Alice",
		Password:         "hunter2hunter2",
		RepeatedPassword: "hunter2hunter2",
	}, false)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	env.auth.authenticateFn = func(ctx context.Context, email, password string) (*auth.User, error) {
		require.Equal(t, "alice@example.com", email)
		return alice, nil
	}
	env.auth.issueTokenFn = func(ctx context.Context, userID int64) (*auth.APIToken, string, error) {
		return &auth.APIToken{ID: 9, UserID: userID}, "tb_fresh-token", nil
	}

	rec := env.request(t, http.MethodPost, "/api/login", LoginRequest{
		Email:    "alice@example.com",
		Password: "hunter2hunter2",
	}, false)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp TokenResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "tb_fresh-token", resp.Token)
	assert.Equal(t, "Alice", resp.Fullname)
}

func TestLoginBadCredentials(t *testing.T) {
	env := newTestEnv(t)

	env.auth.authenticateFn = func(ctx context.Context, email, password string) (*auth.User, error) {
		return nil, auth.ErrInvalidCredentials
	}

	rec := env.request(t, http.MethodPost, "/api/login", LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong",
	}, false)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)

	var revokedHash string
	env.auth.revokeTokenFn = func(ctx context.Context, tokenHash string) error {
		revokedHash = tokenHash
		return nil
	}

	rec := env.request(t, http.MethodPost, "/api/logout", nil, true)

	require.Equal(t, http.StatusOK, rec.Code)
	// The stored hash from the presented token is what gets revoked
	assert.Equal(t, "stored-hash", revokedHash)
}

func TestProfile(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodGet, "/api/profile", nil, true)

	require.Equal(t, http.StatusOK, rec.Code)
	var user auth.User
	decodeBody(t, rec, &user)
	assert.Equal(t, alice.ID, user.ID)
	assert.Equal(t, alice.Email, user.Email)
}

func TestEmailCheck(t *testing.T) {
	env := newTestEnv(t)

	env.auth.getUserByEmailFn = func(ctx context.Context, email string) (*auth.User, error) {
		if email == "bob@example.com" {
			return &auth.User{ID: 2, Email: email, Fullname: "Bob"}, nil
		}
		return nil, auth.ErrUserNotFound
	}

	rec := env.request(t, http.MethodGet, "/api/email-check?email=bob@example.com", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]interface{}
	decodeBody(t, rec, &resp)
	assert.Equal(t, "Bob", resp["fullname"])

	rec = env.request(t, http.MethodGet, "/api/email-check?email=ghost@example.com", nil, false)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.request(t, http.MethodGet, "/api/email-check", nil, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
