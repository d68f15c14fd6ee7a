package api

import (
	"fmt"
	"net/http"

	"github.com/kanbanhq/taskboard/pkg/auth"
	"github.com/kanbanhq/taskboard/pkg/httputil"
	"github.com/kanbanhq/taskboard/pkg/middleware"
)

// Registration creates a new user account and issues an API token
func (s *Server) Registration(w http.ResponseWriter, r *http.Request) {
	var req RegistrationRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	if !httputil.RequireNonEmpty(w, req.Email, "email") {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Fullname, "fullname") {
		return
	}
	if len(req.Password) < auth.MinPasswordLength {
		httputil.WriteValidationError(w, fmt.Sprintf("password must be at least %d characters", auth.MinPasswordLength))
		return
	}
	if req.Password != req.RepeatedPassword {
		httputil.WriteValidationError(w, "passwords do not match")
		return
	}

	user, err := s.auth.Register(r.Context(), req.Email, req.Fullname, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	_, token, err := s.auth.IssueToken(r.Context(), user.ID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to issue token after registration")
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteCreated(w, TokenResponse{
		Token:    token,
		Fullname: user.Fullname,
		Email:    user.Email,
		UserID:   user.ID,
	})
}

// Login authenticates a user and issues a fresh API token
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	user, err := s.auth.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		// Bad credentials read the same as an unknown email
		httputil.WriteValidationError(w, "invalid email or password")
		return
	}

	_, token, err := s.auth.IssueToken(r.Context(), user.ID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to issue token on login")
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, TokenResponse{
		Token:    token,
		Fullname: user.Fullname,
		Email:    user.Email,
		UserID:   user.ID,
	})
}

// Logout revokes the token presented on this request
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	authCtx := middleware.GetAuthContext(r)
	if authCtx == nil || authCtx.Token == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	if err := s.auth.RevokeToken(r.Context(), authCtx.Token.TokenHash); err != nil {
		writeServiceError(w, err)
		return
	}

	httputil.WriteSuccess(w, map[string]string{"detail": "logged out"})
}

// Profile returns the authenticated user
func (s *Server) Profile(w http.ResponseWriter, r *http.Request) {
	authCtx := middleware.GetAuthContext(r)
	if authCtx == nil || authCtx.User == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	httputil.WriteSuccess(w, authCtx.User)
}

// EmailCheck looks up a user by email, for the member picker UI
func (s *Server) EmailCheck(w http.ResponseWriter, r *http.Request) {
	email := httputil.ParseQueryString(r, "email", "")
	if email == "" {
		httputil.WriteValidationError(w, "email query parameter is required")
		return
	}

	user, err := s.auth.GetUserByEmail(r.Context(), email)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httputil.WriteSuccess(w, map[string]interface{}{
		"id":       user.ID,
		"email":    user.Email,
		"fullname": user.Fullname,
	})
}
