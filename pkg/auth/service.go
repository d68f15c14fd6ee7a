package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Sentinel errors surfaced by the auth service
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// Service defines user identity and token operations
type Service interface {
	Register(ctx context.Context, email, fullname, password string) (*User, error)
	Authenticate(ctx context.Context, email, password string) (*User, error)
	GetUser(ctx context.Context, id int64) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	IssueToken(ctx context.Context, userID int64) (*APIToken, string, error)
	ValidateToken(ctx context.Context, token string) (*AuthContext, error)
	RevokeToken(ctx context.Context, tokenHash string) error
	PurgeExpiredTokens(ctx context.Context) (int64, error)
}

// PostgresService implements the Service interface using PostgreSQL
type PostgresService struct {
	db        *sql.DB
	generator *TokenGenerator
	tokenTTL  time.Duration
}

// NewPostgresService creates a new PostgresService. A zero tokenTTL issues
// tokens without an expiry, matching the original deployment.
func NewPostgresService(db *sql.DB, tokenTTL time.Duration) *PostgresService {
	return &PostgresService{
		db:        db,
		generator: NewTokenGenerator(),
		tokenTTL:  tokenTTL,
	}
}

// Register creates a new user with a bcrypt-hashed password
func (s *PostgresService) Register(ctx context.Context, email, fullname, password string) (*User, error) {
	passwordHash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &User{Email: email, Fullname: fullname, IsActive: true}
	query := `
		INSERT INTO users (email, fullname, password_hash, is_active)
		VALUES ($1, $2, $3, true)
		RETURNING id, created_at, updated_at
	`
	err = s.db.QueryRowContext(ctx, query, email, fullname, passwordHash).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Authenticate verifies email/password credentials
func (s *PostgresService) Authenticate(ctx context.Context, email, password string) (*User, error) {
	query := `
		SELECT id, email, fullname, password_hash, is_active, created_at, updated_at
		FROM users
		WHERE email = $1 AND is_active = true
	`
	user := &User{}
	var passwordHash string
	err := s.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.Fullname, &passwordHash,
		&user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		// Burn a comparison anyway so response timing does not reveal
		// whether the email exists.
		CheckPassword("$2a$10$invalidinvalidinvalidinvalidinvalidinvalidinvalidinva", password)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !CheckPassword(passwordHash, password) {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetUser retrieves a user by ID
func (s *PostgresService) GetUser(ctx context.Context, id int64) (*User, error) {
	return s.getUser(ctx, `WHERE id = $1 AND is_active = true`, id)
}

// GetUserByEmail retrieves a user by email
func (s *PostgresService) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.getUser(ctx, `WHERE email = $1 AND is_active = true`, email)
}

func (s *PostgresService) getUser(ctx context.Context, where string, arg interface{}) (*User, error) {
	query := `
		SELECT id, email, fullname, is_active, created_at, updated_at
		FROM users
	` + where
	user := &User{}
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.Fullname,
		&user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// IssueToken creates a new API token for the user and returns the token
// record plus the plaintext token. The plaintext is never stored.
func (s *PostgresService) IssueToken(ctx context.Context, userID int64) (*APIToken, string, error) {
	token, tokenHash, tokenPrefix, err := s.generator.GenerateToken()
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	apiToken := &APIToken{
		UserID:      userID,
		TokenHash:   tokenHash,
		TokenPrefix: tokenPrefix,
	}
	if s.tokenTTL > 0 {
		expiresAt := time.Now().Add(s.tokenTTL)
		apiToken.ExpiresAt = &expiresAt
	}

	query := `
		INSERT INTO api_tokens (user_id, token_hash, token_prefix, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	var expiresAt sql.NullTime
	if apiToken.ExpiresAt != nil {
		expiresAt = sql.NullTime{Time: *apiToken.ExpiresAt, Valid: true}
	}
	err = s.db.QueryRowContext(ctx, query, userID, tokenHash, tokenPrefix, expiresAt).
		Scan(&apiToken.ID, &apiToken.CreatedAt)
	if err != nil {
		return nil, "", fmt.Errorf("failed to store token: %w", err)
	}

	return apiToken, token, nil
}

// ValidateToken resolves a presented bearer token to an AuthContext
func (s *PostgresService) ValidateToken(ctx context.Context, token string) (*AuthContext, error) {
	if err := s.generator.ValidateTokenFormat(token); err != nil {
		return nil, ErrInvalidToken
	}
	tokenHash := s.generator.HashToken(token)

	query := `
		SELECT t.id, t.user_id, t.token_hash, t.token_prefix, t.created_at, t.expires_at, t.revoked_at,
		       u.id, u.email, u.fullname, u.is_active, u.created_at, u.updated_at
		FROM api_tokens t
		JOIN users u ON u.id = t.user_id
		WHERE t.token_hash = $1
	`
	apiToken := &APIToken{}
	user := &User{}
	var expiresAt, revokedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, query, tokenHash).Scan(
		&apiToken.ID, &apiToken.UserID, &apiToken.TokenHash, &apiToken.TokenPrefix,
		&apiToken.CreatedAt, &expiresAt, &revokedAt,
		&user.ID, &user.Email, &user.Fullname, &user.IsActive,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up token: %w", err)
	}

	if expiresAt.Valid {
		apiToken.ExpiresAt = &expiresAt.Time
	}
	if revokedAt.Valid {
		apiToken.RevokedAt = &revokedAt.Time
	}

	if !apiToken.IsValid(time.Now()) || !user.IsActive {
		return nil, ErrInvalidToken
	}

	return &AuthContext{User: user, Token: apiToken}, nil
}

// RevokeToken marks a token as revoked by its hash
func (s *PostgresService) RevokeToken(ctx context.Context, tokenHash string) error {
	query := `UPDATE api_tokens SET revoked_at = NOW() WHERE token_hash = $1 AND revoked_at IS NULL`
	result, err := s.db.ExecContext(ctx, query, tokenHash)
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrInvalidToken
	}

	return nil
}

// PurgeExpiredTokens deletes tokens that are expired or were revoked more
// than a day ago. Run periodically from the maintenance cron.
func (s *PostgresService) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	query := `
		DELETE FROM api_tokens
		WHERE (expires_at IS NOT NULL AND expires_at < NOW())
		   OR (revoked_at IS NOT NULL AND revoked_at < NOW() - INTERVAL '1 day')
	`
	result, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to purge tokens: %w", err)
	}
	return result.RowsAffected()
}
