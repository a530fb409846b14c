package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/iliyamo/shopverse/internal/model"
	"github.com/iliyamo/shopverse/internal/repository"
	"github.com/iliyamo/shopverse/internal/utils"
)

// PasswordHasher is the digest capability used for credentials.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(hash, plain string) bool
}

// Credentials is what a successful login or registration hands back to
// the transport: a signed token wrapping the new session id.
type Credentials struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const (
	minPasswordLen = 6
	// bcrypt refuses longer input
	maxPasswordLen = 72
)

// AuthService owns registration, login and session resolution.
type AuthService struct {
	store  repository.Store
	hasher PasswordHasher
	secret string
	ttl    time.Duration
}

// NewAuthService returns an AuthService.  ttl is the session lifetime
// and secret signs the session envelope.
func NewAuthService(store repository.Store, hasher PasswordHasher, secret string, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &AuthService{store: store, hasher: hasher, secret: secret, ttl: ttl}
}

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// Login verifies credentials and opens a session.  Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (model.AuthUser, Credentials, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return model.AuthUser{}, Credentials{}, invalid("email", "email and password are required")
	}
	u, found, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return model.AuthUser{}, Credentials{}, fmt.Errorf("lookup user: %w", err)
	}
	if !found || !s.hasher.Verify(u.PasswordHash, password) {
		return model.AuthUser{}, Credentials{}, ErrInvalidCredentials
	}
	creds, err := s.openSession(ctx, u.ID)
	if err != nil {
		return model.AuthUser{}, Credentials{}, err
	}
	return u.Auth(), creds, nil
}

// Register creates a user with the default role and logs them in.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (model.AuthUser, Credentials, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" {
		return model.AuthUser{}, Credentials{}, invalid("name", "name is required")
	}
	if len(name) > 100 {
		return model.AuthUser{}, Credentials{}, invalid("name", "name cannot exceed 100 characters")
	}
	if !emailPattern.MatchString(email) {
		return model.AuthUser{}, Credentials{}, ErrInvalidEmail
	}
	if len(password) < minPasswordLen {
		return model.AuthUser{}, Credentials{}, ErrWeakPassword
	}
	if len(password) > maxPasswordLen {
		return model.AuthUser{}, Credentials{}, ErrPasswordTooLong
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return model.AuthUser{}, Credentials{}, err
	}
	u, err := s.store.CreateUser(ctx, model.User{Name: name, Email: email, PasswordHash: hash, Role: model.RoleUser})
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return model.AuthUser{}, Credentials{}, ErrDuplicateEmail
		}
		return model.AuthUser{}, Credentials{}, fmt.Errorf("create user: %w", err)
	}
	creds, err := s.openSession(ctx, u.ID)
	if err != nil {
		return model.AuthUser{}, Credentials{}, err
	}
	return u.Auth(), creds, nil
}

func (s *AuthService) openSession(ctx context.Context, userID string) (Credentials, error) {
	sess, err := s.store.CreateSession(ctx, userID, s.ttl)
	if err != nil {
		return Credentials{}, fmt.Errorf("create session: %w", err)
	}
	tok, err := utils.SignSessionToken(s.secret, userID, sess.ID, sess.ExpiresAt)
	if err != nil {
		_, _ = s.store.DeleteSession(ctx, sess.ID)
		return Credentials{}, fmt.Errorf("sign session: %w", err)
	}
	return Credentials{Token: tok, ExpiresAt: sess.ExpiresAt}, nil
}

// CurrentUser resolves a token to its user.  A bad signature, an
// expired or revoked session and a deleted user all report not found.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (model.AuthUser, bool, error) {
	if token == "" {
		return model.AuthUser{}, false, nil
	}
	sid, err := utils.ParseSessionToken(s.secret, token)
	if err != nil {
		return model.AuthUser{}, false, nil
	}
	sess, found, err := s.store.GetSession(ctx, sid)
	if err != nil || !found {
		return model.AuthUser{}, false, err
	}
	u, found, err := s.store.GetUserByID(ctx, sess.UserID)
	if err != nil || !found {
		return model.AuthUser{}, false, err
	}
	return u.Auth(), true, nil
}

// RequireRole resolves the token and checks the role.  Admins satisfy
// every role.
func (s *AuthService) RequireRole(ctx context.Context, token, role string) (model.AuthUser, error) {
	u, found, err := s.CurrentUser(ctx, token)
	if err != nil {
		return model.AuthUser{}, err
	}
	if !found {
		return model.AuthUser{}, ErrUnauthorized
	}
	if !HasRole(u, role) {
		return model.AuthUser{}, ErrForbidden
	}
	return u, nil
}

// HasRole reports whether u may act with role.
func HasRole(u model.AuthUser, role string) bool {
	return role == "" || u.Role == role || u.IsAdmin()
}

// Logout revokes the session behind token.  Unknown or invalid tokens
// are ignored.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	sid, err := utils.ParseSessionToken(s.secret, token)
	if err != nil {
		return nil
	}
	_, err = s.store.DeleteSession(ctx, sid)
	return err
}
