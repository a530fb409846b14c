package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/shopverse/internal/model"
)

func TestAuthService_RegisterThenLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, creds, err := f.auth.Register(ctx, "  Kofi Mensah ", "Kofi@Example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "Kofi Mensah", u.Name)
	assert.Equal(t, "kofi@example.com", u.Email)
	assert.Equal(t, model.RoleUser, u.Role)
	assert.NotEmpty(t, creds.Token)

	logged, creds2, err := f.auth.Login(ctx, "KOFI@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, logged.ID)
	assert.NotEqual(t, creds.Token, creds2.Token)

	me, found, err := f.auth.CurrentUser(ctx, creds2.Token)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, u.ID, me.ID)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	tests := []struct {
		name     string
		userName string
		email    string
		password string
		wantErr  error
	}{
		{"missing name", " ", "a@b.co", "secret1", ErrValidation},
		{"bad email", "A", "not-an-email", "secret1", ErrInvalidEmail},
		{"email without tld", "A", "a@b", "secret1", ErrInvalidEmail},
		{"short password", "A", "a@b.co", "12345", ErrWeakPassword},
		{"password over 72 bytes", "A", "long@example.com", strings.Repeat("a", 80), ErrPasswordTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, _, err := f.auth.Register(context.Background(), tt.userName, tt.email, tt.password)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Zero(t, f.store.sessions.Load())
		})
	}
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "ama@example.com")

	_, _, err := f.auth.Register(ctx, "Ama Two", " AMA@example.com ", "secret1")
	assert.ErrorIs(t, err, ErrDuplicateEmail)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestAuthService_LoginFailureCreatesNoSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "ama@example.com")
	before := f.store.sessions.Load()

	_, _, err := f.auth.Login(ctx, "ama@example.com", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, _, err = f.auth.Login(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	assert.Equal(t, before, f.store.sessions.Load())
}

func TestAuthService_RequireRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "user@example.com")
	f.admin(t)

	_, userCreds, err := f.auth.Login(ctx, "user@example.com", "secret1")
	require.NoError(t, err)
	_, adminCreds, err := f.auth.Login(ctx, "admin@shopverse.com", "admin123")
	require.NoError(t, err)

	_, err = f.auth.RequireRole(ctx, "", model.RoleUser)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.auth.RequireRole(ctx, "garbage", model.RoleUser)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.auth.RequireRole(ctx, userCreds.Token, model.RoleAdmin)
	assert.ErrorIs(t, err, ErrForbidden)

	u, err := f.auth.RequireRole(ctx, userCreds.Token, model.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", u.Email)

	a, err := f.auth.RequireRole(ctx, adminCreds.Token, model.RoleUser)
	require.NoError(t, err)
	assert.True(t, a.IsAdmin())
}

func TestAuthService_LogoutRevokes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "ama@example.com")
	_, creds, err := f.auth.Login(ctx, "ama@example.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, f.auth.Logout(ctx, creds.Token))
	_, found, err := f.auth.CurrentUser(ctx, creds.Token)
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, f.auth.Logout(ctx, creds.Token))
	assert.NoError(t, f.auth.Logout(ctx, "not-a-token"))
}

func TestAuthService_SessionExpires(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.auth.ttl = time.Hour
	f.user(t, "ama@example.com")
	_, creds, err := f.auth.Login(ctx, "ama@example.com", "secret1")
	require.NoError(t, err)

	// The store clock drives expiry; the JWT itself is still valid.
	f.clock.Advance(2 * time.Hour)
	_, found, err := f.auth.CurrentUser(ctx, creds.Token)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestAuthService_TokenForOtherSecretRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "ama@example.com")
	_, creds, err := f.auth.Login(ctx, "ama@example.com", "secret1")
	require.NoError(t, err)

	other := NewAuthService(f.store, nil, "other-secret", time.Hour)
	_, found, err := other.CurrentUser(ctx, creds.Token)
	require.NoError(t, err)
	assert.False(t, found)
}
