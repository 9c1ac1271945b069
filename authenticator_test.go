package auth_test

import (
	"context"
	"testing"
	"time"

	auth "github.com/coopdesk/go-auth"
	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuthenticator(store auth.CredentialStore) *auth.Authenticator {
	cfg := auth.SimpleConfig{
		SigningKey: "test-signing-key",
		Issuer:     "test-issuer",
		BCryptCost: bcrypt.MinCost,
	}
	return auth.NewAuthenticator(store, cfg).WithLogger(testLogger{})
}

func storedPrincipal(t *testing.T, password string) *auth.Principal {
	t.Helper()

	hash, err := auth.NewHasher(bcrypt.MinCost).Hash(password)
	require.NoError(t, err)

	return &auth.Principal{
		ID:           uuid.New(),
		Login:        "amara.diallo",
		Email:        "amara.diallo@example.org",
		FirstName:    "Amara",
		LastName:     "Diallo",
		Role:         auth.RoleUser,
		PasswordHash: hash,
	}
}

func TestAuthenticator_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("success issues pair with subject", func(t *testing.T) {
		store := &MockCredentialStore{}
		principal := storedPrincipal(t, "password123")
		store.On("FindByLoginOrEmail", mock.Anything, "amara.diallo").Return(principal, nil)

		sink := &recordingSink{}
		auther := newTestAuthenticator(store).WithActivitySink(sink)

		pair, user, err := auther.Login(ctx, "amara.diallo", "password123")
		require.NoError(t, err)
		require.NotNil(t, pair)
		assert.Equal(t, "Bearer", pair.TokenType)
		assert.Greater(t, pair.ExpiresIn, int64(0))

		claims, err := auther.TokenMint().Validate(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "amara.diallo", claims.Subject())
		assert.Equal(t, auth.TokenTypeAccess, claims.TokenType())

		refreshClaims, err := auther.TokenMint().Validate(pair.RefreshToken)
		require.NoError(t, err)
		assert.Equal(t, "amara.diallo", refreshClaims.Subject())
		assert.Equal(t, auth.TokenTypeRefresh, refreshClaims.TokenType())

		// returned principal is sanitized
		assert.Empty(t, user.PasswordHash)
		assert.Equal(t, principal.Login, user.Login)

		assert.Len(t, sink.byType(auth.ActivityEventLoginSuccess), 1)
		store.AssertExpectations(t)
	})

	t.Run("unknown identifier and wrong password are indistinguishable", func(t *testing.T) {
		missing := &MockCredentialStore{}
		missing.On("FindByLoginOrEmail", mock.Anything, "nonexistent").
			Return(nil, repository.NewRecordNotFound())

		known := &MockCredentialStore{}
		known.On("FindByLoginOrEmail", mock.Anything, "amara.diallo").
			Return(storedPrincipal(t, "password123"), nil)

		_, _, errMissing := newTestAuthenticator(missing).Login(ctx, "nonexistent", "anything")
		_, _, errWrongPw := newTestAuthenticator(known).Login(ctx, "amara.diallo", "wrongpassword")

		assert.ErrorIs(t, errMissing, auth.ErrInvalidCredentials)
		assert.ErrorIs(t, errWrongPw, auth.ErrInvalidCredentials)
		assert.Equal(t, errMissing.Error(), errWrongPw.Error())
	})

	t.Run("repository miss maps to invalid credentials not internal", func(t *testing.T) {
		for name, miss := range map[string]error{
			"record not found": repository.NewRecordNotFound(),
			"not found":        goerrors.New("principal not found", goerrors.CategoryNotFound),
		} {
			store := &MockCredentialStore{}
			store.On("FindByLoginOrEmail", mock.Anything, "nonexistent").Return(nil, miss)

			_, _, err := newTestAuthenticator(store).Login(ctx, "nonexistent", "anything")
			assert.ErrorIs(t, err, auth.ErrInvalidCredentials, name)

			var rich *goerrors.Error
			require.True(t, goerrors.As(err, &rich), name)
			assert.NotEqual(t, goerrors.CategoryInternal, rich.Category, name)
		}
	})

	t.Run("inactive principal fails with generic error", func(t *testing.T) {
		store := &MockCredentialStore{}
		principal := storedPrincipal(t, "password123")
		deleted := time.Now()
		principal.DeletedAt = &deleted
		store.On("FindByLoginOrEmail", mock.Anything, "amara.diallo").Return(principal, nil)

		_, _, err := newTestAuthenticator(store).Login(ctx, "amara.diallo", "password123")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("store failure surfaces as internal error", func(t *testing.T) {
		store := &MockCredentialStore{}
		store.On("FindByLoginOrEmail", mock.Anything, "amara.diallo").
			Return(nil, goerrors.New("store down", goerrors.CategoryInternal))

		_, _, err := newTestAuthenticator(store).Login(ctx, "amara.diallo", "password123")
		require.Error(t, err)
		assert.NotErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("wrong password tracks the attempt", func(t *testing.T) {
		store := &MockTrackingStore{}
		principal := storedPrincipal(t, "password123")
		store.On("FindByLoginOrEmail", mock.Anything, "amara.diallo").Return(principal, nil)
		store.On("TrackAttemptedLogin", mock.Anything, principal).Return(nil)

		_, _, err := newTestAuthenticator(store).Login(ctx, "amara.diallo", "wrongpassword")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
		store.AssertCalled(t, "TrackAttemptedLogin", mock.Anything, principal)
	})

	t.Run("cooldown blocks excess attempts", func(t *testing.T) {
		store := &MockCredentialStore{}
		principal := storedPrincipal(t, "password123")
		now := time.Now()
		principal.LoginAttempts = auth.MaxLoginAttempts + 1
		principal.LoginAttemptAt = &now
		store.On("FindByLoginOrEmail", mock.Anything, "amara.diallo").Return(principal, nil)

		_, _, err := newTestAuthenticator(store).Login(ctx, "amara.diallo", "password123")
		assert.ErrorIs(t, err, auth.ErrTooManyLoginAttempts)
	})

	t.Run("attempt counter resets after cooldown window", func(t *testing.T) {
		store := &MockTrackingStore{}
		principal := storedPrincipal(t, "password123")
		stale := time.Now().Add(-48 * time.Hour)
		principal.LoginAttempts = auth.MaxLoginAttempts + 1
		principal.LoginAttemptAt = &stale
		store.On("FindByLoginOrEmail", mock.Anything, "amara.diallo").Return(principal, nil)
		store.On("TrackSuccessfulLogin", mock.Anything, principal).Return(nil)

		_, _, err := newTestAuthenticator(store).Login(ctx, "amara.diallo", "password123")
		assert.NoError(t, err)
	})
}

func TestAuthenticator_Refresh(t *testing.T) {
	ctx := context.Background()
	auther := newTestAuthenticator(&MockCredentialStore{})

	t.Run("rotates pair for same subject", func(t *testing.T) {
		refresh, _, err := auther.TokenMint().IssueRefreshToken("amara.diallo", auth.RoleIntervener)
		require.NoError(t, err)

		pair, err := auther.Refresh(ctx, refresh)
		require.NoError(t, err)

		claims, err := auther.TokenMint().Validate(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "amara.diallo", claims.Subject())
		assert.Equal(t, auth.RoleIntervener, claims.Role())

		next, err := auther.TokenMint().ValidateTyped(pair.RefreshToken, auth.TokenTypeRefresh)
		require.NoError(t, err)
		assert.Equal(t, "amara.diallo", next.Subject())
	})

	t.Run("rejects access token", func(t *testing.T) {
		access, _, err := auther.TokenMint().IssueAccessToken("amara.diallo", auth.RoleUser)
		require.NoError(t, err)

		_, err = auther.Refresh(ctx, access)
		assert.Error(t, err)
		assert.True(t, auth.IsMalformedError(err))
	})

	t.Run("rejects expired refresh token", func(t *testing.T) {
		past := time.Now().Add(-30 * 24 * time.Hour)
		mint := auth.NewTokenMint([]byte("test-signing-key"), 0, 0, "test-issuer", nil, testLogger{}).
			WithClock(func() time.Time { return past })
		stale, _, err := mint.IssueRefreshToken("amara.diallo", auth.RoleUser)
		require.NoError(t, err)

		_, err = auther.Refresh(ctx, stale)
		assert.ErrorIs(t, err, auth.ErrTokenExpired)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := auther.Refresh(ctx, "garbage")
		assert.True(t, auth.IsMalformedError(err))
	})
}

func TestAuthenticator_ContextLifecycle(t *testing.T) {
	auther := newTestAuthenticator(&MockCredentialStore{})
	principal := storedPrincipal(t, "password123")

	ctx := auth.WithPrincipal(context.Background(), principal)

	got, ok := auther.CurrentPrincipal(ctx)
	require.True(t, ok)
	assert.Equal(t, principal.Login, got.Login)

	ctx = auther.Logout(ctx)
	_, ok = auther.CurrentPrincipal(ctx)
	assert.False(t, ok)

	// logout is idempotent
	ctx = auther.Logout(ctx)
	_, ok = auther.CurrentPrincipal(ctx)
	assert.False(t, ok)
}
