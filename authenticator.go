package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
)

// MaxLoginAttempts is the maximum number of failed attempts a principal
// gets inside the cooldown window.
var MaxLoginAttempts = 5

// CoolDownPeriod is the window in which failed attempts accumulate.
var CoolDownPeriod = "24h"

// Authenticator orchestrates credential verification, token issuance and
// registration over a CredentialStore. All operations are synchronous and
// single-shot; the only I/O is the store lookup.
type Authenticator struct {
	store            CredentialStore
	hasher           *Hasher
	mint             *TokenMint
	logger           Logger
	activitySink     ActivitySink
	deterministicIDs bool
}

// NewAuthenticator returns a new Authenticator wired from cfg.
func NewAuthenticator(store CredentialStore, cfg Config) *Authenticator {
	return &Authenticator{
		store:        store,
		hasher:       NewHasher(cfg.GetBCryptCost()),
		mint:         NewTokenMintFromConfig(cfg, nil),
		logger:       defLogger{},
		activitySink: noopActivitySink{},
	}
}

func (a *Authenticator) WithLogger(logger Logger) *Authenticator {
	if logger != nil {
		a.logger = logger
		a.mint.logger = logger
	}
	return a
}

// WithTokenMint swaps the token mint, mostly so tests can inject a clock.
func (a *Authenticator) WithTokenMint(mint *TokenMint) *Authenticator {
	if mint != nil {
		a.mint = mint
	}
	return a
}

func (a *Authenticator) WithHasher(hasher *Hasher) *Authenticator {
	if hasher != nil {
		a.hasher = hasher
	}
	return a
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (a *Authenticator) WithActivitySink(sink ActivitySink) *Authenticator {
	a.activitySink = normalizeActivitySink(sink)
	return a
}

// WithDeterministicIDs derives registration IDs from the email instead of
// random UUIDs.
func (a *Authenticator) WithDeterministicIDs(enabled bool) *Authenticator {
	a.deterministicIDs = enabled
	return a
}

// TokenMint returns the mint used by this Authenticator.
func (a *Authenticator) TokenMint() *TokenMint {
	return a.mint
}

// Login verifies the identifier/password pair and issues a token pair.
// Unknown identifier, inactive principal, and wrong password all surface
// as ErrInvalidCredentials; the specific reason only reaches the logs and
// the activity sink.
func (a *Authenticator) Login(ctx context.Context, identifier, password string) (*TokenPair, *Principal, error) {
	principal, err := a.store.FindByLoginOrEmail(ctx, identifier)
	if err != nil {
		// Repository misses carry their own category, so a plain
		// goerrors.IsNotFound check would let them fall through as 500s.
		if repository.IsRecordNotFound(err) || goerrors.IsNotFound(err) {
			a.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
				"identifier": identifier,
				"reason":     "principal not found",
			})
			return nil, nil, ErrInvalidCredentials
		}
		a.logger.Error("Login store lookup error", "error", err)
		return nil, nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve principal during login")
	}

	if !principal.Active() {
		a.logger.Warn("Login blocked for inactive principal", "principal", principal.ID)
		a.emitAuthEvent(ctx, ActivityEventLoginFailure, a.actorFromPrincipal(principal), principal.ID.String(), map[string]any{
			"identifier": identifier,
			"reason":     "principal inactive",
		})
		return nil, nil, ErrInvalidCredentials
	}

	if err := a.checkLoginAttempts(ctx, principal); err != nil {
		a.emitAuthEvent(ctx, ActivityEventLoginFailure, a.actorFromPrincipal(principal), principal.ID.String(), map[string]any{
			"identifier": identifier,
			"reason":     "cooldown active",
		})
		return nil, nil, err
	}

	if !a.hasher.Verify(password, principal.PasswordHash) {
		a.trackAttempt(ctx, principal)
		a.emitAuthEvent(ctx, ActivityEventLoginFailure, a.actorFromPrincipal(principal), principal.ID.String(), map[string]any{
			"identifier": identifier,
			"reason":     "password mismatch",
		})
		return nil, nil, ErrInvalidCredentials
	}

	if tracker, ok := a.store.(LoginTracker); ok {
		if err := tracker.TrackSuccessfulLogin(ctx, principal); err != nil {
			a.logger.Error("failed to track successful login", "error", err)
		}
	}

	pair, err := a.issuePair(principal.Login, principal.Role)
	if err != nil {
		return nil, nil, err
	}

	a.emitAuthEvent(ctx, ActivityEventLoginSuccess, a.actorFromPrincipal(principal), principal.ID.String(), map[string]any{
		"identifier": identifier,
	})

	return pair, principal.Sanitized(), nil
}

// Refresh validates a refresh token and rotates the pair for the same
// subject. Rotation is by convention only: the superseded refresh token
// stays valid until its own expiry since nothing is tracked server-side.
func (a *Authenticator) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := a.mint.ValidateTyped(refreshToken, TokenTypeRefresh)
	if err != nil {
		a.logger.Warn("Refresh rejected token", "error", err)
		a.emitAuthEvent(ctx, ActivityEventRefreshFailure, ActorRef{Type: "unknown"}, "", map[string]any{
			"error": err.Error(),
		})
		return nil, err
	}

	pair, err := a.issuePair(claims.Subject(), claims.Role())
	if err != nil {
		return nil, err
	}

	a.emitAuthEvent(ctx, ActivityEventRefreshSuccess, ActorRef{ID: claims.Subject(), Type: "user"}, "", map[string]any{
		"jti": claims.TokenID(),
	})

	return pair, nil
}

// CurrentPrincipal resolves the principal from the request context. It
// never touches the CredentialStore; the middleware is responsible for
// loading the record at validation time.
func (a *Authenticator) CurrentPrincipal(ctx context.Context) (*Principal, bool) {
	return PrincipalFromContext(ctx)
}

// Logout clears the principal association from the context. It always
// succeeds and is idempotent; issued tokens stay valid until expiry.
func (a *Authenticator) Logout(ctx context.Context) context.Context {
	return ClearPrincipal(ctx)
}

func (a *Authenticator) issuePair(subject string, role Role) (*TokenPair, error) {
	access, accessExp, err := a.mint.IssueAccessToken(subject, role)
	if err != nil {
		a.logger.Error("failed to issue access token", "error", err)
		return nil, err
	}

	refresh, _, err := a.mint.IssueRefreshToken(subject, role)
	if err != nil {
		a.logger.Error("failed to issue refresh token", "error", err)
		return nil, err
	}

	return &TokenPair{
		AccessToken:     access,
		RefreshToken:    refresh,
		TokenType:       "Bearer",
		ExpiresIn:       int64(time.Until(accessExp).Seconds()),
		AccessExpiresAt: accessExp,
	}, nil
}

func (a *Authenticator) checkLoginAttempts(ctx context.Context, principal *Principal) error {
	if principal.LoginAttemptAt != nil {
		expired, err := IsOutsideThresholdPeriod(*principal.LoginAttemptAt, CoolDownPeriod)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to calculate login attempt cooldown")
		}

		if expired {
			principal.LoginAttempts = 0
		}
	}

	if principal.LoginAttempts > MaxLoginAttempts {
		a.logger.Warn("Login blocked by attempt cooldown", "principal", principal.ID)
		return ErrTooManyLoginAttempts
	}

	return nil
}

func (a *Authenticator) trackAttempt(ctx context.Context, principal *Principal) {
	tracker, ok := a.store.(LoginTracker)
	if !ok {
		return
	}
	if err := tracker.TrackAttemptedLogin(ctx, principal); err != nil {
		a.logger.Error("failed to track login attempt", "error", err)
	}
}

func (a *Authenticator) emitAuthEvent(ctx context.Context, eventType ActivityEventType, actor ActorRef, principalID string, metadata map[string]any) {
	sink := normalizeActivitySink(a.activitySink)
	event := ActivityEvent{
		EventType:   eventType,
		Actor:       actor,
		PrincipalID: principalID,
		Metadata:    metadata,
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	if err := sink.Record(ctx, event); err != nil {
		a.logger.Warn("activity sink record error: %v", err)
	}
}

func (a *Authenticator) actorFromPrincipal(principal *Principal) ActorRef {
	if principal == nil {
		return ActorRef{Type: "unknown"}
	}

	return ActorRef{
		ID:   principal.ID.String(),
		Type: "user",
	}
}
