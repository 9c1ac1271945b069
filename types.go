package auth

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// CredentialStore is the external collaborator that holds principal
// records. Implementations are expected to enforce login/email uniqueness
// themselves (unique constraints in the backing store).
type CredentialStore interface {
	FindByLoginOrEmail(ctx context.Context, identifier string) (*Principal, error)
	Save(ctx context.Context, principal *Principal) (*Principal, error)
	ExistsByLogin(ctx context.Context, login string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// LoginTracker is an optional extension of CredentialStore. Stores that
// implement it get login-attempt counters maintained by the Authenticator;
// stores that don't are used as-is.
type LoginTracker interface {
	TrackAttemptedLogin(ctx context.Context, principal *Principal) error
	TrackSuccessfulLogin(ctx context.Context, principal *Principal) error
}

// TokenPair is what a successful login or refresh hands back to the
// client. Both tokens carry the same subject; only the TTL and the typ
// claim differ.
type TokenPair struct {
	AccessToken     string    `json:"access_token"`
	RefreshToken    string    `json:"refresh_token"`
	TokenType       string    `json:"token_type"`
	ExpiresIn       int64     `json:"expires_in"`
	AccessExpiresAt time.Time `json:"-"`
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetAccessTTL() time.Duration
	GetRefreshTTL() time.Duration
	GetIssuer() string
	GetAudience() []string
	GetContextKey() string
	GetAuthScheme() string
	GetBCryptCost() int
}

// SimpleConfig is a literal Config for wiring without a config framework.
type SimpleConfig struct {
	SigningKey string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Issuer     string
	Audience   []string
	ContextKey string
	AuthScheme string
	BCryptCost int
}

func (c SimpleConfig) GetSigningKey() string { return c.SigningKey }

func (c SimpleConfig) GetAccessTTL() time.Duration {
	if c.AccessTTL == 0 {
		return DefaultAccessTTL
	}
	return c.AccessTTL
}

func (c SimpleConfig) GetRefreshTTL() time.Duration {
	if c.RefreshTTL == 0 {
		return DefaultRefreshTTL
	}
	return c.RefreshTTL
}

func (c SimpleConfig) GetIssuer() string     { return c.Issuer }
func (c SimpleConfig) GetAudience() []string { return c.Audience }

func (c SimpleConfig) GetContextKey() string {
	if c.ContextKey == "" {
		return "user"
	}
	return c.ContextKey
}

func (c SimpleConfig) GetAuthScheme() string {
	if c.AuthScheme == "" {
		return "Bearer"
	}
	return c.AuthScheme
}

func (c SimpleConfig) GetBCryptCost() int {
	if c.BCryptCost == 0 {
		return passwordHashCost()
	}
	return c.BCryptCost
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
