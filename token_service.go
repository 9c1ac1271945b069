package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

const (
	// DefaultAccessTTL bounds access tokens to a day.
	DefaultAccessTTL = 24 * time.Hour
	// DefaultRefreshTTL bounds refresh tokens to a week.
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// TokenMint issues and validates the platform's HMAC-signed tokens. It is
// a stateless function pair: nothing is persisted server-side and tokens
// cannot be revoked before expiry.
type TokenMint struct {
	signingKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	audience   jwt.ClaimStrings
	logger     Logger
	now        func() time.Time
}

// NewTokenMint creates a TokenMint. Zero TTLs fall back to the package
// defaults.
func NewTokenMint(signingKey []byte, accessTTL, refreshTTL time.Duration, issuer string, audience jwt.ClaimStrings, logger Logger) *TokenMint {
	if logger == nil {
		logger = defLogger{}
	}
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	return &TokenMint{
		signingKey: signingKey,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		issuer:     issuer,
		audience:   audience,
		logger:     logger,
		now:        time.Now,
	}
}

// NewTokenMintFromConfig wires a TokenMint from a Config.
func NewTokenMintFromConfig(cfg Config, logger Logger) *TokenMint {
	return NewTokenMint(
		[]byte(cfg.GetSigningKey()),
		cfg.GetAccessTTL(),
		cfg.GetRefreshTTL(),
		cfg.GetIssuer(),
		cfg.GetAudience(),
		logger,
	)
}

// WithClock overrides the time source. Expiry tests inject a fake clock
// here instead of sleeping.
func (tm *TokenMint) WithClock(now func() time.Time) *TokenMint {
	if now != nil {
		tm.now = now
	}
	return tm
}

// IssueAccessToken mints a signed access token for the subject.
func (tm *TokenMint) IssueAccessToken(subject string, role Role) (string, time.Time, error) {
	return tm.issue(subject, role, TokenTypeAccess, tm.accessTTL)
}

// IssueRefreshToken mints a signed refresh token for the subject. It
// carries no privilege beyond minting a fresh pair at the refresh
// endpoint.
func (tm *TokenMint) IssueRefreshToken(subject string, role Role) (string, time.Time, error) {
	return tm.issue(subject, role, TokenTypeRefresh, tm.refreshTTL)
}

func (tm *TokenMint) issue(subject string, role Role, tokenType TokenType, ttl time.Duration) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, goerrors.New("token subject is required", goerrors.CategoryBadInput)
	}

	now := tm.now()
	expiresAt := now.Add(ttl)

	var aud jwt.ClaimStrings
	if len(tm.audience) > 0 {
		aud = make(jwt.ClaimStrings, len(tm.audience))
		copy(aud, tm.audience)
	}

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tm.issuer,
			Subject:   subject,
			Audience:  aud,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		PrincipalRole: role,
		Type:          tokenType,
	}

	ensureTokenID(&claims.RegisteredClaims)

	signed, err := tm.SignClaims(claims)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// SignClaims signs arbitrary claims using the configured signing key.
func (tm *TokenMint) SignClaims(claims *Claims) (string, error) {
	if claims == nil {
		return "", goerrors.New("claims must not be nil", goerrors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(tm.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign token")
	}

	return signed, nil
}

// Validate parses and verifies a token, returning its claims. The three
// failure kinds stay distinguishable for logs and tests: ErrTokenExpired,
// ErrTokenSignatureInvalid, and ErrTokenMalformed for everything
// structurally unparseable. They all map to a 401 at the HTTP boundary.
func (tm *TokenMint) Validate(raw string) (*Claims, error) {
	parserOptions := []jwt.ParserOption{jwt.WithTimeFunc(tm.now)}
	if tm.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(tm.issuer))
	}
	if len(tm.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(tm.audience...))
	}

	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			tm.logger.Error("TokenMint validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return tm.signingKey, nil
	}, parserOptions...)

	if err != nil {
		switch {
		case goerrors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case goerrors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenSignatureInvalid
		default:
			return nil, goerrors.Wrap(err, goerrors.CategoryAuth, "token malformed").
				WithTextCode(TextCodeTokenMalformed)
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		tm.logger.Error("TokenMint validate could not decode claims")
		return nil, ErrTokenMalformed
	}

	return claims, nil
}

// ValidateTyped validates the token and additionally enforces its typ
// claim, so access tokens are rejected at the refresh endpoint and
// refresh tokens cannot authenticate requests.
func (tm *TokenMint) ValidateTyped(raw string, want TokenType) (*Claims, error) {
	claims, err := tm.Validate(raw)
	if err != nil {
		return nil, err
	}

	if claims.Type != want {
		tm.logger.Warn("TokenMint rejected token with wrong type", "want", want, "got", claims.Type)
		return nil, ErrTokenMalformed
	}

	return claims, nil
}
