package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType tags a token as access or refresh via the typ claim. The
// original platform did not distinguish the two cryptographically; here
// the claim is enforced so an access token cannot be replayed against
// the refresh endpoint.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// AuthClaims is the read-side view of a validated token.
type AuthClaims interface {
	Subject() string
	Role() Role
	TokenType() TokenType
	TokenID() string
	Expires() time.Time
	Issued() time.Time
}

// Claims is the concrete JWT payload minted by TokenMint.
type Claims struct {
	jwt.RegisteredClaims
	PrincipalRole Role      `json:"role,omitempty"`
	Type          TokenType `json:"typ,omitempty"`
}

var _ AuthClaims = (*Claims)(nil)

// Subject returns the subject claim, the principal's login.
func (c *Claims) Subject() string {
	return c.RegisteredClaims.Subject
}

// Role returns the principal's role as captured at issuance.
func (c *Claims) Role() Role {
	return c.PrincipalRole
}

// TokenType returns the typ claim.
func (c *Claims) TokenType() TokenType {
	return c.Type
}

// TokenID returns the jti claim.
func (c *Claims) TokenID() string {
	return c.RegisteredClaims.ID
}

// Expires returns the expiration time
func (c *Claims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// Issued returns the issuance time
func (c *Claims) Issued() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// ensureTokenID backfills a jti so every minted token is traceable in logs.
func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
}
