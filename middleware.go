package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
)

// MiddlewareConfig wires the access-token guard.
type MiddlewareConfig struct {
	Mint *TokenMint
	// Store, when set, loads the principal behind the token so handlers
	// can call CurrentPrincipal. Role checks never need it.
	Store CredentialStore
	// ContextKey is where claims land in fiber locals. Defaults to "user".
	ContextKey string
	// AuthScheme defaults to "Bearer".
	AuthScheme string
	// RequiredRole, when set, is enforced before the store is touched.
	RequiredRole Role
	Logger       Logger
}

func (cfg *MiddlewareConfig) defaults() {
	if cfg.ContextKey == "" {
		cfg.ContextKey = "user"
	}
	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}
	if cfg.Logger == nil {
		cfg.Logger = defLogger{}
	}
}

// RequireAuth validates the bearer access token, stores the claims in
// fiber locals and the request context, and optionally resolves the
// principal. Expired, malformed, and tampered tokens are logged
// distinctly but all answer with the same generic 401.
func RequireAuth(cfg MiddlewareConfig) fiber.Handler {
	cfg.defaults()

	return func(c *fiber.Ctx) error {
		raw, err := ExtractBearerToken(c, cfg.AuthScheme)
		if err != nil {
			return unauthorized(c, cfg.Logger, err)
		}

		claims, err := cfg.Mint.ValidateTyped(raw, TokenTypeAccess)
		if err != nil {
			return unauthorized(c, cfg.Logger, err)
		}

		if cfg.RequiredRole != "" && !AuthorizeRole(claims.Role(), cfg.RequiredRole) {
			cfg.Logger.Warn("access denied", "subject", claims.Subject(), "required", cfg.RequiredRole, "role", claims.Role())
			return forbidden(c)
		}

		c.Locals(cfg.ContextKey, claims)
		ctx := WithClaims(c.UserContext(), claims)

		if cfg.Store != nil {
			principal, err := cfg.Store.FindByLoginOrEmail(ctx, claims.Subject())
			if err != nil || !principal.Active() {
				cfg.Logger.Warn("token subject has no active principal", "subject", claims.Subject(), "error", err)
				return unauthorized(c, cfg.Logger, ErrPrincipalNotFound)
			}
			ctx = WithPrincipal(ctx, principal.Sanitized())
		}

		c.SetUserContext(ctx)

		return c.Next()
	}
}

// RequireRole gates a route on an exact role match. It works purely on
// the claims placed by RequireAuth and answers 403 without any store
// access. There is no hierarchy: ADMIN does not pass an INTERVENER gate.
func RequireRole(required Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := ClaimsFromContext(c.UserContext())
		if !ok {
			return unauthorized(c, defLogger{}, ErrInvalidCredentials)
		}

		if !AuthorizeRole(claims.Role(), required) {
			return forbidden(c)
		}

		return c.Next()
	}
}

// ExtractBearerToken pulls the raw token out of the Authorization header.
func ExtractBearerToken(c *fiber.Ctx, scheme string) (string, error) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return "", goerrors.New("missing authorization header", goerrors.CategoryAuth).
			WithTextCode(TextCodeTokenMalformed)
	}

	prefix := scheme + " "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", goerrors.New("missing or malformed JWT", goerrors.CategoryAuth).
			WithTextCode(TextCodeTokenMalformed)
	}

	return header[len(prefix):], nil
}

func unauthorized(c *fiber.Ctx, logger Logger, err error) error {
	logger.Warn("request unauthorized", "error", err)
	return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
		Status:  fiber.StatusUnauthorized,
		Message: "unauthorized",
	})
}

func forbidden(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{
		Status:  fiber.StatusForbidden,
		Message: "forbidden",
	})
}
