// Package auth implements the authentication and authorization core for
// the cooperation platform: bcrypt credential verification, signed access
// and refresh tokens, registration, and role-based access checks.
//
// The package is deliberately stateless between requests. Tokens are
// self-contained HMAC-signed JWTs, the authenticated principal travels in
// the request context, and the only external collaborator is the
// CredentialStore interface. A bun-backed reference store is provided.
package auth
