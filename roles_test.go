package auth_test

import (
	"testing"
	"time"

	auth "github.com/coopdesk/go-auth"
	"github.com/stretchr/testify/assert"
)

func principalWithRole(role auth.Role) *auth.Principal {
	return &auth.Principal{
		Login: "some.principal",
		Email: "some.principal@example.org",
		Role:  role,
	}
}

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name     string
		role     auth.Role
		required auth.Role
		want     bool
	}{
		{"admin passes admin gate", auth.RoleAdmin, auth.RoleAdmin, true},
		{"user fails admin gate", auth.RoleUser, auth.RoleAdmin, false},
		{"lowercase admin passes admin gate", auth.Role("admin"), auth.RoleAdmin, true},
		{"mixed case intervener", auth.Role("Intervener"), auth.RoleIntervener, true},
		// No hierarchy: admin is not implicitly an intervener.
		{"admin fails intervener gate", auth.RoleAdmin, auth.RoleIntervener, false},
		{"intervener fails user gate", auth.RoleIntervener, auth.RoleUser, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, auth.Authorize(principalWithRole(tt.role), tt.required))
		})
	}

	t.Run("nil principal is never authorized", func(t *testing.T) {
		assert.False(t, auth.Authorize(nil, auth.RoleAdmin))
	})

	t.Run("inactive principal is never authorized", func(t *testing.T) {
		principal := principalWithRole(auth.RoleAdmin)
		deleted := time.Now()
		principal.DeletedAt = &deleted
		assert.False(t, auth.Authorize(principal, auth.RoleAdmin))
	})
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		input string
		want  auth.Role
		valid bool
	}{
		{"ADMIN", auth.RoleAdmin, true},
		{"admin", auth.RoleAdmin, true},
		{" intervener ", auth.RoleIntervener, true},
		{"USER", auth.RoleUser, true},
		{"owner", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			role, valid := auth.ParseRole(tt.input)
			assert.Equal(t, tt.valid, valid)
			if tt.valid {
				assert.Equal(t, tt.want, role)
			}
		})
	}
}

func TestRole_IsValid(t *testing.T) {
	for _, role := range auth.AllRoles() {
		assert.True(t, role.IsValid(), "role %s", role)
	}
	assert.False(t, auth.Role("SUPERUSER").IsValid())
}
