package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Principal is the identity record of a platform user. Records are never
// physically deleted; the soft-delete column doubles as the active flag.
type Principal struct {
	bun.BaseModel    `bun:"table:principals,alias:pr"`
	ID               uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role             Role       `bun:"role,notnull" json:"role,omitempty"`
	FirstName        string     `bun:"first_name,notnull" json:"first_name,omitempty"`
	LastName         string     `bun:"last_name,notnull" json:"last_name,omitempty"`
	Login            string     `bun:"login,notnull,unique" json:"login,omitempty"`
	Email            string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone            string     `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash     string     `bun:"password_hash" json:"-"`
	Address          string     `bun:"address" json:"address,omitempty"`
	CityID           int64      `bun:"city_id,nullzero" json:"city_id,omitempty"`
	OrganizationType string     `bun:"organization_type" json:"organization_type,omitempty"`
	OrganizationID   int64      `bun:"organization_id,nullzero" json:"organization_id,omitempty"`
	OrganizationName string     `bun:"organization_name" json:"organization_name,omitempty"`
	LoginAttempts    int        `bun:"login_attempts" json:"-"`
	LoginAttemptAt   *time.Time `bun:"login_attempt_at" json:"-"`
	LoggedInAt       *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	CreatedAt        *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt        *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt        *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"-"`
}

// Active reports whether the principal may authenticate.
func (p *Principal) Active() bool {
	return p != nil && p.DeletedAt == nil
}

// Sanitized returns a copy safe to serialize to clients: the password
// digest and attempt counters are stripped, everything else is kept.
func (p *Principal) Sanitized() *Principal {
	if p == nil {
		return nil
	}
	out := *p
	out.PasswordHash = ""
	out.LoginAttempts = 0
	out.LoginAttemptAt = nil
	return &out
}

// Registration is the payload accepted by Register.
type Registration struct {
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Email            string `json:"email"`
	Login            string `json:"login"`
	Password         string `json:"password"`
	Phone            string `json:"phone,omitempty"`
	Address          string `json:"address,omitempty"`
	CityID           int64  `json:"city_id,omitempty"`
	OrganizationType string `json:"organization_type,omitempty"`
	OrganizationID   int64  `json:"organization_id,omitempty"`
	OrganizationName string `json:"organization_name,omitempty"`
}
