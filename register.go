package auth

import (
	"context"
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/nyaruka/phonenumbers"
)

// MinPasswordLength is enforced on registration, not on login.
const MinPasswordLength = 6

// Validate will run validation rules
func (r Registration) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.FirstName,
			validation.Required,
		),
		validation.Field(
			&r.LastName,
			validation.Required,
		),
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Login,
			validation.Required,
		),
		validation.Field(
			&r.Password,
			validation.Required,
			validation.Length(MinPasswordLength, 0),
		),
		validation.Field(
			&r.Phone,
			validation.By(validPhoneNumber),
		),
	)
}

// validPhoneNumber accepts empty values; the field is optional.
func validPhoneNumber(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}

	num, err := phonenumbers.Parse(s, "")
	if err != nil {
		return errors.New("must be a valid international phone number")
	}
	if !phonenumbers.IsValidNumber(num) {
		return errors.New("must be a valid phone number")
	}
	return nil
}

// Register creates a new principal with the default USER role. Login and
// email collisions surface as ErrDuplicateRegistration with no field
// detail; which one collided is logged server-side only. The uniqueness
// guarantee itself belongs to the store's constraints, the exists checks
// just catch the common case early.
func (a *Authenticator) Register(ctx context.Context, reg Registration) (*Principal, error) {
	if err := reg.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration payload")
	}

	if taken, err := a.store.ExistsByLogin(ctx, reg.Login); err != nil {
		a.logger.Error("Register exists-by-login check failed", "error", err)
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check login availability")
	} else if taken {
		return nil, a.registrationConflict(ctx, reg, "login")
	}

	if taken, err := a.store.ExistsByEmail(ctx, reg.Email); err != nil {
		a.logger.Error("Register exists-by-email check failed", "error", err)
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email availability")
	} else if taken {
		return nil, a.registrationConflict(ctx, reg, "email")
	}

	hash, err := a.hasher.Hash(reg.Password)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	principal := &Principal{
		Role:             RoleUser,
		FirstName:        reg.FirstName,
		LastName:         reg.LastName,
		Login:            reg.Login,
		Email:            reg.Email,
		Phone:            reg.Phone,
		PasswordHash:     hash,
		Address:          reg.Address,
		CityID:           reg.CityID,
		OrganizationType: reg.OrganizationType,
		OrganizationID:   reg.OrganizationID,
		OrganizationName: reg.OrganizationName,
	}

	if a.deterministicIDs {
		if id, err := hashid.NewUUID(reg.Email); err == nil {
			principal.ID = id
		}
	}

	saved, err := a.store.Save(ctx, principal)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, a.registrationConflict(ctx, reg, "constraint")
		}
		a.logger.Error("Register persist failed", "error", err)
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist principal")
	}

	a.emitAuthEvent(ctx, ActivityEventRegisterSuccess, a.actorFromPrincipal(saved), saved.ID.String(), map[string]any{
		"login": saved.Login,
	})

	return saved.Sanitized(), nil
}

func (a *Authenticator) registrationConflict(ctx context.Context, reg Registration, field string) error {
	a.logger.Warn("Register rejected duplicate", "field", field, "login", reg.Login)
	a.emitAuthEvent(ctx, ActivityEventRegisterFailure, ActorRef{Type: "unknown"}, "", map[string]any{
		"field": field,
	})
	return ErrDuplicateRegistration
}

func isUniqueViolation(err error) bool {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich.Category == goerrors.CategoryConflict {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}
