package auth

import (
	"context"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Principals is the bun-backed repository over the principals table.
type Principals interface {
	repository.Repository[*Principal]

	FindByLoginOrEmail(ctx context.Context, identifier string) (*Principal, error)
	FindByLoginOrEmailTx(ctx context.Context, tx bun.IDB, identifier string) (*Principal, error)

	ExistsByLogin(ctx context.Context, login string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	TrackAttemptedLogin(ctx context.Context, principal *Principal) error
	TrackSuccessfulLogin(ctx context.Context, principal *Principal) error

	Save(ctx context.Context, principal *Principal) (*Principal, error)
	SaveTx(ctx context.Context, tx bun.IDB, principal *Principal) (*Principal, error)
}

type principals struct {
	repository.Repository[*Principal]
	db *bun.DB
}

var (
	_ Principals                        = (*principals)(nil)
	_ repository.Repository[*Principal] = (*principals)(nil)
)

func NewPrincipalsRepository(db *bun.DB) Principals {
	repo := repository.NewRepository[*Principal](db, repository.ModelHandlers[*Principal]{
		NewRecord: func() *Principal { return &Principal{} },
		GetID: func(p *Principal) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *Principal, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
		GetIdentifier: func() string {
			return "login"
		},
	})

	return &principals{
		Repository: repo,
		db:         db,
	}
}

// FindByLoginOrEmail looks the principal up by login first and falls back
// to email. Soft-deleted records are excluded by bun automatically.
func (r *principals) FindByLoginOrEmail(ctx context.Context, identifier string) (*Principal, error) {
	return r.FindByLoginOrEmailTx(ctx, r.db, identifier)
}

func (r *principals) FindByLoginOrEmailTx(ctx context.Context, tx bun.IDB, identifier string) (*Principal, error) {
	identifier = strings.TrimSpace(identifier)

	for _, column := range []string{"login", "email"} {
		record := &Principal{}
		err := tx.NewSelect().
			Model(record).
			Where("?TableAlias."+column+" = ?", identifier).
			Limit(1).
			Scan(ctx)

		if err != nil {
			if repository.IsRecordNotFound(err) {
				continue
			}
			return nil, err
		}

		return record, nil
	}

	return nil, repository.NewRecordNotFound().
		WithMetadata(map[string]any{
			"identifier": identifier,
		})
}

func (r *principals) ExistsByLogin(ctx context.Context, login string) (bool, error) {
	return r.existsBy(ctx, "login", login)
}

func (r *principals) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.existsBy(ctx, "email", email)
}

func (r *principals) existsBy(ctx context.Context, column, value string) (bool, error) {
	return r.db.NewSelect().
		Model((*Principal)(nil)).
		Where("?TableAlias."+column+" = ?", value).
		Exists(ctx)
}

func (r *principals) Save(ctx context.Context, principal *Principal) (*Principal, error) {
	return r.SaveTx(ctx, r.db, principal)
}

// SaveTx creates or updates depending on whether the record carries an ID.
func (r *principals) SaveTx(ctx context.Context, tx bun.IDB, principal *Principal) (*Principal, error) {
	if principal.ID == uuid.Nil {
		principal.ID = uuid.New()
		return r.Repository.CreateTx(ctx, tx, principal)
	}
	return r.Repository.UpdateTx(ctx, tx, principal, repository.UpdateByID(principal.ID.String()))
}

func (r *principals) TrackSuccessfulLogin(ctx context.Context, principal *Principal) error {
	// NOTE: Updating through the ORM won't null out login_attempt_at, so
	// the counters are reset with raw SQL.
	loggedInAt := time.Now()
	_, err := r.db.NewRaw(`
		UPDATE "principals" AS "pr"
		SET
			"loggedin_at" = ?,
			"login_attempt_at" = NULL,
			"login_attempts" = 0
		WHERE
			("pr".id = ?)
			AND "pr"."deleted_at" IS NULL;
	`, loggedInAt, principal.ID).Exec(ctx)

	return err
}

func (r *principals) TrackAttemptedLogin(ctx context.Context, principal *Principal) error {
	// A sparse model update would rewrite every mapped column, so the
	// counter is incremented in place instead.
	now := time.Now()
	_, err := r.db.NewRaw(`
		UPDATE "principals" AS "pr"
		SET
			"login_attempts" = "login_attempts" + 1,
			"login_attempt_at" = ?
		WHERE
			("pr".id = ?)
			AND "pr"."deleted_at" IS NULL;
	`, now, principal.ID).Exec(ctx)

	return err
}
