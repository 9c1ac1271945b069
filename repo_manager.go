package auth

import (
	"context"
	"database/sql"
	"errors"
	"log"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Principals() Principals
}

type mngr struct {
	db         *bun.DB
	principals Principals
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:         db,
		principals: NewPrincipalsRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.principals == nil {
		return errors.New("repository principals should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Principals() Principals {
	return m.principals
}

// BunCredentialStore adapts the repository manager to the CredentialStore
// collaborator the Authenticator consumes. Writes run in a transaction.
type BunCredentialStore struct {
	repo RepositoryManager
}

var (
	_ CredentialStore = (*BunCredentialStore)(nil)
	_ LoginTracker    = (*BunCredentialStore)(nil)
)

func NewBunCredentialStore(repo RepositoryManager) *BunCredentialStore {
	return &BunCredentialStore{repo: repo}
}

func (s *BunCredentialStore) FindByLoginOrEmail(ctx context.Context, identifier string) (*Principal, error) {
	return s.repo.Principals().FindByLoginOrEmail(ctx, identifier)
}

func (s *BunCredentialStore) ExistsByLogin(ctx context.Context, login string) (bool, error) {
	return s.repo.Principals().ExistsByLogin(ctx, login)
}

func (s *BunCredentialStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return s.repo.Principals().ExistsByEmail(ctx, email)
}

func (s *BunCredentialStore) Save(ctx context.Context, principal *Principal) (*Principal, error) {
	var saved *Principal
	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		saved, err = s.repo.Principals().SaveTx(ctx, tx, principal)
		return err
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *BunCredentialStore) TrackAttemptedLogin(ctx context.Context, principal *Principal) error {
	return s.repo.Principals().TrackAttemptedLogin(ctx, principal)
}

func (s *BunCredentialStore) TrackSuccessfulLogin(ctx context.Context, principal *Principal) error {
	return s.repo.Principals().TrackSuccessfulLogin(ctx, principal)
}
