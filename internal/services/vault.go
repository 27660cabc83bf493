// Package services runs the key hierarchy against the store for one CLI
// session: registration, login and per-lot operations. Every operation that
// writes more than one row runs in a single transaction, and every operation
// is bounded by the configured timeout.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/valet/internal/common"
	"github.com/dmitrijs2005/valet/internal/dbx"
	"github.com/dmitrijs2005/valet/internal/logging"
	"github.com/dmitrijs2005/valet/internal/repomanager"
	"github.com/dmitrijs2005/valet/internal/secret"
	"github.com/dmitrijs2005/valet/internal/valet"
)

var (
	ErrInvalidLotName = errors.New("lot name must be non-empty and must not contain \"::\"")
	ErrEmptyLabel     = errors.New("label must not be empty")
	// ErrNoSuchLabel matches common.ErrNotFound as well.
	ErrNoSuchLabel = fmt.Errorf("no such label: %w", common.ErrNotFound)
)

// VaultService opens sessions against one database.
type VaultService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
	timeout     time.Duration
	defaultLot  string
}

func NewVaultService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger, timeout time.Duration, defaultLot string) *VaultService {
	return &VaultService{
		db:          db,
		repomanager: m,
		log:         log,
		timeout:     timeout,
		defaultLot:  defaultLot,
	}
}

// DefaultLot is the lot used when a path names none.
func (s *VaultService) DefaultLot() string { return s.defaultLot }

func (s *VaultService) store(db dbx.DBTX) valet.Store {
	return valet.NewStore(s.repomanager, db)
}

func (s *VaultService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Register creates the user and, when no lot of that name exists yet, the
// default lot, in one transaction. The password is destroyed.
func (s *VaultService) Register(ctx context.Context, username string, password *secret.String) (*Session, error) {
	user, err := valet.NewUser(username, password)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	createdLot := false
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		store := s.store(tx)
		if err := user.Register(ctx, store); err != nil {
			return err
		}

		_, err := store.Lots.GetByName(ctx, s.defaultLot)
		switch {
		case err == nil:
			return nil
		case !errors.Is(err, common.ErrNotFound):
			return err
		}

		lot := valet.NewLot(s.defaultLot)
		defer lot.Destroy()
		if err := lot.Save(ctx, store, user); err != nil {
			return err
		}
		createdLot = true
		return nil
	})
	if err != nil {
		user.Destroy()
		s.log.Warn(ctx, "registration failed", "user", username, "error", err)
		return nil, err
	}

	s.log.Info(ctx, "user registered", "user", username, "default_lot_created", createdLot)
	return &Session{svc: s, user: user, log: s.log.With("user", username)}, nil
}

// Login authenticates username. Unknown users and wrong passwords both
// yield common.ErrInvalidCredentials. The password is destroyed.
func (s *VaultService) Login(ctx context.Context, username string, password *secret.String) (*Session, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	user, err := valet.LoadUser(ctx, s.store(s.db), username, password)
	if err != nil {
		s.log.Warn(ctx, "login failed", "user", username, "error", err)
		return nil, err
	}

	s.log.Info(ctx, "user logged in", "user", username)
	return &Session{svc: s, user: user, log: s.log.With("user", username)}, nil
}

func validateLotName(name string) error {
	if name == "" || strings.Contains(name, "::") {
		return fmt.Errorf("%w: %q", ErrInvalidLotName, name)
	}
	return nil
}
