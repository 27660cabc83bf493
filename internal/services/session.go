package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/valet/internal/dbx"
	"github.com/dmitrijs2005/valet/internal/logging"
	"github.com/dmitrijs2005/valet/internal/payload"
	"github.com/dmitrijs2005/valet/internal/valet"
)

// Session is an authenticated user. Lot keys are unwrapped per operation
// and destroyed when it returns; only the user key lives for the session.
type Session struct {
	svc  *VaultService
	user *valet.User
	log  logging.Logger
}

// Entry is the newest record for one label.
type Entry struct {
	ID      string
	Label   string
	Payload payload.Payload
}

func (s *Session) Username() string { return s.user.Username() }

// Close destroys the user key. The session is unusable afterwards.
func (s *Session) Close() {
	s.user.Destroy()
}

// Lots returns the names of every lot the user can open.
func (s *Session) Lots(ctx context.Context) ([]string, error) {
	ctx, cancel := s.svc.withTimeout(ctx)
	defer cancel()

	lots, err := s.user.Lots(ctx, s.svc.store(s.svc.db))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(lots))
	for _, l := range lots {
		names = append(names, l.Name())
		l.Destroy()
	}
	return names, nil
}

// CreateLot creates and saves an empty lot. A taken name yields
// common.ErrAlreadyExists.
func (s *Session) CreateLot(ctx context.Context, name string) error {
	if err := validateLotName(name); err != nil {
		return err
	}

	ctx, cancel := s.svc.withTimeout(ctx)
	defer cancel()

	lot := valet.NewLot(name)
	defer lot.Destroy()

	err := dbx.WithTx(ctx, s.svc.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return lot.Save(ctx, s.svc.store(tx), s.user)
	})
	if err != nil {
		return err
	}
	s.log.Info(ctx, "lot created", "lot", name, "lot_id", lot.ID().String())
	return nil
}

// List returns the newest record of each label in lotName, ordered by first
// appearance.
func (s *Session) List(ctx context.Context, lotName string) ([]Entry, error) {
	var entries []Entry
	err := s.withLot(ctx, lotName, func(ctx context.Context, store valet.Store, lot *valet.Lot) error {
		seen := make(map[string]int)
		for _, rec := range lot.Records() {
			e := Entry{ID: rec.ID().String(), Label: rec.Label(), Payload: rec.Payload()}
			if i, ok := seen[e.Label]; ok {
				entries[i] = e
				continue
			}
			seen[e.Label] = len(entries)
			entries = append(entries, e)
		}
		return nil
	})
	return entries, err
}

// Put stores p as a new record of lotName and returns the record id.
func (s *Session) Put(ctx context.Context, lotName string, p payload.Payload) (string, error) {
	if p.Label() == "" {
		return "", ErrEmptyLabel
	}

	var id string
	err := s.withLot(ctx, lotName, func(ctx context.Context, store valet.Store, lot *valet.Lot) error {
		recID, err := lot.Insert(ctx, store, p)
		if err != nil {
			return err
		}
		id = recID.String()
		return nil
	})
	if err != nil {
		return "", err
	}
	s.log.Info(ctx, "record stored", "lot", lotName, "record_id", id, "label", p.Label())
	return id, nil
}

// Get returns the newest record labelled label in lotName.
func (s *Session) Get(ctx context.Context, lotName, label string) (Entry, error) {
	var entry Entry
	err := s.withLot(ctx, lotName, func(ctx context.Context, store valet.Store, lot *valet.Lot) error {
		rec, ok := lot.Find(label)
		if !ok {
			return fmt.Errorf("%w: %q in lot %q", ErrNoSuchLabel, label, lotName)
		}
		entry = Entry{ID: rec.ID().String(), Label: rec.Label(), Payload: rec.Payload()}
		return nil
	})
	return entry, err
}

// Rotate gives lotName a fresh key and re-seals every record under it, in
// one transaction. It returns the number of re-sealed records.
func (s *Session) Rotate(ctx context.Context, lotName string) (int, error) {
	var n int
	err := s.withLot(ctx, lotName, func(ctx context.Context, store valet.Store, lot *valet.Lot) error {
		lot.RegenerateKey()
		if err := lot.Save(ctx, store, s.user); err != nil {
			return err
		}
		n = len(lot.Records())
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.log.Info(ctx, "lot key rotated", "lot", lotName, "records", n)
	return n, nil
}

// withLot loads lotName inside a transaction, runs fn and destroys the lot.
func (s *Session) withLot(ctx context.Context, lotName string, fn func(ctx context.Context, store valet.Store, lot *valet.Lot) error) error {
	if err := validateLotName(lotName); err != nil {
		return err
	}

	ctx, cancel := s.svc.withTimeout(ctx)
	defer cancel()

	err := dbx.WithTx(ctx, s.svc.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		store := s.svc.store(tx)
		lot, err := valet.LoadLot(ctx, store, lotName, s.user)
		if err != nil {
			return err
		}
		defer lot.Destroy()
		return fn(ctx, store, lot)
	})
	if err != nil {
		s.log.Debug(ctx, "lot operation failed", "lot", lotName, "error", err)
	}
	return err
}
