package valet

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/valet/internal/common"
	"github.com/dmitrijs2005/valet/internal/cryptox"
	"github.com/dmitrijs2005/valet/internal/ident"
	"github.com/dmitrijs2005/valet/internal/models"
	"github.com/dmitrijs2005/valet/internal/payload"
)

// Lot is a named collection of records sealed under the lot's own key.
type Lot struct {
	id      ident.ID[Lot]
	name    string
	key     *cryptox.Key[Lot]
	records []*Record
}

// NewLot creates an empty lot with a fresh id and a fresh random key. It is
// not persisted until Save.
func NewLot(name string) *Lot {
	return &Lot{
		id:   ident.New[Lot](),
		name: name,
		key:  cryptox.GenerateKey[Lot](),
	}
}

// LoadLot loads the lot called name and decrypts it with user's key. It
// yields common.ErrNotFound when no such lot exists and
// common.ErrNotAuthorized when the user holds no key to it. A record that
// fails to decrypt fails the whole load.
func LoadLot(ctx context.Context, store Store, name string, user *User) (*Lot, error) {
	row, err := store.Lots.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("lot %q: %w", name, err)
	}

	wrapped, err := store.LotKeys.Get(ctx, user.username, row.ID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("lot %q: %w", name, common.ErrNotAuthorized)
		}
		return nil, fmt.Errorf("lot %q: %w", name, err)
	}

	return openLot(ctx, store, row, wrapped, user)
}

func openLot(ctx context.Context, store Store, row *models.Lot, wrapped *models.LotKey, user *User) (*Lot, error) {
	id, err := ident.Parse[Lot](row.ID)
	if err != nil {
		return nil, err
	}

	raw, err := user.key.Decrypt(cryptox.CipherText{Data: wrapped.Data, Nonce: wrapped.Nonce})
	if err != nil {
		return nil, fmt.Errorf("lot %q: unwrap key: %w", row.Name, err)
	}
	defer common.WipeByteArray(raw)
	if len(raw) != cryptox.KeySize {
		return nil, fmt.Errorf("lot %q: unwrap key: %w: bad key length", row.Name, common.ErrDecryption)
	}

	lot := &Lot{id: id, name: row.Name, key: cryptox.KeyFromRawBytes[Lot](raw)}

	rows, err := store.Records.ListByLot(ctx, row.ID)
	if err != nil {
		lot.Destroy()
		return nil, fmt.Errorf("lot %q: %w", row.Name, err)
	}

	lot.records = make([]*Record, 0, len(rows))
	for i := range rows {
		if err := ctx.Err(); err != nil {
			lot.Destroy()
			return nil, err
		}
		rec, err := openRecord(&rows[i], id, lot.key)
		if err != nil {
			lot.Destroy()
			return nil, fmt.Errorf("lot %q: %w", row.Name, err)
		}
		lot.records = append(lot.records, rec)
	}
	return lot, nil
}

// Save persists the lot row, wraps the lot key under user's key and
// re-seals every record under the current lot key. After RegenerateKey this
// is what moves the lot and all its records to the new key.
//
// Save issues several statements; run it inside a transaction so a failure
// part way cannot leave records sealed under a key no stored copy unwraps.
func (l *Lot) Save(ctx context.Context, store Store, user *User) error {
	if _, err := store.Lots.Upsert(ctx, &models.Lot{ID: l.id.String(), Name: l.name}); err != nil {
		return fmt.Errorf("save lot %q: %w", l.name, err)
	}

	wrapped, err := user.key.Encrypt(l.key.RawBytes())
	if err != nil {
		return fmt.Errorf("save lot %q: wrap key: %w", l.name, err)
	}
	_, err = store.LotKeys.Upsert(ctx, &models.LotKey{
		Username: user.username,
		LotID:    l.id.String(),
		Data:     wrapped.Data,
		Nonce:    wrapped.Nonce,
	})
	if err != nil {
		return fmt.Errorf("save lot %q: %w", l.name, err)
	}

	for _, rec := range l.records {
		if err := rec.save(ctx, store, l.key); err != nil {
			return fmt.Errorf("save lot %q: %w", l.name, err)
		}
	}
	return nil
}

// Insert adds p to the lot as a new record, persists it and returns its id.
// The lot must already have been saved. Records are never updated in place;
// a new value for a label is a new record.
func (l *Lot) Insert(ctx context.Context, store Store, p payload.Payload) (ident.ID[Record], error) {
	rec := &Record{id: ident.New[Record](), lotID: l.id, data: p}
	if err := rec.save(ctx, store, l.key); err != nil {
		return ident.ID[Record]{}, err
	}
	l.records = append(l.records, rec)
	return rec.id, nil
}

// RegenerateKey replaces the lot key with a fresh random one and destroys
// the old key. Nothing is persisted until Save; if that Save fails the lot
// must be discarded and loaded again.
func (l *Lot) RegenerateKey() {
	old := l.key
	l.key = cryptox.GenerateKey[Lot]()
	old.Destroy()
}

// Rename changes the lot name. The id and key stay the same.
func (l *Lot) Rename(name string) { l.name = name }

// Find returns the most recently inserted record labelled label.
func (l *Lot) Find(label string) (*Record, bool) {
	for i := len(l.records) - 1; i >= 0; i-- {
		if l.records[i].Label() == label {
			return l.records[i], true
		}
	}
	return nil, false
}

// Records returns the lot's records in insertion order.
func (l *Lot) Records() []*Record {
	out := make([]*Record, len(l.records))
	copy(out, l.records)
	return out
}

func (l *Lot) ID() ident.ID[Lot] { return l.id }
func (l *Lot) Name() string { return l.name }

// Key returns the lot key. It stays owned by the lot.
func (l *Lot) Key() *cryptox.Key[Lot] { return l.key }

// Destroy zeroes the lot key.
func (l *Lot) Destroy() {
	if l == nil {
		return
	}
	l.key.Destroy()
}
