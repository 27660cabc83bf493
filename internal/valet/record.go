package valet

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/valet/internal/common"
	"github.com/dmitrijs2005/valet/internal/cryptox"
	"github.com/dmitrijs2005/valet/internal/ident"
	"github.com/dmitrijs2005/valet/internal/models"
	"github.com/dmitrijs2005/valet/internal/payload"
)

// Record is one payload held by a lot. It refers to its lot by id only.
type Record struct {
	id    ident.ID[Record]
	lotID ident.ID[Lot]
	data  payload.Payload
}

func (r *Record) ID() ident.ID[Record] { return r.id }
func (r *Record) LotID() ident.ID[Lot] { return r.lotID }
func (r *Record) Payload() payload.Payload { return r.data }
func (r *Record) Label() string { return r.data.Label() }

// save seals the payload under key and upserts the row.
func (r *Record) save(ctx context.Context, store Store, key *cryptox.Key[Lot]) error {
	ct, err := SealPayload(r.data, key)
	if err != nil {
		return err
	}
	_, err = store.Records.Upsert(ctx, &models.Record{
		ID:    r.id.String(),
		LotID: r.lotID.String(),
		Data:  ct.Data,
		Nonce: ct.Nonce,
	})
	if err != nil {
		return fmt.Errorf("save record %s: %w", r.id, err)
	}
	return nil
}

// openRecord parses and decrypts a stored record row.
func openRecord(row *models.Record, lotID ident.ID[Lot], key *cryptox.Key[Lot]) (*Record, error) {
	id, err := ident.Parse[Record](row.ID)
	if err != nil {
		return nil, err
	}
	p, err := OpenPayload(cryptox.CipherText{Data: row.Data, Nonce: row.Nonce}, key)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", id, err)
	}
	return &Record{id: id, lotID: lotID, data: p}, nil
}

// SealPayload runs p through encode, compress and encrypt under a lot key.
func SealPayload(p payload.Payload, key *cryptox.Key[Lot]) (cryptox.CipherText, error) {
	packed, err := payload.Pack(p)
	if err != nil {
		return cryptox.CipherText{}, err
	}
	defer common.WipeByteArray(packed)

	ct, err := key.Encrypt(packed)
	if err != nil {
		return cryptox.CipherText{}, &payload.PipelineError{Stage: payload.StageEncrypt, Err: err}
	}
	return ct, nil
}

// OpenPayload is the inverse of SealPayload. Failures are
// *payload.PipelineError values naming the stage that failed.
func OpenPayload(ct cryptox.CipherText, key *cryptox.Key[Lot]) (payload.Payload, error) {
	packed, err := key.Decrypt(ct)
	if err != nil {
		return payload.Payload{}, &payload.PipelineError{Stage: payload.StageDecrypt, Err: err}
	}
	defer common.WipeByteArray(packed)
	return payload.Unpack(packed)
}
