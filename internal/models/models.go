// Package models holds the row types exchanged with the repositories. All
// byte columns are opaque ciphertext or key-derivation material; nothing
// here is ever plaintext secret data.
package models

import "time"

type User struct {
	Username        string
	Salt            []byte
	ValidationData  []byte
	ValidationNonce []byte
	CreatedAt       time.Time
}

type Lot struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// LotKey is a lot key wrapped under one user's key.
type LotKey struct {
	Username string
	LotID    string
	Data     []byte
	Nonce    []byte
}

type Record struct {
	ID        string
	LotID     string
	Data      []byte
	Nonce     []byte
	CreatedAt time.Time
}
