package valet

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/valet/internal/common"
	"github.com/dmitrijs2005/valet/internal/cryptox"
	"github.com/dmitrijs2005/valet/internal/models"
	"github.com/dmitrijs2005/valet/internal/secret"
)

// validationMarker is sealed under a new user's key. Opening it again proves
// the password that derived the key was right.
var validationMarker = []byte("valet/user-validation/v1")

var errEmptyUsername = errors.New("username must not be empty")

// deriveUserKey is a test seam for cryptox.DeriveKey.
var deriveUserKey = cryptox.DeriveKey[User]

// User is an authenticated identity and the key derived from its password.
type User struct {
	username   string
	salt       cryptox.Salt
	validation cryptox.CipherText
	key        *cryptox.Key[User]
}

// NewUser creates a user in memory with a fresh salt. The password is
// destroyed before NewUser returns, whatever the outcome.
func NewUser(username string, password *secret.String) (*User, error) {
	defer password.Destroy()

	if username == "" {
		return nil, errEmptyUsername
	}

	salt := cryptox.GenerateSalt()
	key, err := deriveUserKey(password, salt)
	if err != nil {
		return nil, err
	}

	validation, err := key.Encrypt(validationMarker)
	if err != nil {
		key.Destroy()
		return nil, err
	}

	return &User{username: username, salt: salt, validation: validation, key: key}, nil
}

// Authenticate rebuilds a user from its stored row and a password. Any
// mismatch yields common.ErrInvalidCredentials; a failed derivation yields
// common.ErrKeyDerivation. The password is destroyed before Authenticate
// returns.
func Authenticate(stored *models.User, password *secret.String) (*User, error) {
	defer password.Destroy()

	salt, ok := cryptox.SaltFromBytes(stored.Salt)
	if !ok {
		return nil, common.ErrInvalidCredentials
	}

	key, err := deriveUserKey(password, salt)
	if err != nil {
		return nil, err
	}

	u := &User{
		username:   stored.Username,
		salt:       salt,
		validation: cryptox.CipherText{Data: stored.ValidationData, Nonce: stored.ValidationNonce},
		key:        key,
	}
	if !u.Validate() {
		u.Destroy()
		return nil, common.ErrInvalidCredentials
	}
	return u, nil
}

// LoadUser fetches username from the store and authenticates it. An unknown
// user and a wrong password both yield common.ErrInvalidCredentials, and
// both pay the full key derivation cost. Storage failures are returned as
// they are.
func LoadUser(ctx context.Context, store Store, username string, password *secret.String) (*User, error) {
	defer password.Destroy()

	stored, err := store.Users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			burnDerivation(password)
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return Authenticate(stored, password)
}

func burnDerivation(password *secret.String) {
	if k, err := deriveUserKey(password, cryptox.Salt{}); err == nil {
		k.Destroy()
	}
}

// Validate reports whether the user's key opens the stored validation
// marker. It never fails; any decryption error means false.
func (u *User) Validate() bool {
	plaintext, err := u.key.Decrypt(u.validation)
	if err != nil {
		return false
	}
	defer common.WipeByteArray(plaintext)
	return subtle.ConstantTimeCompare(plaintext, validationMarker) == 1
}

// Register persists the user. A taken username yields
// common.ErrAlreadyExists.
func (u *User) Register(ctx context.Context, store Store) error {
	_, err := store.Users.Insert(ctx, &models.User{
		Username:        u.username,
		Salt:            u.salt[:],
		ValidationData:  u.validation.Data,
		ValidationNonce: u.validation.Nonce,
	})
	if err != nil {
		return fmt.Errorf("register %q: %w", u.username, err)
	}
	return nil
}

// Lots loads every lot the user holds a key for, ordered by lot id. The
// caller owns the returned lots and must destroy them.
func (u *User) Lots(ctx context.Context, store Store) ([]*Lot, error) {
	keys, err := store.LotKeys.ListByUser(ctx, u.username)
	if err != nil {
		return nil, fmt.Errorf("list lots: %w", err)
	}

	out := make([]*Lot, 0, len(keys))
	for i := range keys {
		row, err := store.Lots.GetByID(ctx, keys[i].LotID)
		if err == nil {
			var lot *Lot
			lot, err = openLot(ctx, store, row, &keys[i], u)
			if err == nil {
				out = append(out, lot)
				continue
			}
		}
		for _, l := range out {
			l.Destroy()
		}
		return nil, fmt.Errorf("list lots: %w", err)
	}
	return out, nil
}

func (u *User) Username() string { return u.username }

// Key returns the user's key. It stays owned by the user.
func (u *User) Key() *cryptox.Key[User] { return u.key }

// Destroy zeroes the user's key.
func (u *User) Destroy() {
	if u == nil {
		return
	}
	u.key.Destroy()
}
