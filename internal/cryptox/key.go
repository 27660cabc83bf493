// Package cryptox implements the symmetric primitives of the key hierarchy:
// Argon2id password derivation and XChaCha20-Poly1305 authenticated
// encryption under keys tagged with the entity that owns them.
package cryptox

import (
	"crypto/subtle"
	"fmt"

	"github.com/dmitrijs2005/valet/internal/common"
	"github.com/dmitrijs2005/valet/internal/secret"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	// KeySize is the raw key length: 256 bits.
	KeySize = chacha20poly1305.KeySize
	// NonceSize is the XChaCha20 nonce length, large enough to be drawn at
	// random for every encryption.
	NonceSize = chacha20poly1305.NonceSizeX
	// SaltSize is the per-user salt length. It only needs more entropy than
	// the password it protects.
	SaltSize = 16
)

// Argon2id cost parameters. Derivation is deliberately slow; changing any of
// these makes every stored user unreadable.
const (
	argonTime    = 3
	argonMemory  = 64 * 1024
	argonThreads = 4
)

// noCopy makes go vet's copylocks check report copied keys.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Salt is the random value mixed into password derivation.
type Salt [SaltSize]byte

// GenerateSalt returns a fresh random salt.
func GenerateSalt() Salt {
	var s Salt
	b := common.GenerateRandByteArray(SaltSize)
	copy(s[:], b)
	return s
}

// SaltFromBytes converts stored salt bytes, reporting whether the length was
// exactly SaltSize.
func SaltFromBytes(b []byte) (Salt, bool) {
	var s Salt
	if len(b) != SaltSize {
		return s, false
	}
	copy(s[:], b)
	return s, true
}

// Key is a symmetric key owned by an entity of type T. The tag has no
// runtime representation; it only stops a Key[User] from being passed where
// a Key[Lot] is expected.
//
// Keys are created on the heap and shared by pointer. Destroy zeroes the
// key material.
type Key[T any] struct {
	noCopy   noCopy
	material [KeySize]byte
}

// GenerateKey returns a new random key.
func GenerateKey[T any]() *Key[T] {
	k := &Key[T]{}
	b := common.GenerateRandByteArray(KeySize)
	defer common.WipeByteArray(b)
	copy(k.material[:], b)
	return k
}

// DeriveKey derives a key from password and salt with Argon2id. The same
// password and salt always yield the same key. The password is only
// borrowed; the caller still owns and destroys it.
func DeriveKey[T any](password *secret.String, salt Salt) (k *Key[T], err error) {
	// argon2 allocates its memory matrix up front and panics if it cannot.
	defer func() {
		if r := recover(); r != nil {
			k = nil
			err = fmt.Errorf("%w: %v", common.ErrKeyDerivation, r)
		}
	}()

	out := argon2.IDKey(password.Bytes(), salt[:], argonTime, argonMemory, argonThreads, KeySize)
	defer common.WipeByteArray(out)

	k = &Key[T]{}
	copy(k.material[:], out)
	return k, nil
}

// KeyFromRawBytes rebuilds a key from RawBytes output. It panics unless b is
// exactly KeySize long; it is meant for trusted in-process data such as an
// unwrapped lot key, never for user input.
func KeyFromRawBytes[T any](b []byte) *Key[T] {
	if len(b) != KeySize {
		panic(fmt.Sprintf("cryptox: raw key must be %d bytes, got %d", KeySize, len(b)))
	}
	k := &Key[T]{}
	copy(k.material[:], b)
	return k
}

// RawBytes returns a view of the key material. The view is zeroed by
// Destroy and must not be retained.
func (k *Key[T]) RawBytes() []byte {
	return k.material[:]
}

// Equal reports whether two keys hold the same material. Intended for tests.
func (k *Key[T]) Equal(other *Key[T]) bool {
	if k == nil || other == nil {
		return k == other
	}
	return subtle.ConstantTimeCompare(k.material[:], other.material[:]) == 1
}

// Destroy zeroes the key material. A destroyed key must not be used again.
func (k *Key[T]) Destroy() {
	if k == nil {
		return
	}
	common.WipeByteArray(k.material[:])
}
