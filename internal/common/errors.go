// Package common defines sentinel errors and small helpers shared by the
// valet packages. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Authentication errors. Wrong password and unknown user are
	// intentionally reported the same way.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Cryptographic errors.
	ErrKeyDerivation = errors.New("key derivation failed")
	ErrEncryption    = errors.New("encryption failed")
	ErrDecryption    = errors.New("decryption failed")

	// Repository-level errors.
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Access errors: the lot exists but the user holds no wrapped key for it.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrMalformedIdentifier is returned when a stored identifier cannot be parsed.
	ErrMalformedIdentifier = errors.New("malformed identifier")
)
