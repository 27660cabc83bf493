// Package valet implements the key hierarchy that protects stored secrets.
//
// A User's key is derived from a password and never stored. Each Lot has
// its own random key, stored only wrapped under the key of every user that
// may open it. Each Record's payload is packed and sealed under its lot's
// key. Saving a lot re-seals every record it holds, so rotating a lot key
// is RegenerateKey followed by Save.
//
// Keys are typed by owner: a *cryptox.Key[User] cannot be used where a
// *cryptox.Key[Lot] is expected. Users and lots own their keys and must be
// destroyed once the session no longer needs them.
package valet
