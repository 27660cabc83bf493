// Package secret holds plaintext passwords in memory that is locked, kept
// outside the Go heap and wiped when the holder is destroyed.
//
// A String is created once and then only ever shared by pointer. Its backing
// buffer is allocated by memguard, so the garbage collector never relocates
// or duplicates it while it is held across a blocking call, and Destroy
// overwrites it before releasing the pages. Callers must Destroy a String on
// every path, normally with defer.
package secret

import (
	"github.com/awnumar/memguard"
)

// noCopy makes go vet's copylocks check report values copied after first use.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// String is a password holder whose contents are wiped on Destroy.
type String struct {
	noCopy noCopy
	buf    *memguard.LockedBuffer
}

// FromBytes moves b into protected memory and wipes b. The caller's slice
// holds only zeros when FromBytes returns.
func FromBytes(b []byte) *String {
	s := &String{buf: memguard.NewBufferFromBytes(b)}
	if s.buf.IsAlive() {
		s.buf.Freeze()
	}
	return s
}

// FromString copies s into protected memory. Go strings are immutable, so
// the source cannot be wiped; use FromBytes for anything read from a user.
func FromString(s string) *String {
	return FromBytes([]byte(s))
}

// Empty returns a String holding no bytes.
func Empty() *String {
	return FromBytes(nil)
}

// Bytes returns a read-only view of the plaintext. The view is valid until
// Destroy and must not be retained or modified.
func (s *String) Bytes() []byte {
	if s == nil || !s.buf.IsAlive() {
		return nil
	}
	return s.buf.Bytes()
}

// Text returns the plaintext as a string backed by the protected buffer.
// Like Bytes, it must not be used after Destroy.
func (s *String) Text() string {
	if s == nil || !s.buf.IsAlive() {
		return ""
	}
	return s.buf.String()
}

// Len returns the plaintext length in bytes.
func (s *String) Len() int {
	return len(s.Bytes())
}

// IsAlive reports whether the String still holds its plaintext.
func (s *String) IsAlive() bool {
	return s != nil && s.buf.IsAlive()
}

// Destroy wipes and releases the protected buffer. It is safe to call more
// than once.
func (s *String) Destroy() {
	if s == nil || s.buf == nil {
		return
	}
	s.buf.Destroy()
}

// String implements fmt.Stringer without revealing the plaintext.
func (s *String) String() string {
	return "[redacted]"
}

// GoString keeps %#v from printing the plaintext as well.
func (s *String) GoString() string {
	return "secret.String{[redacted]}"
}
