package common

import "crypto/rand"

// WipeByteArray overwrites the contents of b with zeros. It is a no-op for
// nil slices.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// GenerateRandByteArray returns size bytes read from the system CSPRNG.
// crypto/rand.Read never fails on supported platforms; it aborts the
// process instead.
func GenerateRandByteArray(size int) []byte {
	b := make([]byte, size)
	_, _ = rand.Read(b)
	return b
}
