package cryptox

import (
	"fmt"

	"github.com/dmitrijs2005/valet/internal/common"
	"golang.org/x/crypto/chacha20poly1305"
)

// CipherText is an authenticated ciphertext and the nonce it was sealed with.
// It is the stored form of everything encrypted.
type CipherText struct {
	Data  []byte
	Nonce []byte
}

// Encrypt seals plaintext under k with a fresh random nonce.
func (k *Key[T]) Encrypt(plaintext []byte) (CipherText, error) {
	aead, err := chacha20poly1305.NewX(k.material[:])
	if err != nil {
		return CipherText{}, fmt.Errorf("%w: %v", common.ErrEncryption, err)
	}

	nonce := common.GenerateRandByteArray(NonceSize)

	return CipherText{
		Data:  aead.Seal(nil, nonce, plaintext, nil),
		Nonce: nonce,
	}, nil
}

// Decrypt opens ct with k. Any failure, whether a wrong key, a wrong nonce
// or modified data, is reported as common.ErrDecryption; callers cannot and
// should not tell these apart.
func (k *Key[T]) Decrypt(ct CipherText) ([]byte, error) {
	if len(ct.Nonce) != NonceSize {
		return nil, fmt.Errorf("%w: nonce must be %d bytes, got %d", common.ErrDecryption, NonceSize, len(ct.Nonce))
	}

	aead, err := chacha20poly1305.NewX(k.material[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecryption, err)
	}

	plaintext, err := aead.Open(nil, ct.Nonce, ct.Data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecryption, err)
	}
	return plaintext, nil
}
