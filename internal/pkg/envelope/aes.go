package envelope

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
)

const nonceSize = 12

// AESGCM implements Encryptor using AES-256-GCM.
type AESGCM struct {
	aead cipher.AEAD
	rand io.Reader
}

// NewAESGCM builds the cipher once; the returned value is safe for concurrent use.
func NewAESGCM(key Key) (*AESGCM, error) {
	if !key.Valid() {
		return nil, ErrInvalidKey
	}

	block, err := aes.NewCipher(key.b[:])
	if err != nil {
		return nil, fmt.Errorf("envelope: aes init failed: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("envelope: gcm init failed: %w", err)
	}

	return &AESGCM{aead: aead, rand: rand.Reader}, nil
}

// Encrypt returns nonce || ciphertext || tag. Every call draws a fresh nonce.
func (e *AESGCM) Encrypt(plaintext []byte) ([]byte, error) {
	out := make([]byte, nonceSize, nonceSize+len(plaintext)+e.aead.Overhead())
	if _, err := io.ReadFull(e.rand, out); err != nil {
		return nil, fmt.Errorf("envelope: nonce generation failed: %w", err)
	}

	return e.aead.Seal(out, out[:nonceSize], plaintext, nil), nil
}

// Decrypt authenticates and opens a blob produced by Encrypt.
func (e *AESGCM) Decrypt(blob []byte) ([]byte, error) {
	if len(blob) < nonceSize+e.aead.Overhead() {
		return nil, ErrDecryptionFailure
	}

	plain, err := e.aead.Open(nil, blob[:nonceSize], blob[nonceSize:], nil)
	if err != nil {
		// never distinguish wrong key from tampering
		return nil, ErrDecryptionFailure
	}
	return plain, nil
}
