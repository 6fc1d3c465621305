// Package envelope provides authenticated symmetric encryption for short secret
// strings such as TOTP seeds.
//
// A blob produced by this package is self-contained:
//
//	[0..11]  12-byte random nonce
//	[12..]   AES-256-GCM ciphertext followed by the 16-byte tag
//
// No associated data is bound to the blob.
package envelope

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// KeySize is the required master key length in bytes.
const KeySize = 32

var (
	// ErrInvalidKey indicates the master key is missing or not 32 bytes.
	ErrInvalidKey = errors.New("envelope: master key must be 32 bytes")
	// ErrDecryptionFailure indicates a truncated or tampered blob.
	ErrDecryptionFailure = errors.New("envelope: decryption failure")
)

// Encryptor seals and opens envelope blobs.
type Encryptor interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(blob []byte) ([]byte, error)
}

// Key is an immutable master key. The zero value is invalid.
type Key struct {
	b     [KeySize]byte
	valid bool
}

// NewKey copies raw into a Key.
func NewKey(raw []byte) (Key, error) {
	if len(raw) != KeySize {
		return Key{}, fmt.Errorf("%w: got %d bytes", ErrInvalidKey, len(raw))
	}
	var k Key
	copy(k.b[:], raw)
	k.valid = true
	return k, nil
}

// KeyFromBase64 decodes a standard base64 string into a Key.
func KeyFromBase64(s string) (Key, error) {
	if s == "" {
		return Key{}, ErrInvalidKey
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return Key{}, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return NewKey(raw)
}

// Valid reports whether the key was constructed through NewKey.
func (k Key) Valid() bool { return k.valid }

// String never prints key material.
func (k Key) String() string { return "envelope.Key(redacted)" }
