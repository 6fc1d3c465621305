// Package hash signs coupons and derives lookup keys for session tokens.
// Only the digest of a token is ever stored.
package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Hash produces and verifies keyed digests.
type Hash interface {
	Hash(str string) ([]byte, error)
	Verify(hashed, str string) bool
}

// HMACSHA256 returns lowercase hex HMAC-SHA256 digests.
type HMACSHA256 struct {
	secret []byte
}

func NewHMACSHA256(secret string) *HMACSHA256 {
	return &HMACSHA256{secret: []byte(secret)}
}

func (s *HMACSHA256) Hash(str string) ([]byte, error) {
	return s.digest(str), nil
}

// Verify compares in constant time.
func (s *HMACSHA256) Verify(hashed, str string) bool {
	return hmac.Equal([]byte(hashed), s.digest(str))
}

func (s *HMACSHA256) digest(str string) []byte {
	m := hmac.New(sha256.New, s.secret)
	m.Write([]byte(str))
	return hex.AppendEncode(nil, m.Sum(nil))
}
