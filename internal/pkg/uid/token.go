package uid

import (
	"crypto/rand"
	"encoding/base64"
)

// URLToken generates random base64url strings without padding.
type URLToken struct {
	size int
}

// NewURLToken returns a generator drawing size random bytes per token.
func NewURLToken(size int) *URLToken {
	if size < 16 {
		size = 16
	}
	return &URLToken{size: size}
}

// Generate returns a new token. crypto/rand never fails on supported platforms.
func (t *URLToken) Generate() string {
	b := make([]byte, t.size)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
