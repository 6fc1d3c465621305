// Package jwt issues and verifies the access tokens handed out once a subject
// has passed the second factor. Tokens are HS512 signed and carry the subject
// id plus the authentication methods used.
package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrSigningKeyTooShort = errors.New("jwt: HS512 key must be at least 64 bytes")
	ErrTokenExpired       = errors.New("jwt: token expired")
	ErrInvalidToken       = errors.New("jwt: invalid token")
)

type JWT interface {
	// Generate signs an access token for subjectID. methods become the amr claim.
	Generate(subjectID string, methods ...string) (string, error)
	Verify(token string) (Claims, error)
}

type Config struct {
	Secret    []byte
	Issuer    string
	Audiences []string
	TTL       time.Duration
	Clock     interface{ Now() time.Time }
	UUID      interface{ Generate() string }
}

type Claims struct {
	jwt.RegisteredClaims
	// Methods lists how the subject authenticated, e.g. "otp" or "recovery".
	Methods []string `json:"amr,omitempty"`
}

func (c Claims) SubjectID() string {
	return c.Subject
}

type claimsKey struct{}

// SetAuth stores verified claims for handlers further down the chain.
func SetAuth(ctx context.Context, clm Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, clm)
}

// GetAuth returns nil on unauthenticated requests.
func GetAuth(ctx context.Context) *Claims {
	if clm, ok := ctx.Value(claimsKey{}).(Claims); ok {
		return &clm
	}
	return nil
}
