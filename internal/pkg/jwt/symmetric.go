package jwt

import (
	"errors"
	"fmt"

	libJWT "github.com/golang-jwt/jwt/v5"
)

const minHS512Key = 64

// Symmetric signs and verifies HS512 tokens with one shared secret.
type Symmetric struct {
	cfg    Config
	parser *libJWT.Parser
}

func NewHS512(cfg Config) (*Symmetric, error) {
	if len(cfg.Secret) < minHS512Key {
		return nil, ErrSigningKeyTooShort
	}

	parser := libJWT.NewParser(
		libJWT.WithValidMethods([]string{libJWT.SigningMethodHS512.Alg()}),
		libJWT.WithIssuer(cfg.Issuer),
		libJWT.WithAudience(cfg.Audiences...),
		libJWT.WithIssuedAt(),
		libJWT.WithExpirationRequired(),
		libJWT.WithTimeFunc(cfg.Clock.Now),
	)
	return &Symmetric{cfg: cfg, parser: parser}, nil
}

func (s *Symmetric) Generate(subjectID string, methods ...string) (string, error) {
	now := s.cfg.Clock.Now()
	claims := Claims{
		RegisteredClaims: libJWT.RegisteredClaims{
			ID:        s.cfg.UUID.Generate(),
			Subject:   subjectID,
			Issuer:    s.cfg.Issuer,
			Audience:  s.cfg.Audiences,
			IssuedAt:  libJWT.NewNumericDate(now),
			NotBefore: libJWT.NewNumericDate(now),
			ExpiresAt: libJWT.NewNumericDate(now.Add(s.cfg.TTL)),
		},
		Methods: methods,
	}

	signed, err := libJWT.NewWithClaims(libJWT.SigningMethodHS512, claims).SignedString(s.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("jwt: sign: %w", err)
	}
	return signed, nil
}

// Verify returns ErrTokenExpired for a lapsed token and ErrInvalidToken for
// every other rejection, wrapping the parser's reason.
func (s *Symmetric) Verify(token string) (Claims, error) {
	var claims Claims
	parsed, err := s.parser.ParseWithClaims(token, &claims, func(*libJWT.Token) (any, error) {
		return s.cfg.Secret, nil
	})
	switch {
	case errors.Is(err, libJWT.ErrTokenExpired):
		return Claims{}, ErrTokenExpired
	case err != nil:
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	case !parsed.Valid || claims.Subject == "":
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}
