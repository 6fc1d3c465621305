// Package otp issues TOTP secrets for authenticator apps and verifies codes
// against the encrypted secret stored with a credential.
package otp

import (
	"encoding/base32"
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	defaultPeriod uint = 30
	defaultSkew   uint = 1
	secretBytes        = 20
)

var rawBase32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// OTP is the set of TOTP primitives the credential flows need.
type OTP interface {
	Generate(accountName string) (secret string, uri string, err error)
	URI(accountName, secret string) (string, error)
	Validate(code, secret string, at time.Time) bool
	GenerateCode(secret string, at time.Time) (string, error)
	Digits() int
	Period() uint
}

// TOTP is an RFC 6238 implementation with SHA1, which is what every mainstream
// authenticator app expects.
type TOTP struct {
	issuer string
	params totp.ValidateOpts
}

// NewTOTP normalizes its inputs: digits other than 6 or 8 become 6, a zero
// period becomes 30 seconds and a zero skew becomes one step.
func NewTOTP(issuer string, period, skew uint, digits otp.Digits) *TOTP {
	switch digits {
	case otp.DigitsSix, otp.DigitsEight:
	default:
		digits = otp.DigitsSix
	}

	return &TOTP{
		issuer: issuer,
		params: totp.ValidateOpts{
			Period:    orDefault(period, defaultPeriod),
			Skew:      orDefault(skew, defaultSkew),
			Digits:    digits,
			Algorithm: otp.AlgorithmSHA1,
		},
	}
}

// Generate draws a fresh 160-bit secret and returns it with its otpauth URI.
func (o *TOTP) Generate(accountName string) (string, string, error) {
	key, err := o.key(accountName, nil)
	if err != nil {
		return "", "", err
	}

	return key.Secret(), key.URL(), nil
}

// URI rebuilds the otpauth URI for an existing base32 secret.
func (o *TOTP) URI(accountName, secret string) (string, error) {
	raw, err := rawBase32.DecodeString(strings.ToUpper(strings.TrimRight(secret, "=")))
	if err != nil {
		return "", fmt.Errorf("otp: decode secret: %w", err)
	}

	key, err := o.key(accountName, raw)
	if err != nil {
		return "", err
	}

	return key.URL(), nil
}

func (o *TOTP) Validate(code, secret string, at time.Time) bool {
	ok, err := totp.ValidateCustom(code, secret, at, o.params)
	return err == nil && ok
}

func (o *TOTP) GenerateCode(secret string, at time.Time) (string, error) {
	code, err := totp.GenerateCodeCustom(secret, at, o.params)
	if err != nil {
		return "", fmt.Errorf("otp: generate code: %w", err)
	}
	return code, nil
}

func (o *TOTP) Digits() int { return o.params.Digits.Length() }

func (o *TOTP) Period() uint { return o.params.Period }

func (o *TOTP) key(accountName string, secret []byte) (*otp.Key, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      o.issuer,
		AccountName: accountName,
		Period:      o.params.Period,
		SecretSize:  secretBytes,
		Secret:      secret,
		Digits:      o.params.Digits,
		Algorithm:   o.params.Algorithm,
	})
	if err != nil {
		return nil, fmt.Errorf("otp: build key: %w", err)
	}
	return key, nil
}

func orDefault(v, def uint) uint {
	if v == 0 {
		return def
	}
	return v
}
