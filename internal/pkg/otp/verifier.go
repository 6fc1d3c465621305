package otp

import (
	"log/slog"

	"github.com/shandysiswandi/ktvs/internal/pkg/clock"
	"github.com/shandysiswandi/ktvs/internal/pkg/envelope"
)

// Verifier checks codes against encrypted secrets. Plaintext secrets only
// live for the duration of a call.
type Verifier struct {
	otp   OTP
	enc   envelope.Encryptor
	clock clock.Clocker
}

// NewVerifier builds a Verifier.
func NewVerifier(o OTP, enc envelope.Encryptor, c clock.Clocker) *Verifier {
	return &Verifier{otp: o, enc: enc, clock: c}
}

// Verify reports whether code matches the current step or one step either side.
// Any failure, including a panic from the underlying libraries, yields false.
func (v *Verifier) Verify(encryptedSecret []byte, code string) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("otp verification panicked", "panic", r)
			ok = false
		}
	}()

	secret, err := v.enc.Decrypt(encryptedSecret)
	if err != nil {
		slog.Warn("otp verification could not open secret", "error", err)
		return false
	}

	return v.otp.Validate(code, string(secret), v.clock.Now())
}

// CurrentCode returns the code for the present time step. It is for
// administrative display only.
func (v *Verifier) CurrentCode(encryptedSecret []byte) (string, error) {
	secret, err := v.enc.Decrypt(encryptedSecret)
	if err != nil {
		return "", err
	}

	return v.otp.GenerateCode(string(secret), v.clock.Now())
}
