package otp

import (
	"crypto/rand"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp"
	"github.com/shandysiswandi/ktvs/internal/pkg/clock"
	"github.com/shandysiswandi/ktvs/internal/pkg/envelope"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP"

func TestTOTP_Generate(t *testing.T) {
	o := NewTOTP("KTVS", 0, 0, 0)

	secret, uri, err := o.Generate("alice")
	require.NoError(t, err)
	assert.Len(t, secret, 32)
	assert.True(t, strings.HasPrefix(uri, "otpauth://totp/KTVS:alice?"))
	assert.Contains(t, uri, "issuer=KTVS")
	assert.Contains(t, uri, "period=30")
	assert.Contains(t, uri, "digits=6")
	assert.Equal(t, 6, o.Digits())
	assert.Equal(t, uint(30), o.Period())
}

func TestTOTP_URI(t *testing.T) {
	o := NewTOTP("KTVS", 30, 1, otp.DigitsSix)

	uri, err := o.URI("alice", testSecret)
	require.NoError(t, err)
	assert.Contains(t, uri, "secret="+testSecret)

	_, err = o.URI("alice", "not base32 !")
	assert.Error(t, err)
}

func TestTOTP_ValidateWindow(t *testing.T) {
	o := NewTOTP("KTVS", 30, 1, otp.DigitsSix)
	now := time.Date(2026, 1, 1, 12, 0, 15, 0, time.UTC)

	tests := []struct {
		name   string
		offset time.Duration
		want   bool
	}{
		{name: "current step", offset: 0, want: true},
		{name: "one step earlier", offset: -30 * time.Second, want: true},
		{name: "one step later", offset: 30 * time.Second, want: true},
		{name: "two steps earlier", offset: -60 * time.Second, want: false},
		{name: "two steps later", offset: 60 * time.Second, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := o.GenerateCode(testSecret, now.Add(tt.offset))
			require.NoError(t, err)
			assert.Equal(t, tt.want, o.Validate(code, testSecret, now))
		})
	}
}

func TestVerifier(t *testing.T) {
	raw := make([]byte, envelope.KeySize)
	_, err := rand.Read(raw)
	require.NoError(t, err)
	key, err := envelope.NewKey(raw)
	require.NoError(t, err)
	enc, err := envelope.NewAESGCM(key)
	require.NoError(t, err)

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clk := clock.NewFake(now)
	o := NewTOTP("KTVS", 30, 1, otp.DigitsSix)
	v := NewVerifier(o, enc, clk)

	blob, err := enc.Encrypt([]byte(testSecret))
	require.NoError(t, err)

	t.Run("current code verifies", func(t *testing.T) {
		code, err := v.CurrentCode(blob)
		require.NoError(t, err)
		assert.Len(t, code, 6)
		assert.True(t, v.Verify(blob, code))
	})

	t.Run("wrong code fails", func(t *testing.T) {
		code, err := v.CurrentCode(blob)
		require.NoError(t, err)
		wrong := "000000"
		if code == wrong {
			wrong = "111111"
		}
		assert.False(t, v.Verify(blob, wrong))
	})

	t.Run("tampered secret fails closed", func(t *testing.T) {
		code, err := v.CurrentCode(blob)
		require.NoError(t, err)

		tampered := append([]byte(nil), blob...)
		tampered[len(tampered)-1] ^= 0xff
		assert.False(t, v.Verify(tampered, code))

		_, err = v.CurrentCode(tampered)
		assert.ErrorIs(t, err, envelope.ErrDecryptionFailure)
	})

	t.Run("garbage secret fails closed", func(t *testing.T) {
		garbage, err := enc.Encrypt([]byte("!!not-base32!!"))
		require.NoError(t, err)
		assert.False(t, v.Verify(garbage, "123456"))
	})

	t.Run("drift of two steps fails", func(t *testing.T) {
		code, err := v.CurrentCode(blob)
		require.NoError(t, err)
		clk.Advance(61 * time.Second)
		defer clk.Set(now)
		assert.False(t, v.Verify(blob, code))
	})
}
