package instrument

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(buf *bytes.Buffer, fields ...string) *slog.Logger {
	return slog.New(&contextHandler{
		Handler:     &maskHandler{Handler: slog.NewJSONHandler(buf, nil), masker: NewMasker(fields...)},
		serviceName: "ktvs",
	})
}

func TestMaskHandler(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := newTestLogger(buf)

	ctx := SetCorrelationID(context.Background(), "cid-1")
	ctx = SetSubjectID(ctx, "u1")
	logger.InfoContext(ctx, "verify",
		"secret", "JBSWY3DPEHPK3PXP",
		"subject_id", "u1",
		"payload", map[string]any{"code": "123456", "attempt_number": 2},
	)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))

	assert.Equal(t, "***", line["secret"])
	assert.Equal(t, "u1", line["subject_id"])
	assert.Equal(t, "cid-1", line["_cID"])
	assert.Equal(t, "u1", line["_subject"])
	assert.Equal(t, "ktvs", line["service"])

	payload, ok := line["payload"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "***", payload["code"])
	assert.InDelta(t, 2, payload["attempt_number"], 0)
}

func TestMaskHandler_WithAttrsAndConfiguredFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := newTestLogger(buf, "Coupon_Code").With("signature", "abc")

	logger.Info("redeem", "coupon_code", "X1", "body", `{"token":"t","plan":"pro"}`)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))

	assert.Equal(t, "***", line["signature"])
	assert.Equal(t, "***", line["coupon_code"])
	assert.JSONEq(t, `{"token":"***","plan":"pro"}`, line["body"].(string))
}

func TestMasker_JSON(t *testing.T) {
	m := NewMasker()

	out, ok := m.JSON([]byte(`[{"seed":"s"},{"kind":"url"}]`))
	require.True(t, ok)
	assert.JSONEq(t, `[{"seed":"***"},{"kind":"url"}]`, out)

	_, ok = m.JSON([]byte("plain text"))
	assert.False(t, ok)

	assert.True(t, m.Masks("Authorization"))
	assert.False(t, m.Masks("subject_id"))
}

func TestCorrelationID(t *testing.T) {
	assert.Empty(t, GetCorrelationID(context.Background()))
	assert.Equal(t, "abc", GetCorrelationID(SetCorrelationID(context.Background(), "abc")))
	assert.Empty(t, GetSubjectID(context.Background()))
}
