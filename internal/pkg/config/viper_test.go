package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
app:
  name: ktvs
login:
  pending_timeout: 300
  lockout_seconds: 30
coupon:
  signing_key: ""
messaging:
  nats_urls: "nats://a:4222,nats://b:4222"
`

func TestViper_FromBytes(t *testing.T) {
	cfg, err := NewViperFromBytes("yaml", []byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "ktvs", cfg.GetString("app.name"))
	assert.Equal(t, 5*time.Minute, cfg.GetSecond("login.pending_timeout"))
	assert.Equal(t, []string{"nats://a:4222", "nats://b:4222"}, cfg.GetArray("messaging.nats_urls"))
}

func TestViper_EnvOverride(t *testing.T) {
	t.Setenv("KTVS_COUPON_SIGNING_KEY", "from-env")

	cfg, err := NewViperFromBytes("yaml", []byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.GetString("coupon.signing_key"))
	assert.NoError(t, Require(cfg, "coupon.signing_key", "app.name"))
}

func TestRequire_Missing(t *testing.T) {
	cfg, err := NewViperFromBytes("yaml", []byte(sampleYAML))
	require.NoError(t, err)

	err = Require(cfg, "app.name", "crypto.envelope_key", "coupon.signing_key")
	require.ErrorIs(t, err, ErrMissingKeys)
	assert.Contains(t, err.Error(), "crypto.envelope_key")
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(file, []byte("KTVS_DOTENV_MARKER=loaded\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("KTVS_DOTENV_MARKER") })

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), file))
	assert.Equal(t, "loaded", os.Getenv("KTVS_DOTENV_MARKER"))
}

func TestViper_BinaryAndFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("crypto:\n  envelope_key: \"a2V5\"\n  broken: \"%%%\"\n"), 0o600))

	cfg, err := NewViper(file)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cfg.Close() })

	assert.Equal(t, []byte("key"), cfg.GetBinary("crypto.envelope_key"))
	assert.Nil(t, cfg.GetBinary("crypto.broken"))
	assert.Nil(t, cfg.GetBinary("crypto.absent"))
}

func TestNewViper_MissingFile(t *testing.T) {
	_, err := NewViper(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
