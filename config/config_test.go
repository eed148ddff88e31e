package config

import (
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeYaml(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// TestDefault_ReferenceValues matches the reference behavior: 86400s, 600s, 900s.
func TestDefault_ReferenceValues(t *testing.T) {
	cfg := Default()

	require.Equal(t, 86400*time.Second, cfg.Signing.Validity)
	require.Equal(t, 600*time.Second, cfg.Sweep.Buffer)
	require.Equal(t, 900*time.Second, cfg.Sweep.Interval)
	require.Equal(t, DedupEntry, cfg.Signing.Dedup)
	require.False(t, cfg.Telemetry.Enabled())
}

// TestLoadConfig_ParsesDurations reads durations in Go notation.
func TestLoadConfig_ParsesDurations(t *testing.T) {
	path := writeYaml(t, `
signing:
  validity: 2h
  dedup: object
  rate: 50
sweep:
  interval: 1m
  buffer: 30s
  concurrency: 2
telemetry:
  interval: 5s
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 2*time.Hour, cfg.Signing.Validity)
	require.True(t, cfg.Signing.IsObjectDedup())
	require.Equal(t, 50, cfg.Signing.Rate)
	require.Equal(t, time.Minute, cfg.Sweep.Interval)
	require.Equal(t, 30*time.Second, cfg.Sweep.Buffer)
	require.Equal(t, 2, cfg.Sweep.Concurrency)
	require.Equal(t, DefaultAttachConcurrency, cfg.Attach.Concurrency)
	require.Equal(t, 5*time.Second, cfg.Telemetry.Interval)
}

// TestLoadConfig_SweepDisabled leaves an absent sweep section nil.
func TestLoadConfig_SweepDisabled(t *testing.T) {
	path := writeYaml(t, "signing:\n  validity: 1h\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.False(t, cfg.Sweep.Enabled())
}

// TestLoadConfig_MissingFile returns an error.
func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

// TestAdjustConfig_TruncatesValidityToSeconds keeps durations in whole seconds.
func TestAdjustConfig_TruncatesValidityToSeconds(t *testing.T) {
	cfg := &Cache{Signing: SigningCfg{Validity: 1500 * time.Millisecond, Dedup: "bogus"}}
	cfg.AdjustConfig()

	require.Equal(t, time.Second, cfg.Signing.Validity)
	require.Equal(t, DedupEntry, cfg.Signing.Dedup)
}

// TestLoadApp_EnvOverridesSecrets prefers environment secrets over the file.
func TestLoadApp_EnvOverridesSecrets(t *testing.T) {
	path := writeYaml(t, `
gateway:
  kind: local
  secret: from-file
server:
  user_id: u-1
`)
	t.Setenv(EnvGatewaySecret, "from-env")
	t.Setenv(EnvDBDSN, ":memory:")

	cfg, err := LoadApp(path)
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.Gateway.Secret)
	require.Equal(t, ":memory:", cfg.DB.DSN)
	require.Equal(t, "journal-images", cfg.Gateway.Bucket)
	require.Equal(t, ":8080", cfg.Server.Addr)
	require.NotNil(t, cfg.Cache)
	require.Equal(t, DefaultValidity, cfg.Cache.Signing.Validity)
	require.NoError(t, cfg.Validate())
}

// TestApp_Validate rejects incomplete gateway settings.
func TestApp_Validate(t *testing.T) {
	cfg := &App{Server: ServerCfg{UserID: "u-1"}}
	cfg.AdjustConfig()
	require.Error(t, cfg.Validate(), "storage gateway needs an endpoint")

	cfg.Gateway.Endpoint = "http://storage.local/storage/v1"
	require.NoError(t, cfg.Validate())

	cfg.Gateway.Kind = "ftp"
	require.Error(t, cfg.Validate())
}
