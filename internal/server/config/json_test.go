package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"endpoint_addr_grpc": "www.example:9000",
		"database_dsn":       "postgres://db",
		"secret_key":         "my_secret_key",
		"session_ttl":        "72h",
		"verification_ttl":   3600000000000,
		"bcrypt_cost":        12,
		"smtp_host":          "smtp.example:465",
		"smtp_skip_verify":   true,
		"google_client_id":   "cid",
		"s3_bucket":          "bucket",
		"request_timeout":    "5s",
		"log_format":         "text",
	})

	t.Run("loads from json", func(t *testing.T) {
		cfg := defaults()
		require.NoError(t, parseJson(cfg, []string{"-config", path}))

		assert.Equal(t, "www.example:9000", cfg.EndpointAddrGRPC)
		assert.Equal(t, "postgres://db", cfg.DatabaseDSN)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, 72*time.Hour, cfg.SessionTTL)
		assert.Equal(t, time.Hour, cfg.VerificationTTL)
		assert.Equal(t, 12, cfg.BcryptCost)
		assert.Equal(t, "smtp.example:465", cfg.SMTPHost)
		assert.True(t, cfg.SMTPSkipVerify)
		assert.Equal(t, "cid", cfg.GoogleClientID)
		assert.Equal(t, "bucket", cfg.S3Bucket)
		assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
		assert.Equal(t, "text", cfg.LogFormat)
	})

	t.Run("absent keys keep current values", func(t *testing.T) {
		cfg := defaults()
		require.NoError(t, parseJson(cfg, []string{"-c", path}))

		assert.Equal(t, ":8080", cfg.EndpointAddrHTTP)
		assert.Equal(t, "@every 1h", cfg.PurgeSchedule)
		assert.Equal(t, "info", cfg.LogLevel)
	})

	t.Run("no config flag leaves config alone", func(t *testing.T) {
		cfg := defaults()
		require.NoError(t, parseJson(cfg, []string{"-a", ":1"}))
		assert.Equal(t, defaults(), cfg)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		require.Error(t, parseJson(defaults(), []string{"-config", bad}))
	})
}
