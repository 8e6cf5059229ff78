package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaults() *Config {
	c := &Config{}
	c.LoadDefaults()
	return c
}

func TestLoadDefaults(t *testing.T) {
	c := defaults()

	assert.Equal(t, ":8080", c.EndpointAddrHTTP)
	assert.Equal(t, ":50051", c.EndpointAddrGRPC)
	assert.Equal(t, 7*24*time.Hour, c.SessionTTL)
	assert.Equal(t, 24*time.Hour, c.VerificationTTL)
	assert.Equal(t, 10, c.BcryptCost)
	assert.Equal(t, "@every 1h", c.PurgeSchedule)
	assert.Equal(t, 10*time.Second, c.RequestTimeout)
	assert.Empty(t, c.SMTPHost)
	assert.Empty(t, c.GoogleClientID)
	assert.Empty(t, c.S3Bucket)
	require.NoError(t, c.Validate())
}

func TestLoad_NoSourcesKeepsDefaults(t *testing.T) {
	cfg, err := Load(nil, map[string]string{})
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(defaults(), cfg))
}

func TestLoad_Precedence(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"endpoint_addr_http": ":7000",
		"database_dsn":       "from-json",
		"frontend_url":       "https://json.example",
	})

	cfg, err := Load(
		[]string{"-c", path, "-d", "memory"},
		map[string]string{
			"GOPHAUTH_DATABASE_DSN": "from-env",
			"GOPHAUTH_FRONTEND_URL": "https://env.example",
			"GOPHAUTH_SESSION_TTL":  "48h",
		},
	)
	require.NoError(t, err)

	want := defaults()
	want.EndpointAddrHTTP = ":7000"
	want.DatabaseDSN = "memory"
	want.FrontendURL = "https://env.example"
	want.SessionTTL = 48 * time.Hour

	assert.Empty(t, cmp.Diff(want, cfg))
}

func TestLoad_Errors(t *testing.T) {
	t.Run("unknown json file", func(t *testing.T) {
		_, err := Load([]string{"-config", "/nonexistent/cfg.json"}, map[string]string{})
		require.Error(t, err)
	})

	t.Run("bad env duration", func(t *testing.T) {
		_, err := Load(nil, map[string]string{"GOPHAUTH_SESSION_TTL": "forever"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse env")
	})

	t.Run("bad flag value", func(t *testing.T) {
		_, err := Load([]string{"-bcrypt-cost", "ten"}, map[string]string{})
		require.Error(t, err)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := Load([]string{"-s", ""}, map[string]string{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "secret key is required")
	})
}

func TestValidate(t *testing.T) {
	c := defaults()
	c.SessionTTL = 0
	c.GoogleClientID = "id"

	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session ttl must be positive")
	assert.Contains(t, err.Error(), "google oauth needs client secret and redirect url")
}
