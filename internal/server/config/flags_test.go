package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		mutate  func(c *Config)
		wantErr bool
	}{
		{
			name: "addresses and store",
			args: []string{"-a", "127.0.0.1:9090", "-g", ":6000", "-d", "memory", "-s", "secret"},
			mutate: func(c *Config) {
				c.EndpointAddrHTTP = "127.0.0.1:9090"
				c.EndpointAddrGRPC = ":6000"
				c.DatabaseDSN = "memory"
				c.SecretKey = "secret"
			},
		},
		{
			name: "durations and integrations",
			args: []string{
				"-session-ttl=1h", "-verification-ttl", "30m", "-bcrypt-cost", "12",
				"-smtp-host", "mail:465", "-smtp-skip-verify=true",
				"-google-client-id", "cid", "-s3-bucket", "avatars",
			},
			mutate: func(c *Config) {
				c.SessionTTL = time.Hour
				c.VerificationTTL = 30 * time.Minute
				c.BcryptCost = 12
				c.SMTPHost = "mail:465"
				c.SMTPSkipVerify = true
				c.GoogleClientID = "cid"
				c.S3Bucket = "avatars"
			},
		},
		{
			name:   "config and foreign flags ignored",
			args:   []string{"-c", "cfg.json", "-test.v", "-unknown", "x"},
			mutate: func(c *Config) {},
		},
		{
			name:    "invalid duration",
			args:    []string{"-request-timeout", "soon"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := defaults()
			err := parseFlags(got, tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			want := defaults()
			tt.mutate(want)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
