package config

import (
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
)

// parseFlags overlays command-line flags. Only flags defined here are
// considered, so -c/-config and foreign flags pass through untouched.
//
//	-a        HTTP bind address
//	-g        gRPC bind address
//	-d        database DSN, or "memory"
//	-s        secret key for signed OAuth state
//	-session-ttl, -verification-ttl, -request-timeout, -shutdown-timeout  durations
//	-bcrypt-cost, -frontend-url
//	-smtp-host, -smtp-user, -smtp-password, -smtp-skip-verify, -mail-from
//	-google-client-id, -google-client-secret, -google-redirect-url
//	-s3-user, -s3-password, -s3-bucket, -s3-region, -s3-endpoint
//	-purge-schedule, -log-level, -log-format
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	fs.DurationVar(&config.SessionTTL, "session-ttl", config.SessionTTL, "session lifetime")
	fs.DurationVar(&config.VerificationTTL, "verification-ttl", config.VerificationTTL, "verification token lifetime")
	fs.IntVar(&config.BcryptCost, "bcrypt-cost", config.BcryptCost, "bcrypt cost")
	fs.StringVar(&config.FrontendURL, "frontend-url", config.FrontendURL, "frontend base URL for email links")

	fs.StringVar(&config.SMTPHost, "smtp-host", config.SMTPHost, "SMTP host:port")
	fs.StringVar(&config.SMTPUser, "smtp-user", config.SMTPUser, "SMTP user")
	fs.StringVar(&config.SMTPPassword, "smtp-password", config.SMTPPassword, "SMTP password")
	fs.BoolVar(&config.SMTPSkipVerify, "smtp-skip-verify", config.SMTPSkipVerify, "skip SMTP TLS verification")
	fs.StringVar(&config.MailFrom, "mail-from", config.MailFrom, "sender address")

	fs.StringVar(&config.GoogleClientID, "google-client-id", config.GoogleClientID, "Google OAuth client id")
	fs.StringVar(&config.GoogleClientSecret, "google-client-secret", config.GoogleClientSecret, "Google OAuth client secret")
	fs.StringVar(&config.GoogleRedirectURL, "google-redirect-url", config.GoogleRedirectURL, "Google OAuth redirect URL")

	fs.StringVar(&config.S3RootUser, "s3-user", config.S3RootUser, "S3 access key")
	fs.StringVar(&config.S3RootPassword, "s3-password", config.S3RootPassword, "S3 secret key")
	fs.StringVar(&config.S3Bucket, "s3-bucket", config.S3Bucket, "S3 bucket for avatars")
	fs.StringVar(&config.S3Region, "s3-region", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "s3-endpoint", config.S3BaseEndpoint, "S3 base endpoint")

	fs.StringVar(&config.PurgeSchedule, "purge-schedule", config.PurgeSchedule, "cron spec for expired session purge")
	fs.DurationVar(&config.RequestTimeout, "request-timeout", config.RequestTimeout, "per-request timeout")
	fs.DurationVar(&config.ShutdownTimeout, "shutdown-timeout", config.ShutdownTimeout, "graceful shutdown timeout")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "debug, info, warn or error")
	fs.StringVar(&config.LogFormat, "log-format", config.LogFormat, "json or text")

	if err := fs.Parse(flagx.FilterArgs(args, flagx.FlagNames(fs))); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	return nil
}
