package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

const envPrefix = "GOPHAUTH_"

// parseEnv overlays GOPHAUTH_* variables. A nil environ reads the process
// environment. Unset variables leave the current value alone.
func parseEnv(config *Config, environ map[string]string) error {
	opts := env.Options{Prefix: envPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(config, opts); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
