package goAuthClient

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix namespaces every environment variable read by LoadConfigFromEnv.
const EnvPrefix = "GOAUTHCLIENT_"

// LoadConfigFromEnv overlays GOAUTHCLIENT_* environment variables on top of
// the defaults. Unset variables keep their default value.
//
// Examples: GOAUTHCLIENT_AUTH_BASE_URL, GOAUTHCLIENT_AUTH_REFRESH_TIMEOUT=10s,
// GOAUTHCLIENT_AUTH_EXCLUDED_PATH_PREFIXES=/api/auth/login,/api/auth/refresh.
func LoadConfigFromEnv() (Config, error) {
	cfg := defaultConfig()
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
