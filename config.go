package goAuthClient

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Config is the complete client configuration. It is copied at Build and
// treated as immutable afterwards.
type Config struct {
	Auth      AuthConfig      `envPrefix:"AUTH_"`
	Transport TransportConfig `envPrefix:"TRANSPORT_"`
	Metrics   MetricsConfig   `envPrefix:"METRICS_"`
	Audit     AuditConfig     `envPrefix:"AUDIT_"`
	Logging   LoggingConfig   `envPrefix:"LOG_"`
}

/*
====================================
AUTH CONFIG
====================================
*/

// AuthConfig controls header injection and the refresh/retry state machine.
type AuthConfig struct {
	// BaseURL is the API origin, e.g. "https://api.example.com".
	BaseURL         string `env:"BASE_URL"`
	RefreshPath     string `env:"REFRESH_PATH"`
	LoginPath       string `env:"LOGIN_PATH"`
	LogoutPath      string `env:"LOGOUT_PATH"`
	OAuthPathPrefix string `env:"OAUTH_PATH_PREFIX"`

	// ExcludedPathPrefixes never receive Authorization and never refresh.
	ExcludedPathPrefixes []string `env:"EXCLUDED_PATH_PREFIXES" envSeparator:","`
	// StripAuthPathPrefixes have any caller-supplied Authorization removed.
	StripAuthPathPrefixes []string `env:"STRIP_PATH_PREFIXES" envSeparator:","`

	// MaxPriorAttempts bounds the response chain of one request. The first
	// 401 counts as 1, so the default of 2 allows exactly one retry.
	MaxPriorAttempts int           `env:"MAX_PRIOR_ATTEMPTS"`
	RefreshTimeout   time.Duration `env:"REFRESH_TIMEOUT"`

	// ProactiveRefreshLeeway refreshes before sending when the access token
	// is a JWT expiring within the leeway. Zero disables it.
	ProactiveRefreshLeeway time.Duration `env:"PROACTIVE_REFRESH_LEEWAY"`

	// RestrictToBaseHost limits injection to requests for the BaseURL host.
	RestrictToBaseHost bool `env:"RESTRICT_TO_BASE_HOST"`
}

// TransportConfig controls the outer http.Client.
type TransportConfig struct {
	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT"`
	CorrelationHeader string        `env:"CORRELATION_HEADER"`
}

// MetricsConfig toggles the in-process counters.
type MetricsConfig struct {
	Enabled                 bool `env:"ENABLED"`
	EnableLatencyHistograms bool `env:"LATENCY_HISTOGRAMS"`
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool `env:"ENABLED"`
	BufferSize int  `env:"BUFFER_SIZE"`
	DropIfFull bool `env:"DROP_IF_FULL"`
}

// LoggingConfig sets the level of the default logger. Ignored when a logger
// is supplied through [Builder.WithLogger].
type LoggingConfig struct {
	Level string `env:"LEVEL"`
}

// Default endpoint layout of the storefront API.
const (
	DefaultRefreshPath     = "/api/auth/refresh"
	DefaultLoginPath       = "/api/auth/login"
	DefaultLogoutPath      = "/api/auth/logout"
	DefaultOAuthPathPrefix = "/api/auth/oauth/"
)

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Auth: AuthConfig{
			RefreshPath:     DefaultRefreshPath,
			LoginPath:       DefaultLoginPath,
			LogoutPath:      DefaultLogoutPath,
			OAuthPathPrefix: DefaultOAuthPathPrefix,
			ExcludedPathPrefixes: []string{
				DefaultLoginPath,
				DefaultRefreshPath,
				DefaultOAuthPathPrefix,
			},
			StripAuthPathPrefixes: []string{"/api/public/"},
			MaxPriorAttempts:      2,
			RefreshTimeout:        15 * time.Second,
			RestrictToBaseHost:    true,
		},
		Transport: TransportConfig{
			RequestTimeout:    30 * time.Second,
			CorrelationHeader: "X-Request-ID",
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Auth.ExcludedPathPrefixes = cloneStrings(cfg.Auth.ExcludedPathPrefixes)
	out.Auth.StripAuthPathPrefixes = cloneStrings(cfg.Auth.StripAuthPathPrefixes)
	return out
}

func cloneStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	base, err := url.Parse(c.Auth.BaseURL)
	if err != nil || c.Auth.BaseURL == "" {
		return errors.New("Auth BaseURL must be a valid absolute URL")
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return errors.New("Auth BaseURL scheme must be http or https")
	}
	if base.Host == "" {
		return errors.New("Auth BaseURL must include a host")
	}

	for name, path := range map[string]string{
		"RefreshPath":     c.Auth.RefreshPath,
		"LoginPath":       c.Auth.LoginPath,
		"LogoutPath":      c.Auth.LogoutPath,
		"OAuthPathPrefix": c.Auth.OAuthPathPrefix,
	} {
		if !strings.HasPrefix(path, "/") {
			return fmt.Errorf("Auth %s must start with /", name)
		}
	}

	for _, prefix := range c.Auth.ExcludedPathPrefixes {
		if !strings.HasPrefix(prefix, "/") {
			return fmt.Errorf("Auth ExcludedPathPrefixes entry %q must start with /", prefix)
		}
	}
	for _, prefix := range c.Auth.StripAuthPathPrefixes {
		if !strings.HasPrefix(prefix, "/") {
			return fmt.Errorf("Auth StripAuthPathPrefixes entry %q must start with /", prefix)
		}
	}
	if !hasPrefixCovering(c.Auth.ExcludedPathPrefixes, c.Auth.RefreshPath) {
		return errors.New("Auth RefreshPath must be covered by ExcludedPathPrefixes")
	}

	if c.Auth.MaxPriorAttempts < 1 {
		return errors.New("Auth MaxPriorAttempts must be >= 1")
	}
	if c.Auth.RefreshTimeout <= 0 {
		return errors.New("Auth RefreshTimeout must be > 0")
	}
	if c.Auth.ProactiveRefreshLeeway < 0 {
		return errors.New("Auth ProactiveRefreshLeeway must be >= 0")
	}

	if c.Transport.RequestTimeout < 0 {
		return errors.New("Transport RequestTimeout must be >= 0")
	}
	if c.Transport.CorrelationHeader != "" &&
		http.CanonicalHeaderKey(c.Transport.CorrelationHeader) == "Authorization" {
		return errors.New("Transport CorrelationHeader must not be Authorization")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	if c.Logging.Level != "" {
		if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
			return fmt.Errorf("Logging Level: %w", err)
		}
	}

	return nil
}

func hasPrefixCovering(prefixes []string, path string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func (c *Config) baseHost() string {
	u, err := url.Parse(c.Auth.BaseURL)
	if err != nil {
		return ""
	}
	return u.Host
}

func (c *Config) endpoint(path string) string {
	return strings.TrimSuffix(c.Auth.BaseURL, "/") + path
}
