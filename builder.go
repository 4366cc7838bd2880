package goAuthClient

import (
	"errors"
	"net/http"
	"time"

	"github.com/MrEthical07/goAuthClient/internal/flows"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const tracerName = "github.com/MrEthical07/goAuthClient"

// Builder assembles a [Client]. Configure it during initialization, call
// Build once, then discard it.
type Builder struct {
	config Config

	store          TokenStore
	base           http.RoundTripper
	logger         logrus.FieldLogger
	auditSink      AuditSink
	tracerProvider trace.TracerProvider

	built bool
}

// New returns a Builder seeded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithBaseURL sets Auth.BaseURL.
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.Auth.BaseURL = baseURL
	return b
}

// WithTokenStore sets the credential store. Defaults to an in-memory
// [tokenstore.Store].
func (b *Builder) WithTokenStore(store TokenStore) *Builder {
	b.store = store
	return b
}

// WithBaseTransport sets the RoundTripper that performs the actual network
// I/O, for both the pipeline and the bare auth-endpoint client.
func (b *Builder) WithBaseTransport(rt http.RoundTripper) *Builder {
	b.base = rt
	return b
}

// WithLogger sets the logger. It receives request/response diagnostics at Debug level and
// persistence or refresh problems at Warn. Token values are never logged.
func (b *Builder) WithLogger(logger logrus.FieldLogger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink sets the audit sink and enables the dispatcher.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	if sink != nil {
		b.config.Audit.Enabled = true
	}
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the latency histograms.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// WithTracerProvider sets the provider for refresh spans. Defaults to a
// no-op provider.
func (b *Builder) WithTracerProvider(tp trace.TracerProvider) *Builder {
	b.tracerProvider = tp
	return b
}

// Build validates the configuration and wires the pipeline. The refresh
// coordinator and login calls use the bare base transport so an auth
// endpoint 401 can never re-enter the reauth handler.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := b.logger
	if log == nil {
		log = defaultLogger(cfg.Logging)
	}

	store := b.store
	if store == nil {
		store = NewMemoryTokenStore()
	}

	base := b.base
	if base == nil {
		base = http.DefaultTransport.(*http.Transport).Clone()
	}

	tp := b.tracerProvider
	if tp == nil {
		tp = noop.NewTracerProvider()
	}
	tracer := tp.Tracer(tracerName)

	metrics := NewMetrics(cfg.Metrics)
	audit := newAuditDispatcher(cfg.Audit, b.auditSink)

	bare := &http.Client{Transport: base}
	header := cfg.Transport.CorrelationHeader

	deps := flows.Deps{
		Refresh: flows.RefreshDeps{
			Client:            bare,
			Endpoint:          cfg.endpoint(cfg.Auth.RefreshPath),
			CorrelationHeader: header,
		},
		Login: flows.LoginDeps{
			Client:            bare,
			BaseURL:           cfg.Auth.BaseURL,
			LoginPath:         cfg.Auth.LoginPath,
			OAuthPathPrefix:   cfg.Auth.OAuthPathPrefix,
			CorrelationHeader: header,
		},
	}

	coordinator := &RefreshCoordinator{
		store:   store,
		deps:    deps.Refresh,
		timeout: cfg.Auth.RefreshTimeout,
		log:     log,
		metrics: metrics,
		audit:   audit,
		tracer:  tracer,
		newID:   newCorrelationID,
	}

	reauth := &ReauthHandler{
		store:            store,
		coordinator:      coordinator,
		maxPriorAttempts: cfg.Auth.MaxPriorAttempts,
		excluded:         cloneStrings(cfg.Auth.ExcludedPathPrefixes),
		log:              log,
		metrics:          metrics,
		audit:            audit,
	}

	transport := &Transport{
		base:     base,
		store:    store,
		tagger:   newRequestTagger(header, log),
		injector: NewAuthHeaderInjector(cfg),
		reauth:   reauth,
		refresh:  coordinator,
		leeway:   cfg.Auth.ProactiveRefreshLeeway,
		log:      log,
		metrics:  metrics,
		now:      time.Now,
	}

	httpClient := &http.Client{
		Transport: transport,
		Timeout:   cfg.Transport.RequestTimeout,
	}

	// Logout revokes through the authenticated pipeline. Its correlation
	// header is overwritten by the tagger.
	deps.Logout = flows.LogoutDeps{
		Client:   httpClient,
		Endpoint: cfg.endpoint(cfg.Auth.LogoutPath),
	}

	b.built = true

	return &Client{
		config:      cfg,
		store:       store,
		transport:   transport,
		httpClient:  httpClient,
		coordinator: coordinator,
		deps:        deps,
		log:         log,
		metrics:     metrics,
		audit:       audit,
		tracer:      tracer,
		newID:       newCorrelationID,
	}, nil
}

func defaultLogger(cfg LoggingConfig) logrus.FieldLogger {
	l := logrus.New()
	l.SetLevel(logrus.InfoLevel)
	if level, err := logrus.ParseLevel(cfg.Level); err == nil {
		l.SetLevel(level)
	}
	return l
}
