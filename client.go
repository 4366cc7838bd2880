package goAuthClient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/MrEthical07/goAuthClient/internal/flows"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

// Client is the composition root of the authenticated request pipeline.
// All methods are safe for concurrent use.
type Client struct {
	config Config
	store  TokenStore

	transport   *Transport
	httpClient  *http.Client
	coordinator *RefreshCoordinator
	deps        flows.Deps

	log     logrus.FieldLogger
	metrics *Metrics
	audit   *auditDispatcher
	tracer  trace.Tracer
	newID   func() string
}

// Execute sends req through the pipeline. A 401 that could not be recovered
// is returned as the response, not as an error.
func (c *Client) Execute(req *http.Request) (*http.Response, error) {
	if c == nil || c.httpClient == nil {
		return nil, ErrClientNotReady
	}
	return c.httpClient.Do(req)
}

// HTTPClient returns the *http.Client wired to the pipeline, for code that
// wants the standard client API.
func (c *Client) HTTPClient() *http.Client {
	if c == nil {
		return nil
	}
	return c.httpClient
}

// Transport returns the pipeline RoundTripper.
func (c *Client) Transport() http.RoundTripper {
	if c == nil {
		return nil
	}
	return c.transport
}

// Tokens returns the backing token store.
func (c *Client) Tokens() TokenStore {
	if c == nil {
		return nil
	}
	return c.store
}

// Refresh forces a refresh cycle, joining one already in flight.
func (c *Client) Refresh(ctx context.Context) RefreshOutcome {
	if c == nil || c.coordinator == nil {
		return RefreshOutcome{Err: ErrClientNotReady}
	}
	return c.coordinator.Refresh(ctx)
}

// NewRequest builds a request for path relative to the configured BaseURL.
// A non-nil body is JSON-encoded into a replayable body.
func (c *Client) NewRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	if c == nil {
		return nil, ErrClientNotReady
	}
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.config.endpoint(path), r)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// Close flushes pending audit events. The client must not be used after.
func (c *Client) Close() {
	if c == nil {
		return
	}
	if c.audit != nil {
		c.audit.Close()
	}
}

// AuditDropped reports audit events dropped under backpressure.
func (c *Client) AuditDropped() uint64 {
	if c == nil || c.audit == nil {
		return 0
	}
	return c.audit.Dropped()
}

// MetricsSnapshot returns the current pipeline metrics.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	if c == nil || c.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return c.metrics.Snapshot()
}

// Config returns a copy of the configuration the client was built with.
func (c *Client) Config() Config {
	return cloneConfig(c.config)
}
