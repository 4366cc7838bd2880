package goAuthClient

import (
	"context"
	"fmt"
	"time"

	"github.com/MrEthical07/goAuthClient/internal/flows"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

const refreshFlightKey = "refresh"

// RefreshCoordinator guarantees at most one refresh network call at a time.
// Callers arriving while a refresh is in flight join it and receive the
// same RefreshOutcome.
type RefreshCoordinator struct {
	store   TokenStore
	deps    flows.RefreshDeps
	timeout time.Duration
	group   singleflight.Group

	log     logrus.FieldLogger
	metrics *Metrics
	audit   *auditDispatcher
	tracer  trace.Tracer
	newID   func() string
}

// Refresh obtains a new access token, sharing the call with concurrent
// callers. If ctx ends before the outcome is ready the caller gets
// ErrRefreshCancelled; the refresh itself runs on to completion and its
// result is still applied to the store.
func (c *RefreshCoordinator) Refresh(ctx context.Context) RefreshOutcome {
	if ctx == nil {
		ctx = context.Background()
	}
	trigger := ""
	if rc, ok := RequestContextFromContext(ctx); ok {
		trigger = rc.CorrelationID
	}

	ch := c.group.DoChan(refreshFlightKey, func() (any, error) {
		return c.run(context.WithoutCancel(ctx), trigger), nil
	})

	select {
	case res := <-ch:
		if res.Shared {
			c.metrics.Inc(MetricRefreshJoined)
		}
		return res.Val.(RefreshOutcome)
	case <-ctx.Done():
		c.metrics.Inc(MetricRefreshCancelled)
		return RefreshOutcome{Err: fmt.Errorf("%w: %w", ErrRefreshCancelled, ctx.Err())}
	}
}

func (c *RefreshCoordinator) run(parent context.Context, trigger string) RefreshOutcome {
	refreshID := c.newID()
	ctx, cancel := context.WithTimeout(parent, c.timeout)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, "goauthclient.refresh",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("goauthclient.refresh_id", refreshID),
			attribute.String("goauthclient.trigger_id", trigger),
		),
	)
	defer span.End()

	log := c.log.WithFields(logrus.Fields{"refresh_id": refreshID, "id": trigger})
	log.Debug("goauthclient: refresh started")

	creds, gen, generational := c.snapshot()
	if creds.RefreshToken == "" {
		outcome := RefreshOutcome{Err: ErrNoRefreshToken}
		c.fail(ctx, log, span, refreshID, trigger, 0, outcome.Err, gen, generational)
		return outcome
	}

	c.metrics.Inc(MetricRefreshStarted)
	start := time.Now()
	res := flows.RunRefresh(ctx, creds.RefreshToken, refreshID, c.deps)
	c.metrics.Observe(MetricRefreshLatency, time.Since(start))
	span.SetAttributes(attribute.Int("http.response.status_code", res.StatusCode))

	if res.Failure != flows.RefreshFailureNone {
		err := mapRefreshFailure(res)
		if !c.fail(ctx, log, span, refreshID, trigger, res.StatusCode, err, gen, generational) {
			err = fmt.Errorf("%w: %w", ErrSessionChanged, err)
		}
		return RefreshOutcome{Err: err}
	}

	if !c.apply(gen, generational, res.AccessToken, res.RefreshToken) {
		c.metrics.Inc(MetricRefreshDiscarded)
		span.SetStatus(codes.Error, ErrSessionChanged.Error())
		log.Info("goauthclient: refresh result discarded, session changed")
		c.audit.Emit(ctx, AuditEvent{
			EventType:     AuditRefreshFailure,
			CorrelationID: trigger,
			RefreshID:     refreshID,
			StatusCode:    res.StatusCode,
			Error:         ErrSessionChanged.Error(),
		})
		return RefreshOutcome{Err: ErrSessionChanged}
	}

	c.metrics.Inc(MetricRefreshSuccess)
	span.SetStatus(codes.Ok, "")
	log.WithField("rotated", res.RefreshToken != "").Debug("goauthclient: refresh succeeded")
	c.audit.Emit(ctx, AuditEvent{
		EventType:     AuditRefreshSuccess,
		CorrelationID: trigger,
		RefreshID:     refreshID,
		StatusCode:    res.StatusCode,
		Success:       true,
		Metadata:      map[string]string{"rotated": fmt.Sprint(res.RefreshToken != "")},
	})
	return RefreshOutcome{AccessToken: res.AccessToken}
}

// fail records a refresh failure and clears the store. It reports false when
// the store had moved to a newer generation and was left alone.
func (c *RefreshCoordinator) fail(
	ctx context.Context,
	log logrus.FieldLogger,
	span trace.Span,
	refreshID, trigger string,
	status int,
	err error,
	gen uint64,
	generational bool,
) bool {
	c.metrics.Inc(MetricRefreshFailure)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	log.WithError(err).Warn("goauthclient: refresh failed")
	c.audit.Emit(ctx, AuditEvent{
		EventType:     AuditRefreshFailure,
		CorrelationID: trigger,
		RefreshID:     refreshID,
		StatusCode:    status,
		Error:         err.Error(),
	})

	cleared := c.clear(gen, generational)
	if !cleared {
		c.metrics.Inc(MetricRefreshDiscarded)
		log.Info("goauthclient: credentials changed during refresh, not clearing")
		return false
	}
	c.metrics.Inc(MetricTokensCleared)
	c.audit.Emit(ctx, AuditEvent{
		EventType:     AuditTokensCleared,
		CorrelationID: trigger,
		RefreshID:     refreshID,
		Success:       true,
		Metadata:      map[string]string{"reason": "refresh_failure"},
	})
	return true
}

func (c *RefreshCoordinator) snapshot() (Credentials, uint64, bool) {
	if g, ok := c.store.(generationalStore); ok {
		creds, gen := g.Snapshot()
		return creds, gen, true
	}
	return c.store.Get(), 0, false
}

func (c *RefreshCoordinator) apply(gen uint64, generational bool, access, refresh string) bool {
	if generational {
		return c.store.(generationalStore).ApplyRefresh(gen, access, refresh)
	}
	if refresh != "" {
		c.store.SetRefresh(refresh)
	}
	c.store.SetAccess(access)
	return true
}

func (c *RefreshCoordinator) clear(gen uint64, generational bool) bool {
	if generational {
		return c.store.(generationalStore).ClearIfGeneration(gen)
	}
	c.store.Clear()
	return true
}

func mapRefreshFailure(res flows.RefreshResult) error {
	switch res.Failure {
	case flows.RefreshFailureNoToken:
		return ErrNoRefreshToken
	case flows.RefreshFailureRejected:
		return fmt.Errorf("%w: status %d", ErrRefreshRejected, res.StatusCode)
	case flows.RefreshFailureMalformed:
		return fmt.Errorf("%w: %v", ErrRefreshMalformedResponse, res.Err)
	default:
		return fmt.Errorf("%w: %v", ErrRefreshNetwork, res.Err)
	}
}
