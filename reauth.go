package goAuthClient

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/MrEthical07/goAuthClient/internal/flows"
	"github.com/sirupsen/logrus"
)

// ReauthHandler decides whether a 401 may be answered with a refresh and a
// single retry.
type ReauthHandler struct {
	store            TokenStore
	coordinator      *RefreshCoordinator
	maxPriorAttempts int
	excluded         []string

	log     logrus.FieldLogger
	metrics *Metrics
	audit   *auditDispatcher
}

// OnUnauthorized evaluates the guards in order and, if all pass, returns
// original rebuilt with a fresh bearer token. priorResponses counts the
// responses in this request's chain including resp. A non-nil error means
// the caller must hand back resp unchanged.
func (h *ReauthHandler) OnUnauthorized(
	ctx context.Context,
	original *http.Request,
	resp *http.Response,
	priorResponses int,
) (*http.Request, error) {
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}

	decision := flows.EvaluateReauth(flows.ReauthInput{
		Request:          original,
		StatusCode:       status,
		PriorResponses:   priorResponses,
		MaxPriorAttempts: h.maxPriorAttempts,
		ExcludedPrefixes: h.excluded,
	})
	if decision != flows.ReauthRefresh {
		return nil, h.decline(ctx, original, status, reauthDeclineError(decision))
	}

	// Another caller may already have refreshed since this request was sent.
	sent := bearerToken(original)
	if current := h.store.Get().AccessToken; current != "" && current != sent {
		return h.rebuild(ctx, original, status, current)
	}

	outcome := h.coordinator.Refresh(ctx)
	if !outcome.Success() {
		return nil, h.decline(ctx, original, status, outcome.Err)
	}
	return h.rebuild(ctx, original, status, outcome.AccessToken)
}

func (h *ReauthHandler) rebuild(ctx context.Context, original *http.Request, status int, token string) (*http.Request, error) {
	next, err := flows.RebuildWithToken(original, token)
	if err != nil {
		return nil, h.decline(ctx, original, status, fmt.Errorf("%w: %v", ErrBodyNotReplayable, err))
	}
	return next, nil
}

func (h *ReauthHandler) decline(ctx context.Context, req *http.Request, status int, err error) error {
	h.metrics.Inc(MetricReauthDeclined)

	id := ""
	if rc, ok := RequestContextFromContext(req.Context()); ok {
		id = rc.CorrelationID
	}
	path := ""
	if req.URL != nil {
		path = req.URL.Path
	}
	h.log.WithFields(logrus.Fields{
		"id":     id,
		"status": status,
		"reason": err.Error(),
	}).Debug("goauthclient: reauth declined")

	// A plain non-401 is not a decline worth auditing.
	if status == http.StatusUnauthorized {
		h.audit.Emit(ctx, AuditEvent{
			EventType:     AuditReauthDeclined,
			CorrelationID: id,
			Method:        req.Method,
			Path:          path,
			StatusCode:    status,
			Error:         err.Error(),
		})
	}
	return err
}

func reauthDeclineError(d flows.ReauthDecision) error {
	switch d {
	case flows.ReauthNotUnauthorized:
		return ErrNotUnauthorized
	case flows.ReauthNotAuthenticated:
		return ErrNotAuthenticatedOriginally
	case flows.ReauthExcludedEndpoint:
		return ErrExcludedEndpoint
	case flows.ReauthRetryLimit:
		return ErrRetryLimitExceeded
	case flows.ReauthBodyNotReplayable:
		return ErrBodyNotReplayable
	default:
		return fmt.Errorf("unknown reauth decision %d", d)
	}
}

func bearerToken(req *http.Request) string {
	v := req.Header.Get("Authorization")
	if len(v) > 7 && strings.EqualFold(v[:7], "Bearer ") {
		return v[7:]
	}
	return ""
}
