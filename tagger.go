package goAuthClient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type requestContextKey struct{}

// RequestContextFromContext returns the RequestContext the pipeline attached
// to a tagged request's context.
func RequestContextFromContext(ctx context.Context) (RequestContext, bool) {
	if ctx == nil {
		return RequestContext{}, false
	}
	rc, ok := ctx.Value(requestContextKey{}).(*RequestContext)
	if !ok || rc == nil {
		return RequestContext{}, false
	}
	return *rc, true
}

type requestTagger struct {
	header string
	log    logrus.FieldLogger
	newID  func() string
}

func newRequestTagger(header string, log logrus.FieldLogger) requestTagger {
	return requestTagger{
		header: header,
		log:    log,
		newID:  newCorrelationID,
	}
}

func newCorrelationID() string {
	return uuid.NewString()
}

// tag clones req with a fresh correlation id in both the header and the
// request context, and logs the outgoing call.
func (t requestTagger) tag(req *http.Request) (*http.Request, *RequestContext) {
	rc := &RequestContext{
		CorrelationID: t.newID(),
		Method:        req.Method,
		URL:           logURL(req.URL),
	}
	ctx := context.WithValue(req.Context(), requestContextKey{}, rc)
	out := req.Clone(ctx)
	if t.header != "" {
		out.Header.Set(t.header, rc.CorrelationID)
	}

	t.log.WithFields(logrus.Fields{
		"id":     rc.CorrelationID,
		"method": rc.Method,
		"url":    rc.URL,
	}).Debug("goauthclient: request")

	return out, rc
}

func (t requestTagger) response(rc *RequestContext, status int) {
	t.log.WithFields(logrus.Fields{
		"id":       rc.CorrelationID,
		"response": status,
		"url":      rc.URL,
	}).Debug("goauthclient: response")
}

// logURL drops query, fragment and user info so nothing secret reaches logs.
func logURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	c := *u
	c.User = nil
	c.RawQuery = ""
	c.ForceQuery = false
	c.Fragment = ""
	c.RawFragment = ""
	return c.String()
}
