package goAuthClient

import (
	"io"
	"net/http"
	"time"

	"github.com/MrEthical07/goAuthClient/jwt"
	"github.com/sirupsen/logrus"
)

// maxDrainBytes bounds how much of a discarded 401 body is read so the
// connection can be reused.
const maxDrainBytes = 64 << 10

// Transport is the authenticated http.RoundTripper: tag, inject, send, and
// on 401 let the ReauthHandler decide on one retry.
type Transport struct {
	base     http.RoundTripper
	store    TokenStore
	tagger   requestTagger
	injector AuthHeaderInjector
	reauth   *ReauthHandler
	refresh  *RefreshCoordinator
	leeway   time.Duration

	log     logrus.FieldLogger
	metrics *Metrics
	now     func() time.Time
}

// RoundTrip implements http.RoundTripper. req is never modified.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	tagged, rc := t.tagger.tag(req)
	ctx := tagged.Context()

	if t.leeway > 0 && !t.injector.Excluded(tagged.URL.Path) {
		creds := t.store.Get()
		if creds.RefreshToken != "" && jwt.ExpiresWithin(creds.AccessToken, t.leeway, t.now()) {
			t.metrics.Inc(MetricProactiveRefresh)
			if outcome := t.refresh.Refresh(ctx); !outcome.Success() {
				t.log.WithError(outcome.Err).WithField("id", rc.CorrelationID).
					Debug("goauthclient: proactive refresh failed")
			}
		}
	}

	out := t.injector.Inject(tagged, t.store.Get().AccessToken)
	rc.HadAuthorizationHeader = out.Header.Get("Authorization") != ""
	t.metrics.Inc(MetricRequestSent)

	prior := 0
	for {
		start := time.Now()
		resp, err := t.base.RoundTrip(out)
		if err != nil {
			return nil, err
		}
		t.metrics.Observe(MetricRequestLatency, time.Since(start))
		t.tagger.response(rc, resp.StatusCode)
		prior++

		if resp.StatusCode != http.StatusUnauthorized {
			return resp, nil
		}
		t.metrics.Inc(MetricUnauthorizedResponse)

		next, err := t.reauth.OnUnauthorized(ctx, out, resp, prior)
		if err != nil {
			return resp, nil
		}

		drain(resp)
		t.metrics.Inc(MetricRetrySent)
		out = next
	}
}

func drain(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))
	_ = resp.Body.Close()
}
