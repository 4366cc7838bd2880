package internaldefs

import (
	goAuthClient "github.com/MrEthical07/goAuthClient"
)

// CounterDef binds a pipeline counter to its exported name.
type CounterDef struct {
	ID   goAuthClient.MetricID
	Name string
	Help string
}

// HistogramDef binds a latency histogram to its exported name.
type HistogramDef struct {
	ID   goAuthClient.MetricID
	Name string
	Help string
}

// BucketCount is the number of histogram buckets, +Inf included.
const BucketCount = 8

// AuditDroppedName is exported alongside the pipeline counters.
const (
	AuditDroppedName = "goauthclient_audit_dropped_total"
	AuditDroppedHelp = "Audit events dropped due to dispatcher backpressure."
)

var CounterDefs = []CounterDef{
	{ID: goAuthClient.MetricRequestSent, Name: "goauthclient_requests_total", Help: "Requests sent through the pipeline (first attempts)."},
	{ID: goAuthClient.MetricRetrySent, Name: "goauthclient_retries_total", Help: "Requests resubmitted after a refresh."},
	{ID: goAuthClient.MetricUnauthorizedResponse, Name: "goauthclient_unauthorized_responses_total", Help: "401 responses seen by the pipeline."},
	{ID: goAuthClient.MetricRefreshStarted, Name: "goauthclient_refresh_started_total", Help: "Refresh network calls made."},
	{ID: goAuthClient.MetricRefreshJoined, Name: "goauthclient_refresh_joined_total", Help: "Callers that joined an in-flight refresh."},
	{ID: goAuthClient.MetricRefreshSuccess, Name: "goauthclient_refresh_success_total", Help: "Successful refresh cycles."},
	{ID: goAuthClient.MetricRefreshFailure, Name: "goauthclient_refresh_failure_total", Help: "Failed refresh cycles."},
	{ID: goAuthClient.MetricRefreshCancelled, Name: "goauthclient_refresh_cancelled_total", Help: "Callers that stopped waiting for a refresh."},
	{ID: goAuthClient.MetricRefreshDiscarded, Name: "goauthclient_refresh_discarded_total", Help: "Refresh results dropped because the session changed."},
	{ID: goAuthClient.MetricProactiveRefresh, Name: "goauthclient_proactive_refresh_total", Help: "Refreshes triggered before expiry."},
	{ID: goAuthClient.MetricReauthDeclined, Name: "goauthclient_reauth_declined_total", Help: "401 responses handed back without a retry."},
	{ID: goAuthClient.MetricTokensCleared, Name: "goauthclient_tokens_cleared_total", Help: "Credential store clears."},
	{ID: goAuthClient.MetricLoginSuccess, Name: "goauthclient_login_success_total", Help: "Successful logins."},
	{ID: goAuthClient.MetricLoginFailure, Name: "goauthclient_login_failure_total", Help: "Failed logins."},
	{ID: goAuthClient.MetricLoginRateLimited, Name: "goauthclient_login_rate_limited_total", Help: "Logins rejected with 429."},
	{ID: goAuthClient.MetricLogout, Name: "goauthclient_logout_total", Help: "Logout operations."},
}

var HistogramDefs = []HistogramDef{
	{ID: goAuthClient.MetricRefreshLatency, Name: "goauthclient_refresh_latency_seconds", Help: "Refresh endpoint round-trip latency."},
	{ID: goAuthClient.MetricRequestLatency, Name: "goauthclient_request_latency_seconds", Help: "Per-attempt request latency."},
}

// HistogramUpperBounds are the finite bucket bounds in seconds. The last
// bucket is +Inf.
var HistogramUpperBounds = [BucketCount - 1]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// HistogramBoundSuffix names each bucket for exporters without native
// histograms.
var HistogramBoundSuffix = [BucketCount]string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates raw to BucketCount entries.
func NormalizeBuckets(raw []uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [BucketCount]uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
