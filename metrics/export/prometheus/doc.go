// Package prometheus exposes goAuthClient pipeline metrics as a Prometheus
// collector.
//
// [Exporter] implements prometheus.Collector over a [goAuthClient.Client]
// snapshot. Counters are named goauthclient_*_total and the latency
// histograms goauthclient_*_latency_seconds.
//
// # What this package must NOT do
//
//   - Register in the global Prometheus registry. Callers register the
//     collector themselves or mount [Exporter.Handler].
//   - Mutate client state.
package prometheus
