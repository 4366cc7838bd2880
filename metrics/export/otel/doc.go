// Package otel binds goAuthClient pipeline metrics to an OpenTelemetry Meter.
//
// [NewExporter] registers one Int64ObservableCounter per pipeline counter
// and one Int64ObservableGauge per histogram bucket. A single callback reads
// the client snapshot on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the MeterProvider. Callers supply the Meter.
//   - Mutate client state.
package otel
