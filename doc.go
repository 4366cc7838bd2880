// Package goAuthClient provides an authenticated HTTP request pipeline for
// API clients that hold a short-lived bearer access token and a longer-lived
// refresh token.
//
// Every request sent through [Client.Execute] (or [Client.HTTPClient]) is
// tagged with a correlation id, gets "Authorization: Bearer <access>" unless
// its path is excluded, and on a 401 triggers one shared refresh followed by
// exactly one retry with the new token.
//
// # Architecture boundaries
//
// goAuthClient is the public surface. It exposes [Client], [Builder],
// [Config], [TokenStore] and value types (RefreshOutcome, RequestContext,
// MetricsSnapshot). Request building and response interpretation for the
// auth endpoints, header injection and reauth guard decisions live under
// internal/flows. Durable credential storage lives in tokenstore.
//
// # What this package must NOT do
//
//   - Put the refresh token in an Authorization header or in any log line.
//   - Send a refresh call through the authenticated pipeline.
//   - Retry an original request more than once.
//   - Retry on anything other than a 401.
//
// # Concurrency contract
//
// Client methods are safe from many goroutines after [Builder.Build]. The
// token store and the refresh coordinator's in-flight state are the only
// shared mutable resources; at most one refresh network call is in flight at
// any instant.
package goAuthClient
