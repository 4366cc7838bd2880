// Package flows contains pure-function orchestrators for every Client operation.
//
// Each flow function (RunRefresh, RunLogin, EvaluateReauth, etc.) accepts a
// typed dependency struct or input value and returns a result carrying a
// failure kind. The root package maps failure kinds to its exported sentinel
// errors, so flows stay testable with a fake HTTPDoer.
//
// # Architecture boundaries
//
// Flow functions build and interpret auth-endpoint requests and make the
// header-injection and reauth guard decisions. They do NOT own the token
// store, the single-flight state, metrics, or audit. Ownership stays with
// the Client.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goAuthClient (to avoid import cycles).
//   - Log or return token values inside errors.
package flows
