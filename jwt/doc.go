// Package jwt reads claims from access tokens the client holds, without
// verifying signatures.
//
// The client never owns signing keys, so nothing read here is trusted for
// authorization. Expiry is used only to decide when to refresh ahead of a
// request, and claims surface in diagnostics.
//
// # What this package must NOT do
//
//   - Treat a parsed token as authenticated.
//   - Log or return the raw token.
package jwt
