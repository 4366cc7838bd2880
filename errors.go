package goAuthClient

import "errors"

// Refresh outcomes. Every one of these except ErrRefreshCancelled and
// ErrSessionChanged is accompanied by the token store being cleared.
var (
	// ErrNoRefreshToken is returned when a refresh is needed but no refresh
	// token is stored. No network call is made.
	ErrNoRefreshToken = errors.New("no refresh token stored")
	// ErrRefreshNetwork wraps transport failures of the refresh call.
	ErrRefreshNetwork = errors.New("refresh request failed")
	// ErrRefreshRejected is returned when the refresh endpoint answers non-2xx.
	ErrRefreshRejected = errors.New("refresh rejected by server")
	// ErrRefreshMalformedResponse covers empty bodies, invalid JSON and a
	// missing access token.
	ErrRefreshMalformedResponse = errors.New("refresh response malformed")
	// ErrRefreshCancelled is returned to a waiter whose context ended first.
	// The shared refresh keeps running and the store is untouched.
	ErrRefreshCancelled = errors.New("refresh wait cancelled")
	// ErrSessionChanged means the credentials were replaced or cleared while
	// the refresh was in flight, so its result was discarded.
	ErrSessionChanged = errors.New("session changed during refresh")
)

// Reauth declines. These never reach Execute callers; the original 401 is
// returned instead.
var (
	ErrNotUnauthorized            = errors.New("response is not 401")
	ErrNotAuthenticatedOriginally = errors.New("request carried no authorization")
	ErrExcludedEndpoint           = errors.New("endpoint excluded from reauth")
	ErrRetryLimitExceeded         = errors.New("retry limit exceeded")
	ErrBodyNotReplayable          = errors.New("request body cannot be replayed")
)

// Session operations.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrLoginRateLimited   = errors.New("login rate limited")
	ErrLoginFailed        = errors.New("login failed")
	ErrClientNotReady     = errors.New("client not ready")
)
