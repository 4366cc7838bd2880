package goAuthClient

import "github.com/MrEthical07/goAuthClient/tokenstore"

// Credentials is the access/refresh token pair held by a [TokenStore].
type Credentials = tokenstore.Credentials

// RefreshOutcome is the result of one refresh cycle, shared by every caller
// that joined it. Success iff Err is nil.
type RefreshOutcome struct {
	AccessToken string
	Err         error
}

// Success reports whether the refresh produced a new access token.
func (o RefreshOutcome) Success() bool {
	return o.Err == nil
}

// RequestContext is the per-request diagnostic record created by the tagger.
type RequestContext struct {
	CorrelationID          string
	Method                 string
	URL                    string
	HadAuthorizationHeader bool
}

// LoginRequest is a username/email + password login.
type LoginRequest struct {
	UsernameOrEmail string
	Password        string
	Device          string
}

// OAuthProvider names a supported social login provider.
type OAuthProvider string

const (
	OAuthGoogle   OAuthProvider = "google"
	OAuthFacebook OAuthProvider = "facebook"
)

// OAuthLoginRequest exchanges a provider token for API credentials. Token is
// the Google ID token or the Facebook access token.
type OAuthLoginRequest struct {
	Provider   OAuthProvider
	Token      string
	InviteCode string
	Device     string
}

// LoginResult is returned by the login operations after the credentials
// have been stored.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         map[string]any
}
