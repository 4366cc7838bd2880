package flows

import (
	"errors"
	"net/http"
)

// ReauthDecision is the outcome of the 401 guard chain.
type ReauthDecision int

const (
	// ReauthRefresh means every guard passed and a refresh should run.
	ReauthRefresh ReauthDecision = iota
	ReauthNotUnauthorized
	ReauthNotAuthenticated
	ReauthExcludedEndpoint
	ReauthRetryLimit
	ReauthBodyNotReplayable
)

// ReauthInput carries everything the guard chain looks at.
type ReauthInput struct {
	Request    *http.Request
	StatusCode int
	// PriorResponses counts responses in this request's chain, including the
	// one being evaluated.
	PriorResponses   int
	MaxPriorAttempts int
	ExcludedPrefixes []string
}

// EvaluateReauth runs the guards in order and returns the first decline, or
// ReauthRefresh.
func EvaluateReauth(in ReauthInput) ReauthDecision {
	if in.StatusCode != http.StatusUnauthorized {
		return ReauthNotUnauthorized
	}
	if in.Request == nil || in.Request.Header.Get("Authorization") == "" {
		return ReauthNotAuthenticated
	}
	if in.Request.URL != nil && PathExcluded(in.Request.URL.Path, in.ExcludedPrefixes) {
		return ReauthExcludedEndpoint
	}
	if in.PriorResponses >= in.MaxPriorAttempts {
		return ReauthRetryLimit
	}
	if !BodyReplayable(in.Request) {
		return ReauthBodyNotReplayable
	}
	return ReauthRefresh
}

// BodyReplayable reports whether req can be sent a second time.
func BodyReplayable(req *http.Request) bool {
	if req.Body == nil || req.Body == http.NoBody {
		return true
	}
	return req.GetBody != nil
}

// RebuildWithToken clones req with a fresh body and the given bearer token.
func RebuildWithToken(req *http.Request, accessToken string) (*http.Request, error) {
	if accessToken == "" {
		return nil, errors.New("empty access token")
	}
	out := req.Clone(req.Context())
	if req.Body != nil && req.Body != http.NoBody {
		if req.GetBody == nil {
			return nil, errors.New("request body cannot be replayed")
		}
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		out.Body = body
	}
	out.Header.Set("Authorization", BearerValue(accessToken))
	return out, nil
}
