package flows

import (
	"net/http"
	"strings"
)

// InjectAction is the header decision taken for one outgoing request.
type InjectAction int

const (
	// InjectNone leaves the request untouched.
	InjectNone InjectAction = iota
	// InjectBearer sets Authorization to the current access token.
	InjectBearer
	// InjectStrip removes any Authorization header.
	InjectStrip
)

// InjectPolicy is the immutable header-injection configuration.
type InjectPolicy struct {
	ExcludedPrefixes []string
	StripPrefixes    []string
	// BaseHost, when non-empty, limits injection to requests addressed to it.
	BaseHost string
}

// PathExcluded reports whether path starts with any of prefixes.
func PathExcluded(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if prefix != "" && strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// DecideInjection returns the action for req given the current access token.
func DecideInjection(req *http.Request, accessToken string, policy InjectPolicy) InjectAction {
	if req == nil || req.URL == nil {
		return InjectNone
	}
	if PathExcluded(req.URL.Path, policy.StripPrefixes) {
		if req.Header.Get("Authorization") != "" {
			return InjectStrip
		}
		return InjectNone
	}
	if PathExcluded(req.URL.Path, policy.ExcludedPrefixes) {
		return InjectNone
	}
	if policy.BaseHost != "" && !strings.EqualFold(req.URL.Host, policy.BaseHost) {
		return InjectNone
	}
	if accessToken == "" {
		return InjectNone
	}
	return InjectBearer
}

// InjectAuthorization applies DecideInjection. The input request is never
// mutated; a clone is returned whenever a header changes.
func InjectAuthorization(req *http.Request, accessToken string, policy InjectPolicy) *http.Request {
	switch DecideInjection(req, accessToken, policy) {
	case InjectBearer:
		out := req.Clone(req.Context())
		out.Header.Set("Authorization", BearerValue(accessToken))
		return out
	case InjectStrip:
		out := req.Clone(req.Context())
		out.Header.Del("Authorization")
		return out
	default:
		return req
	}
}

// BearerValue formats an Authorization header value.
func BearerValue(token string) string {
	return "Bearer " + token
}
