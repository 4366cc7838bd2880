package goAuthClient

import (
	"net/http"

	"github.com/MrEthical07/goAuthClient/internal/flows"
)

// AuthHeaderInjector attaches the bearer token to eligible requests. It is
// stateless apart from its immutable policy.
type AuthHeaderInjector struct {
	policy flows.InjectPolicy
}

// NewAuthHeaderInjector builds an injector from cfg.
func NewAuthHeaderInjector(cfg Config) AuthHeaderInjector {
	policy := flows.InjectPolicy{
		ExcludedPrefixes: cloneStrings(cfg.Auth.ExcludedPathPrefixes),
		StripPrefixes:    cloneStrings(cfg.Auth.StripAuthPathPrefixes),
	}
	if cfg.Auth.RestrictToBaseHost {
		policy.BaseHost = cfg.baseHost()
	}
	return AuthHeaderInjector{policy: policy}
}

// Inject returns req, or a clone carrying "Authorization: Bearer <token>"
// when the path is not excluded and accessToken is non-empty. Requests under
// a strip prefix lose any Authorization header.
func (i AuthHeaderInjector) Inject(req *http.Request, accessToken string) *http.Request {
	return flows.InjectAuthorization(req, accessToken, i.policy)
}

// Excluded reports whether path is exempt from authorization and refresh.
func (i AuthHeaderInjector) Excluded(path string) bool {
	return flows.PathExcluded(path, i.policy.ExcludedPrefixes) ||
		flows.PathExcluded(path, i.policy.StripPrefixes)
}
