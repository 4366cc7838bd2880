package flows

import "net/http"

// HTTPDoer is the transport seam used by the endpoint flows. *http.Client
// satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Deps groups flow dependency sets. The root Client builds this once and
// delegates operations to the matching flow implementation.
type Deps struct {
	Refresh RefreshDeps
	Login   LoginDeps
	Logout  LogoutDeps
}
