package flows

import (
	"context"
	"fmt"
)

// LogoutDeps captures logout flow dependencies. Client goes through the
// authenticated pipeline so the revoke call carries the bearer token.
type LogoutDeps struct {
	Client            HTTPDoer
	Endpoint          string
	CorrelationHeader string
}

// RunLogout asks the server to revoke refreshToken. An empty token skips the
// call.
func RunLogout(ctx context.Context, refreshToken, requestID string, deps LogoutDeps) error {
	if refreshToken == "" {
		return nil
	}
	req, err := NewEndpointRequest(ctx, EndpointRequest{
		URL:               deps.Endpoint,
		Body:              refreshTokenBody(refreshToken),
		CorrelationHeader: deps.CorrelationHeader,
		CorrelationID:     requestID,
	})
	if err != nil {
		return err
	}
	resp, err := deps.Client.Do(req)
	if err != nil {
		return err
	}
	_, _ = readLimited(resp)
	if !successStatus(resp.StatusCode) {
		return fmt.Errorf("logout endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
