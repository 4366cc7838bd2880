package flows

import (
	"context"
	"errors"
	"fmt"
)

// RefreshFailureKind classifies refresh flow failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureNoToken
	RefreshFailureBuildRequest
	RefreshFailureNetwork
	RefreshFailureRejected
	RefreshFailureMalformed
)

// RefreshResult carries either the new token(s) or failure metadata.
type RefreshResult struct {
	Failure      RefreshFailureKind
	Err          error
	StatusCode   int
	AccessToken  string
	RefreshToken string
}

// RefreshDeps captures refresh flow dependencies. Client must be a bare
// client whose transport never runs reauth.
type RefreshDeps struct {
	Client            HTTPDoer
	Endpoint          string
	CorrelationHeader string
}

// RunRefresh exchanges refreshToken for a new access token. RefreshToken in
// the result is set only when the server rotated it.
func RunRefresh(ctx context.Context, refreshToken, refreshID string, deps RefreshDeps) RefreshResult {
	if refreshToken == "" {
		return RefreshResult{
			Failure: RefreshFailureNoToken,
			Err:     errors.New("no refresh token stored"),
		}
	}

	req, err := NewEndpointRequest(ctx, EndpointRequest{
		URL:               deps.Endpoint,
		Body:              refreshTokenBody(refreshToken),
		CorrelationHeader: deps.CorrelationHeader,
		CorrelationID:     refreshID,
	})
	if err != nil {
		return RefreshResult{Failure: RefreshFailureBuildRequest, Err: err}
	}

	resp, err := deps.Client.Do(req)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureNetwork, Err: err}
	}

	body, readErr := readLimited(resp)
	if !successStatus(resp.StatusCode) {
		return RefreshResult{
			Failure:    RefreshFailureRejected,
			Err:        fmt.Errorf("refresh endpoint returned status %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
		}
	}
	if readErr != nil {
		return RefreshResult{
			Failure:    RefreshFailureNetwork,
			Err:        fmt.Errorf("read refresh response: %w", readErr),
			StatusCode: resp.StatusCode,
		}
	}

	pair, err := decodeTokenPair(body)
	if err != nil {
		return RefreshResult{
			Failure:    RefreshFailureMalformed,
			Err:        err,
			StatusCode: resp.StatusCode,
		}
	}

	return RefreshResult{
		StatusCode:   resp.StatusCode,
		AccessToken:  pair.access(),
		RefreshToken: pair.refresh(),
	}
}
