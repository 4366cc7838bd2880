package flows

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxAuthResponseBytes caps how much of an auth endpoint response is read.
const maxAuthResponseBytes = 1 << 20

// tokenPair accepts both camelCase and snake_case token fields.
type tokenPair struct {
	AccessToken       string         `json:"accessToken"`
	AccessTokenSnake  string         `json:"access_token"`
	RefreshToken      string         `json:"refreshToken"`
	RefreshTokenSnake string         `json:"refresh_token"`
	User              map[string]any `json:"user"`
}

func (p tokenPair) access() string {
	if p.AccessToken != "" {
		return p.AccessToken
	}
	return p.AccessTokenSnake
}

func (p tokenPair) refresh() string {
	if p.RefreshToken != "" {
		return p.RefreshToken
	}
	return p.RefreshTokenSnake
}

// refreshTokenBody is sent to refresh and logout, with both field spellings.
func refreshTokenBody(refreshToken string) map[string]string {
	return map[string]string{
		"refreshToken":  refreshToken,
		"refresh_token": refreshToken,
	}
}

// EndpointRequest describes a JSON POST to an auth endpoint.
type EndpointRequest struct {
	URL               string
	Body              any
	CorrelationHeader string
	CorrelationID     string
}

// NewEndpointRequest builds the POST with a replayable JSON body.
func NewEndpointRequest(ctx context.Context, in EndpointRequest) (*http.Request, error) {
	payload, err := json.Marshal(in.Body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, in.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if in.CorrelationHeader != "" && in.CorrelationID != "" {
		req.Header.Set(in.CorrelationHeader, in.CorrelationID)
	}
	return req, nil
}

// readLimited reads and closes resp.Body.
func readLimited(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(io.LimitReader(resp.Body, maxAuthResponseBytes))
}

func decodeTokenPair(body []byte) (tokenPair, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return tokenPair{}, fmt.Errorf("empty response body")
	}
	var pair tokenPair
	if err := json.Unmarshal(body, &pair); err != nil {
		return tokenPair{}, fmt.Errorf("decode response body: %w", err)
	}
	if pair.access() == "" {
		return tokenPair{}, fmt.Errorf("response has no access token")
	}
	return pair, nil
}

func successStatus(code int) bool {
	return code >= 200 && code < 300
}
