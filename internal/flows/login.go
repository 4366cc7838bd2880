package flows

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// LoginFailureKind classifies login flow failures for root-level mapping.
type LoginFailureKind int

const (
	LoginFailureNone LoginFailureKind = iota
	LoginFailureBuildRequest
	LoginFailureNetwork
	LoginFailureInvalidCredentials
	LoginFailureRateLimited
	LoginFailureRejected
	LoginFailureMalformed
)

// LoginResult is the flow-local login response shape.
type LoginResult struct {
	Failure      LoginFailureKind
	Err          error
	StatusCode   int
	AccessToken  string
	RefreshToken string
	User         map[string]any
}

// LoginDeps captures login flow dependencies. Client must be a bare client.
type LoginDeps struct {
	Client            HTTPDoer
	BaseURL           string
	LoginPath         string
	OAuthPathPrefix   string
	CorrelationHeader string
}

// PasswordLoginBody builds the password login payload. The identifier is sent
// under both field spellings.
func PasswordLoginBody(identifier, password, device string) map[string]string {
	body := map[string]string{
		"usernameOrEmail":   identifier,
		"username_or_email": identifier,
		"password":          password,
	}
	if device != "" {
		body["device"] = device
	}
	return body
}

// OAuthLoginBody builds the payload for an OAuth provider exchange. Google
// expects an ID token, other providers an access token.
func OAuthLoginBody(provider, providerToken, inviteCode, device string) map[string]string {
	key := "accessToken"
	if provider == "google" {
		key = "idToken"
	}
	body := map[string]string{key: providerToken}
	if inviteCode != "" {
		body["inviteCode"] = inviteCode
	}
	if device != "" {
		body["device"] = device
	}
	return body
}

// RunPasswordLogin posts credentials to the login endpoint.
func RunPasswordLogin(ctx context.Context, body any, requestID string, deps LoginDeps) LoginResult {
	return runLogin(ctx, joinURL(deps.BaseURL, deps.LoginPath), body, requestID, deps)
}

// RunOAuthLogin posts a provider token to the provider's OAuth endpoint.
func RunOAuthLogin(ctx context.Context, provider string, body any, requestID string, deps LoginDeps) LoginResult {
	path := strings.TrimSuffix(deps.OAuthPathPrefix, "/") + "/" + provider
	return runLogin(ctx, joinURL(deps.BaseURL, path), body, requestID, deps)
}

func runLogin(ctx context.Context, endpoint string, body any, requestID string, deps LoginDeps) LoginResult {
	req, err := NewEndpointRequest(ctx, EndpointRequest{
		URL:               endpoint,
		Body:              body,
		CorrelationHeader: deps.CorrelationHeader,
		CorrelationID:     requestID,
	})
	if err != nil {
		return LoginResult{Failure: LoginFailureBuildRequest, Err: err}
	}

	resp, err := deps.Client.Do(req)
	if err != nil {
		return LoginResult{Failure: LoginFailureNetwork, Err: err}
	}

	raw, readErr := readLimited(resp)
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return LoginResult{Failure: LoginFailureInvalidCredentials, StatusCode: resp.StatusCode}
	case resp.StatusCode == http.StatusTooManyRequests:
		return LoginResult{Failure: LoginFailureRateLimited, StatusCode: resp.StatusCode}
	case !successStatus(resp.StatusCode):
		detail := strings.TrimSpace(string(raw))
		if detail == "" {
			detail = "no body"
		}
		return LoginResult{
			Failure:    LoginFailureRejected,
			Err:        fmt.Errorf("status %d: %s", resp.StatusCode, detail),
			StatusCode: resp.StatusCode,
		}
	}
	if readErr != nil {
		return LoginResult{Failure: LoginFailureNetwork, Err: readErr, StatusCode: resp.StatusCode}
	}

	pair, err := decodeTokenPair(raw)
	if err != nil {
		return LoginResult{Failure: LoginFailureMalformed, Err: err, StatusCode: resp.StatusCode}
	}
	return LoginResult{
		StatusCode:   resp.StatusCode,
		AccessToken:  pair.access(),
		RefreshToken: pair.refresh(),
		User:         pair.User,
	}
}

func joinURL(base, path string) string {
	return strings.TrimSuffix(base, "/") + path
}
