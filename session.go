package goAuthClient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MrEthical07/goAuthClient/internal/flows"
	"github.com/sirupsen/logrus"
)

// Login exchanges username/email and password for credentials and stores
// them. The call bypasses the reauth pipeline.
func (c *Client) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	if c == nil || c.store == nil {
		return LoginResult{}, ErrClientNotReady
	}
	if strings.TrimSpace(req.UsernameOrEmail) == "" || req.Password == "" {
		return LoginResult{}, fmt.Errorf("%w: username and password are required", ErrInvalidCredentials)
	}

	id := c.newID()
	body := flows.PasswordLoginBody(req.UsernameOrEmail, req.Password, req.Device)
	res := flows.RunPasswordLogin(ctx, body, id, c.deps.Login)
	return c.finishLogin(ctx, id, "password", res)
}

// LoginOAuth exchanges a social provider token for credentials and stores
// them.
func (c *Client) LoginOAuth(ctx context.Context, req OAuthLoginRequest) (LoginResult, error) {
	if c == nil || c.store == nil {
		return LoginResult{}, ErrClientNotReady
	}
	provider := strings.ToLower(strings.TrimSpace(string(req.Provider)))
	if provider == "" || strings.ContainsAny(provider, "/?#") {
		return LoginResult{}, fmt.Errorf("%w: invalid oauth provider %q", ErrLoginFailed, req.Provider)
	}
	if req.Token == "" {
		return LoginResult{}, fmt.Errorf("%w: provider token is required", ErrInvalidCredentials)
	}

	id := c.newID()
	body := flows.OAuthLoginBody(provider, req.Token, req.InviteCode, req.Device)
	res := flows.RunOAuthLogin(ctx, provider, body, id, c.deps.Login)
	return c.finishLogin(ctx, id, "oauth_"+provider, res)
}

func (c *Client) finishLogin(ctx context.Context, id, method string, res flows.LoginResult) (LoginResult, error) {
	log := c.log.WithFields(logrus.Fields{"id": id, "login": method})

	if res.Failure != flows.LoginFailureNone {
		err := mapLoginFailure(res)
		if res.Failure == flows.LoginFailureRateLimited {
			c.metrics.Inc(MetricLoginRateLimited)
		} else {
			c.metrics.Inc(MetricLoginFailure)
		}
		log.WithError(err).WithField("status", res.StatusCode).Info("goauthclient: login failed")
		c.audit.Emit(ctx, AuditEvent{
			EventType:     AuditLogin,
			CorrelationID: id,
			StatusCode:    res.StatusCode,
			Error:         err.Error(),
			Metadata:      map[string]string{"method": method},
		})
		return LoginResult{}, err
	}

	storeCredentials(c.store, Credentials{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
	})
	c.metrics.Inc(MetricLoginSuccess)
	log.Debug("goauthclient: login succeeded")
	c.audit.Emit(ctx, AuditEvent{
		EventType:     AuditLogin,
		CorrelationID: id,
		StatusCode:    res.StatusCode,
		Success:       true,
		Metadata:      map[string]string{"method": method},
	})

	return LoginResult{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		User:         res.User,
	}, nil
}

// Logout asks the server to revoke the refresh token, then clears the store
// whatever the server said. The returned error only reports the revoke call.
func (c *Client) Logout(ctx context.Context) error {
	if c == nil || c.store == nil {
		return ErrClientNotReady
	}

	id := c.newID()
	refresh := c.store.Get().RefreshToken
	revokeErr := flows.RunLogout(ctx, refresh, id, c.deps.Logout)
	c.store.Clear()
	c.metrics.Inc(MetricLogout)
	c.metrics.Inc(MetricTokensCleared)

	event := AuditEvent{
		EventType:     AuditLogout,
		CorrelationID: id,
		Success:       revokeErr == nil,
	}
	if revokeErr != nil {
		event.Error = revokeErr.Error()
		c.log.WithError(revokeErr).WithField("id", id).Warn("goauthclient: logout revoke failed, local credentials cleared")
	}
	c.audit.Emit(ctx, event)
	c.audit.Emit(ctx, AuditEvent{
		EventType:     AuditTokensCleared,
		CorrelationID: id,
		Success:       true,
		Metadata:      map[string]string{"reason": "logout"},
	})
	return revokeErr
}

func mapLoginFailure(res flows.LoginResult) error {
	switch res.Failure {
	case flows.LoginFailureInvalidCredentials:
		return ErrInvalidCredentials
	case flows.LoginFailureRateLimited:
		return ErrLoginRateLimited
	case flows.LoginFailureNetwork, flows.LoginFailureBuildRequest:
		return fmt.Errorf("%w: %w", ErrLoginFailed, res.Err)
	default:
		if res.Err == nil {
			res.Err = errors.New("unexpected response")
		}
		return fmt.Errorf("%w: %w", ErrLoginFailed, res.Err)
	}
}
