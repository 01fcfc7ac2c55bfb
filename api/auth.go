package api

import (
	"context"
	"net/http"

	"github.com/jrsteele09/devinsights/sessions"
)

// AuthResponse is returned by both the code exchange and token validation.
type AuthResponse struct {
	Token   string         `json:"token,omitempty"`
	User    *sessions.User `json:"user,omitempty"`
	IsValid *bool          `json:"isValid,omitempty"`
}

type codeExchangeRequest struct {
	Code string `json:"code"`
}

// ExchangeCode trades a GitHub OAuth code for a backend session token.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, call{method: http.MethodPost, path: "/auth/github/callback", body: codeExchangeRequest{Code: code}, timeout: c.timeouts.Auth}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ValidateToken checks token with the backend and returns its user. An empty
// token validates whatever the client's token source provides.
func (c *Client) ValidateToken(ctx context.Context, token string) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, call{method: http.MethodGet, path: "/auth/validate", timeout: c.timeouts.Validate, token: token}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
