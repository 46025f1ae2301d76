// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/osbuild/image-builder-mcp/pkg/errors"
	"github.com/osbuild/image-builder-mcp/pkg/logger"
)

const (
	// grantTypeClientCredentials is the OAuth 2.0 grant used to exchange a
	// service account pair for an access token (RFC 6749 Section 4.4)
	grantTypeClientCredentials = "client_credentials"

	// defaultHTTPTimeout is the timeout for token endpoint requests
	defaultHTTPTimeout = 30 * time.Second

	// maxResponseBodySize is the maximum size for reading response bodies (1 MB)
	maxResponseBodySize = 1 << 20

	// redactedPlaceholder is used to redact sensitive values in string representations
	redactedPlaceholder = "[REDACTED]"

	// emptyPlaceholder is used to indicate empty/missing values in string representations
	emptyPlaceholder = "<empty>"
)

// oAuthError represents an OAuth 2.0 error response as defined in RFC 6749 Section 5.2.
type oAuthError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	ErrorURI         string `json:"error_uri,omitempty"`
	StatusCode       int    `json:"-"`
}

func (e *oAuthError) String() string {
	if e.ErrorURI != "" {
		return fmt.Sprintf("OAuth error %q (status %d): see %s", e.Error, e.StatusCode, e.ErrorURI)
	}
	return fmt.Sprintf("OAuth error %q (status %d)", e.Error, e.StatusCode)
}

// parseOAuthError attempts to parse an OAuth error response from the given response body.
func parseOAuthError(statusCode int, body []byte) *oAuthError {
	var oauthErr oAuthError
	if err := json.Unmarshal(body, &oauthErr); err != nil {
		return nil
	}
	if oauthErr.Error == "" {
		return nil
	}
	oauthErr.StatusCode = statusCode
	return &oauthErr
}

// tokenResponse is used to decode the token endpoint response.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
}

// String implements fmt.Stringer for tokenResponse, redacting the token.
func (r tokenResponse) String() string {
	accessToken := redactedPlaceholder
	if r.AccessToken == "" {
		accessToken = emptyPlaceholder
	}
	return fmt.Sprintf("tokenResponse{AccessToken: %s, TokenType: %s, ExpiresIn: %d}",
		accessToken, r.TokenType, r.ExpiresIn)
}

// defaultHTTPClient is the default HTTP client used for token requests.
var defaultHTTPClient = &http.Client{
	Timeout: defaultHTTPTimeout,
}

// TokenClient requests access tokens from Red Hat SSO using the OAuth 2.0
// client credentials grant.
type TokenClient struct {
	tokenURL string
	client   *http.Client
	now      func() time.Time
}

// TokenClientOption configures a TokenClient.
type TokenClientOption func(*TokenClient)

// WithHTTPClient sets the HTTP client used for token requests.
func WithHTTPClient(client *http.Client) TokenClientOption {
	return func(c *TokenClient) {
		c.client = client
	}
}

// WithTokenClock sets the clock used to stamp token expiry. Tests use this
// to control time.
func WithTokenClock(now func() time.Time) TokenClientOption {
	return func(c *TokenClient) {
		c.now = now
	}
}

// NewTokenClient creates a TokenClient for the given token endpoint URL.
func NewTokenClient(tokenURL string, opts ...TokenClientOption) *TokenClient {
	c := &TokenClient{
		tokenURL: tokenURL,
		client:   defaultHTTPClient,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token exchanges the credential pair for an access token. The returned
// token carries the expiry stamped from the endpoint's expires_in.
func (c *TokenClient) Token(ctx context.Context, creds *Credentials) (*oauth2.Token, error) {
	if creds == nil || creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, errors.NewInternalError("token request needs a complete client ID/secret pair", nil)
	}

	body, err := c.post(ctx, creds)
	if err != nil {
		return nil, err
	}

	var resp tokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		logger.Debugf("Failed to parse token response: %v", err)
		return nil, errors.NewAuthenticationError("failed to parse token response", err)
	}
	if resp.AccessToken == "" {
		return nil, errors.NewAuthenticationError("token endpoint returned an empty access_token", nil)
	}

	token := &oauth2.Token{
		AccessToken: resp.AccessToken,
		TokenType:   resp.TokenType,
	}
	if resp.ExpiresIn > 0 {
		token.Expiry = c.now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}

	return token, nil
}

// post sends the grant request and returns the response body for successful
// statuses.
func (c *TokenClient) post(ctx context.Context, creds *Credentials) ([]byte, error) {
	// Client credentials go in the form body, which is what Red Hat SSO
	// expects for service accounts.
	data := url.Values{}
	data.Set("grant_type", grantTypeClientCredentials)
	data.Set("client_id", creds.ClientID)
	data.Set("client_secret", creds.ClientSecret)

	encodedData := data.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(encodedData))
	if err != nil {
		return nil, errors.NewInternalError("failed to create token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Content-Length", strconv.Itoa(len(encodedData)))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.NewTransportError("token request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return nil, errors.NewTransportError("failed to read token response", err)
	}

	if err := validateTokenStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	return body, nil
}

// validateTokenStatus checks the HTTP status code and converts failures into
// authentication errors carrying whatever detail the provider supplied.
func validateTokenStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode <= 299 {
		return nil
	}

	authErr := errors.NewAuthenticationError("token request rejected", nil).
		WithDetail("status_code", statusCode)

	// Prefer the structured OAuth error when the provider sent one.
	if oauthErr := parseOAuthError(statusCode, body); oauthErr != nil {
		logger.Debugf("Token request OAuth error: %s (description: %s)", oauthErr.Error, oauthErr.ErrorDescription)
		authErr.Message = fmt.Sprintf("token request rejected: %s", oauthErr.String())
		authErr = authErr.WithDetail("provider_error", oauthErr.Error)
		if oauthErr.ErrorDescription != "" {
			authErr = authErr.WithDetail("provider_error_description", oauthErr.ErrorDescription)
		}
		return authErr
	}

	logger.Debugf("Token request failed with status %d: %s", statusCode, string(body))
	return authErr.WithDetail("body", string(body))
}
