// SPDX-License-Identifier: Apache-2.0

// Package imagebuilder provides the REST client for the Red Hat Image
// Builder service on console.redhat.com.
package imagebuilder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/osbuild/image-builder-mcp/pkg/errors"
	"github.com/osbuild/image-builder-mcp/pkg/logger"
)

const (
	// ProdDomain is the production console domain.
	ProdDomain = "console.redhat.com"
	// StageDomain is the stage console domain, only reachable through the
	// Red Hat corporate proxy.
	StageDomain = "console.stage.redhat.com"

	// apiPath is the Image Builder API mount point on the console domain.
	apiPath = "/api/image-builder/v1"

	// requestTimeout bounds every API round trip.
	requestTimeout = 60 * time.Second

	// maxResponseBodySize caps response reads (4 MB). The OpenAPI document
	// is the largest payload the API serves and stays well under this.
	maxResponseBodySize = 4 << 20

	// clientTagHeader tells the service which frontend issued a request.
	clientTagHeader = "X-ImageBuilder-ui"

	// defaultClientTag identifies this server to the service.
	defaultClientTag = "mcp"
)

// Config configures the API client.
type Config struct {
	// Stage targets the stage deployment instead of production.
	Stage bool

	// ProxyURL routes requests through an HTTP proxy. Required to reach
	// the stage deployment.
	ProxyURL string

	// ClientTag overrides the value sent in the X-ImageBuilder-ui header.
	ClientTag string

	// BaseURL overrides the API base URL. Mainly for tests.
	BaseURL string

	// HTTPClient overrides the HTTP client. Mainly for tests.
	HTTPClient *http.Client
}

// Client is the Image Builder REST client. It is stateless: credentials
// arrive per call as a ready-to-send bearer token, so one client instance
// serves every session concurrently.
type Client struct {
	baseURL   string
	domain    string
	clientTag string
	client    *http.Client
}

// New creates a Client from the config.
func New(cfg Config) (*Client, error) {
	domain := ProdDomain
	if cfg.Stage {
		domain = StageDomain
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://" + domain + apiPath
	}

	clientTag := cfg.ClientTag
	if clientTag == "" {
		clientTag = defaultClientTag
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		transport := http.DefaultTransport
		if cfg.ProxyURL != "" {
			proxyURL, err := url.Parse(cfg.ProxyURL)
			if err != nil {
				return nil, fmt.Errorf("invalid proxy URL: %w", err)
			}
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
		httpClient = &http.Client{
			Timeout:   requestTimeout,
			Transport: transport,
		}
	}

	return &Client{
		baseURL:   baseURL,
		domain:    domain,
		clientTag: clientTag,
		client:    httpClient,
	}, nil
}

// Domain returns the console domain the client talks to. UI links are built
// from it.
func (c *Client) Domain() string {
	return c.domain
}

// BlueprintWizardURL returns the console UI URL where a blueprint can be
// inspected and edited.
func (c *Client) BlueprintWizardURL(blueprintID string) string {
	return fmt.Sprintf("https://%s/insights/image-builder/imagewizard/%s", c.domain, blueprintID)
}

// GetOpenAPI fetches the service's OpenAPI document, byte for byte. The
// endpoint is public; token may be empty. It is accepted anyway because
// some deployments sit behind gateways that gate every path.
func (c *Client) GetOpenAPI(ctx context.Context, token string) (json.RawMessage, error) {
	return c.request(ctx, http.MethodGet, "openapi.json", token, nil)
}

// CreateBlueprint submits a new blueprint. The payload passes through to
// the API untouched so the caller controls the full CreateBlueprintRequest.
func (c *Client) CreateBlueprint(ctx context.Context, token string, blueprint json.RawMessage) (*BlueprintCreated, error) {
	raw, err := c.request(ctx, http.MethodPost, "blueprints", token, blueprint)
	if err != nil {
		return nil, err
	}

	var created BlueprintCreated
	if err := json.Unmarshal(raw, &created); err != nil {
		return nil, errors.NewInternalError("unexpected blueprint creation response shape", err)
	}
	if created.ID == "" {
		return nil, errors.NewInternalError("blueprint creation response carries no id", nil)
	}
	return &created, nil
}

// ListBlueprints fetches the blueprint collection.
func (c *Client) ListBlueprints(ctx context.Context, token string) ([]BlueprintSummary, error) {
	raw, err := c.request(ctx, http.MethodGet, "blueprints", token, nil)
	if err != nil {
		return nil, err
	}

	var resp blueprintListResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, errors.NewInternalError("unexpected blueprints response shape", err)
	}
	return resp.Data, nil
}

// GetBlueprint fetches one blueprint's full body, verbatim.
func (c *Client) GetBlueprint(ctx context.Context, token, blueprintID string) (json.RawMessage, error) {
	return c.request(ctx, http.MethodGet, "blueprints/"+url.PathEscape(blueprintID), token, nil)
}

// ComposeBlueprint starts builds for every image request in the blueprint.
func (c *Client) ComposeBlueprint(ctx context.Context, token, blueprintID string) ([]ComposeCreated, error) {
	raw, err := c.request(ctx, http.MethodPost, "blueprints/"+url.PathEscape(blueprintID)+"/compose", token, nil)
	if err != nil {
		return nil, err
	}

	var builds []ComposeCreated
	if err := json.Unmarshal(raw, &builds); err != nil {
		return nil, errors.NewInternalError("unexpected compose response shape", err)
	}
	return builds, nil
}

// ListComposes fetches the compose collection.
func (c *Client) ListComposes(ctx context.Context, token string) ([]ComposeSummary, error) {
	raw, err := c.request(ctx, http.MethodGet, "composes", token, nil)
	if err != nil {
		return nil, err
	}

	var resp composeListResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, errors.NewInternalError("unexpected composes response shape", err)
	}
	return resp.Data, nil
}

// GetCompose fetches one compose's full status, verbatim.
func (c *Client) GetCompose(ctx context.Context, token, composeID string) (json.RawMessage, error) {
	return c.request(ctx, http.MethodGet, "composes/"+url.PathEscape(composeID), token, nil)
}

// request is the single door to the API. Every response is classified here:
// 2xx bodies return verbatim, auth rejections and other API errors become
// typed errors carrying the status and the untouched body, and transport
// failures never masquerade as API responses.
func (c *Client) request(ctx context.Context, method, endpoint, token string, payload json.RawMessage) (json.RawMessage, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+endpoint, body)
	if err != nil {
		return nil, errors.NewInternalError("failed to create API request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(clientTagHeader, c.clientTag)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	logger.Debugw("Image Builder API request", "method", method, "endpoint", endpoint)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.NewTransportError(fmt.Sprintf("%s %s failed", method, endpoint), err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return nil, errors.NewTransportError(fmt.Sprintf("failed to read %s response", endpoint), err)
	}

	logger.Debugw("Image Builder API response", "method", method, "endpoint", endpoint,
		"status", resp.StatusCode, "bytes", len(raw))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		return json.RawMessage(raw), nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, errors.NewAuthenticationError(
			fmt.Sprintf("the API rejected the request with status %d", resp.StatusCode), nil).
			WithDetail("status_code", resp.StatusCode).
			WithDetail("body", string(raw))
	default:
		return nil, errors.NewAPIError(resp.StatusCode, string(raw))
	}
}
