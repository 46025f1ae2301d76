// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/osbuild/image-builder-mcp/pkg/logger"
)

const (
	// WellKnownProtectedResourcePath serves RFC 9728 protected resource metadata.
	WellKnownProtectedResourcePath = "/.well-known/oauth-protected-resource"
	// WellKnownAuthorizationServerPath serves RFC 8414 authorization server metadata.
	WellKnownAuthorizationServerPath = "/.well-known/oauth-authorization-server"
	// RegisterPath accepts RFC 7591 dynamic client registration requests.
	RegisterPath = "/oauth/register"

	// discoveryTimeout bounds the upstream metadata fetch.
	discoveryTimeout = 10 * time.Second
)

// scopesSupported advertises the scopes Red Hat SSO accepts for Image
// Builder access.
var scopesSupported = []string{"openid", "api.ocm"}

// DiscoveryConfig configures the OAuth discovery endpoints served next to
// the MCP transport when browser-based clients need to obtain their own
// tokens.
type DiscoveryConfig struct {
	// SelfURL is the externally reachable base URL of this server. It is
	// what gets advertised as the protected resource.
	SelfURL string

	// IssuerURL is the upstream authorization server whose metadata gets
	// proxied. Defaults to the production Red Hat SSO realm.
	IssuerURL string

	// ClientID is the static client identifier handed out to dynamic
	// registration requests. Red Hat SSO does not offer open dynamic
	// registration, so every MCP client shares this pre-provisioned ID.
	ClientID string

	// HTTPClient is the client for upstream metadata fetches. If nil, a
	// client with a bounded timeout is used.
	HTTPClient *http.Client
}

// Discovery serves the OAuth discovery endpoints and gates the MCP transport
// behind a bearer token requirement.
type Discovery struct {
	selfURL   string
	issuerURL string
	clientID  string
	client    *http.Client
}

// NewDiscovery creates a Discovery from the config. ClientID and SelfURL are
// required.
func NewDiscovery(cfg DiscoveryConfig) (*Discovery, error) {
	if cfg.SelfURL == "" {
		return nil, fmt.Errorf("SelfURL is required")
	}
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("ClientID is required")
	}

	issuerURL := cfg.IssuerURL
	if issuerURL == "" {
		issuerURL = DefaultIssuer
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: discoveryTimeout}
	}

	return &Discovery{
		selfURL:   cfg.SelfURL,
		issuerURL: issuerURL,
		clientID:  cfg.ClientID,
		client:    client,
	}, nil
}

// Routes registers the discovery endpoints on the router. Per RFC 9728 these
// must be reachable without authentication.
func (d *Discovery) Routes(r chi.Router) {
	r.Get(WellKnownProtectedResourcePath, d.ProtectedResource)
	r.Get(WellKnownAuthorizationServerPath, d.AuthorizationServer)
	r.Post(RegisterPath, d.Register)
}

// ProtectedResource serves RFC 9728 protected resource metadata. This server
// advertises itself as the authorization server because it proxies the
// issuer's metadata, rewriting the parts Red Hat SSO does not support.
func (d *Discovery) ProtectedResource(w http.ResponseWriter, _ *http.Request) {
	metadata := struct {
		Resource               string   `json:"resource"`
		AuthorizationServers   []string `json:"authorization_servers"`
		BearerMethodsSupported []string `json:"bearer_methods_supported"`
		ScopesSupported        []string `json:"scopes_supported"`
	}{
		Resource:               d.selfURL,
		AuthorizationServers:   []string{d.selfURL},
		BearerMethodsSupported: []string{"header"},
		ScopesSupported:        scopesSupported,
	}

	writeJSON(w, http.StatusOK, metadata)
}

// AuthorizationServer proxies the issuer's RFC 8414 metadata, replacing the
// registration endpoint with this server's own and pinning the supported
// scopes to the ones Image Builder access needs.
func (d *Discovery) AuthorizationServer(w http.ResponseWriter, r *http.Request) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet,
		d.issuerURL+WellKnownAuthorizationServerPath, nil)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to build metadata request")
		return
	}

	resp, err := d.client.Do(req)
	if err != nil {
		logger.Warnf("Failed to fetch authorization server metadata from %s: %v", d.issuerURL, err)
		writeJSONError(w, http.StatusServiceUnavailable, "authorization server metadata unavailable")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Warnf("Authorization server metadata fetch returned status %d", resp.StatusCode)
		writeJSONError(w, http.StatusServiceUnavailable, "authorization server metadata unavailable")
		return
	}

	var metadata map[string]any
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBodySize)).Decode(&metadata); err != nil {
		logger.Warnf("Failed to decode authorization server metadata: %v", err)
		writeJSONError(w, http.StatusServiceUnavailable, "authorization server metadata unavailable")
		return
	}

	metadata["registration_endpoint"] = d.selfURL + RegisterPath
	metadata["scopes_supported"] = scopesSupported

	writeJSON(w, http.StatusOK, metadata)
}

// Register answers RFC 7591 dynamic registration requests with the
// pre-provisioned public client, echoing the redirect URIs the client asked
// for.
func (d *Discovery) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RedirectURIs []string `json:"redirect_uris"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxResponseBodySize)).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid registration request")
		return
	}

	resp := struct {
		ClientID                string   `json:"client_id"`
		RedirectURIs            []string `json:"redirect_uris"`
		TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method"`
	}{
		ClientID:                d.clientID,
		RedirectURIs:            req.RedirectURIs,
		TokenEndpointAuthMethod: "none",
	}

	writeJSON(w, http.StatusCreated, resp)
}

// RequireAuth rejects requests that carry no bearer token, pointing the
// client at the protected resource metadata per RFC 9728 so it can start an
// authorization flow.
//
// The token itself is not validated here: the upstream API rejects bad
// tokens, and validating twice would force this server to track the
// provider's signing keys.
func (d *Discovery) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if bearerFromHeader(r.Header.Get("Authorization")) == "" {
			w.Header().Set("WWW-Authenticate",
				fmt.Sprintf(`Bearer resource_metadata=%q`, d.selfURL+WellKnownProtectedResourcePath))
			writeJSONError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Errorf("Failed to write JSON response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
