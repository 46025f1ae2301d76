// SPDX-License-Identifier: Apache-2.0

// Package auth resolves Image Builder credentials and manages the access
// tokens obtained with them.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/osbuild/image-builder-mcp/pkg/errors"
)

// Per-request credential headers. MCP clients that manage credentials on
// behalf of their users attach these to every request.
const (
	// ClientIDHeader carries the service account client ID.
	ClientIDHeader = "image-builder-client-id"
	// ClientSecretHeader carries the service account client secret.
	ClientSecretHeader = "image-builder-client-secret"
)

// Environment fallbacks for deployments where the server owns one service
// account shared by all sessions.
const (
	// ClientIDEnv is the environment fallback for the client ID.
	ClientIDEnv = "IMAGE_BUILDER_CLIENT_ID"
	// ClientSecretEnv is the environment fallback for the client secret.
	ClientSecretEnv = "IMAGE_BUILDER_CLIENT_SECRET"
)

// Red Hat SSO issuers. The token endpoint and the OAuth discovery proxy both
// derive from these.
const (
	// DefaultIssuer is the production Red Hat SSO realm.
	DefaultIssuer = "https://sso.redhat.com/auth/realms/redhat-external"
	// StageIssuer is the stage Red Hat SSO realm.
	StageIssuer = "https://sso.stage.redhat.com/auth/realms/redhat-external"

	// tokenPath is appended to the issuer to form the token endpoint.
	tokenPath = "/protocol/openid-connect/token"
)

// TokenURL returns the OAuth token endpoint for the given issuer.
func TokenURL(issuer string) string {
	return strings.TrimSuffix(issuer, "/") + tokenPath
}

// Credentials is the outcome of credential resolution: either a ready-to-use
// bearer token or a client ID/secret pair that still needs to be exchanged
// for one.
type Credentials struct {
	// BearerToken, when set, is forwarded verbatim as the API bearer and
	// never exchanged or cached.
	BearerToken string

	// ClientID and ClientSecret form a service account pair for the
	// client credentials grant.
	ClientID     string
	ClientSecret string
}

// IsBearer reports whether the credentials are a pass-through bearer token.
func (c *Credentials) IsBearer() bool {
	return c.BearerToken != ""
}

// Fingerprint returns a stable key for the credentials. Hashing keeps the
// raw secret out of map keys, logs, and debugger output.
func (c *Credentials) Fingerprint() string {
	material := c.ClientID + "\x00" + c.ClientSecret
	if c.IsBearer() {
		material = c.BearerToken
	}
	sum := sha256.Sum256([]byte(material))
	return hex.EncodeToString(sum[:])
}

// String returns a representation of the credentials with sensitive values
// redacted. This prevents accidental secret leakage when credentials are
// logged or printed.
func (c *Credentials) String() string {
	if c == nil {
		return "<nil>"
	}
	if c.IsBearer() {
		return "Credentials{BearerToken:" + redactedPlaceholder + "}"
	}
	secret := redactedPlaceholder
	if c.ClientSecret == "" {
		secret = emptyPlaceholder
	}
	return fmt.Sprintf("Credentials{ClientID:%q, ClientSecret:%s}", c.ClientID, secret)
}

// MarshalJSON implements json.Marshaler to redact sensitive fields during
// JSON serialization, for example in structured logs.
func (c *Credentials) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("null"), nil
	}

	type safeCredentials struct {
		BearerToken  string `json:"bearer_token,omitempty"`
		ClientID     string `json:"client_id,omitempty"`
		ClientSecret string `json:"client_secret,omitempty"`
	}

	safe := safeCredentials{ClientID: c.ClientID}
	if c.BearerToken != "" {
		safe.BearerToken = redactedPlaceholder
	}
	if c.ClientSecret != "" {
		safe.ClientSecret = redactedPlaceholder
	}

	return json.Marshal(&safe)
}

// CallCredentials carries the raw credential material attached to a single
// MCP call before resolution: the Authorization bearer token and the client
// ID/secret headers, any of which may be absent.
type CallCredentials struct {
	BearerToken  string
	ClientID     string
	ClientSecret string
}

// String returns a representation of the call credentials with sensitive
// values redacted.
func (c *CallCredentials) String() string {
	if c == nil {
		return "<nil>"
	}
	bearer := emptyPlaceholder
	if c.BearerToken != "" {
		bearer = redactedPlaceholder
	}
	secret := emptyPlaceholder
	if c.ClientSecret != "" {
		secret = redactedPlaceholder
	}
	return fmt.Sprintf("CallCredentials{BearerToken:%s, ClientID:%q, ClientSecret:%s}", bearer, c.ClientID, secret)
}

// Resolver picks the credentials for one call from an ordered list of
// sources. Resolution is pure: no network traffic and no side effects, so a
// failed resolution costs nothing.
type Resolver struct {
	getenv func(string) string
}

// NewResolver creates a Resolver reading fallbacks from the process
// environment.
func NewResolver() *Resolver {
	return &Resolver{getenv: os.Getenv}
}

// NewResolverWithEnv creates a Resolver with an injectable environment
// lookup. This allows tests to supply environment values without mutating
// the real environment.
func NewResolverWithEnv(getenv func(string) string) *Resolver {
	return &Resolver{getenv: getenv}
}

// Resolve returns the first usable credential source for the call:
//
//  1. a bearer token attached to the call itself
//  2. a client ID/secret pair, each member taken from the call headers
//     first and from the environment second
//
// When neither source yields a complete credential, the returned error names
// the first missing member so the caller can tell the user exactly what to
// provide.
func (r *Resolver) Resolve(call CallCredentials) (*Credentials, error) {
	for _, source := range []func(CallCredentials) (*Credentials, error){
		r.bearerToken,
		r.clientPair,
	} {
		creds, err := source(call)
		if err != nil {
			return nil, err
		}
		if creds != nil {
			return creds, nil
		}
	}
	return nil, missingCredential("client_id")
}

// bearerToken resolves a per-call bearer token. It never fails; absence just
// falls through to the next source.
func (*Resolver) bearerToken(call CallCredentials) (*Credentials, error) {
	if call.BearerToken == "" {
		return nil, nil
	}
	return &Credentials{BearerToken: call.BearerToken}, nil
}

// clientPair resolves a client ID/secret pair member by member, preferring
// the call headers over the environment. A pair with only one resolvable
// member is an error, not a fallthrough: silently ignoring half a pair would
// mask configuration mistakes.
func (r *Resolver) clientPair(call CallCredentials) (*Credentials, error) {
	clientID := call.ClientID
	if clientID == "" {
		clientID = r.getenv(ClientIDEnv)
	}
	clientSecret := call.ClientSecret
	if clientSecret == "" {
		clientSecret = r.getenv(ClientSecretEnv)
	}

	if clientID == "" && clientSecret == "" {
		return nil, nil
	}
	if clientID == "" {
		return nil, missingCredential("client_id")
	}
	if clientSecret == "" {
		return nil, missingCredential("client_secret")
	}

	return &Credentials{ClientID: clientID, ClientSecret: clientSecret}, nil
}

func missingCredential(member string) error {
	var header, envVar string
	switch member {
	case "client_id":
		header, envVar = ClientIDHeader, ClientIDEnv
	case "client_secret":
		header, envVar = ClientSecretHeader, ClientSecretEnv
	}
	msg := fmt.Sprintf("no %s found: pass the %s request header or set the %s environment variable",
		member, header, envVar)
	return errors.NewMissingCredentialsError(msg, member)
}
