// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// CallCredentialsContextKey is the key used to store CallCredentials in the
// request context.
//
// Using an empty struct as the key prevents collisions with other context
// keys, as each empty struct type is distinct even if they have the same name
// in different packages.
type CallCredentialsContextKey struct{}

// WithCallCredentials stores per-call credential material in the context.
// If call is nil, the original context is returned unchanged.
//
// The HTTP and SSE transports call this when a request arrives so tool
// handlers can resolve credentials without ever seeing the raw request.
func WithCallCredentials(ctx context.Context, call *CallCredentials) context.Context {
	if call == nil {
		return ctx
	}
	return context.WithValue(ctx, CallCredentialsContextKey{}, call)
}

// CallCredentialsFromContext retrieves per-call credential material from the
// context. Returns the credentials and true if present, nil and false
// otherwise. Tools served over stdio see no per-call material and fall back
// to the environment.
func CallCredentialsFromContext(ctx context.Context) (*CallCredentials, bool) {
	call, ok := ctx.Value(CallCredentialsContextKey{}).(*CallCredentials)
	return call, ok
}

// FromRequest extracts per-call credential material from the HTTP request
// headers. Nothing is validated here; resolution decides later which source
// wins.
func FromRequest(r *http.Request) *CallCredentials {
	return &CallCredentials{
		BearerToken:  bearerFromHeader(r.Header.Get("Authorization")),
		ClientID:     r.Header.Get(ClientIDHeader),
		ClientSecret: r.Header.Get(ClientSecretHeader),
	}
}

// bearerFromHeader returns the token from an "Authorization: Bearer <token>"
// header value, or "" when the header carries no bearer token.
func bearerFromHeader(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// SessionHint extracts a stable per-conversation identifier from a bearer
// token, preferring the 'sid' claim and falling back to 'sub'. The token is
// decoded without signature verification; the upstream API is the component
// that actually validates it. Returns "" for opaque or malformed tokens.
func SessionHint(bearerToken string) string {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	token, _, err := parser.ParseUnverified(bearerToken, jwt.MapClaims{})
	if err != nil {
		return ""
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}

	if sid, ok := claims["sid"].(string); ok && sid != "" {
		return sid
	}
	if sub, ok := claims["sub"].(string); ok {
		return sub
	}
	return ""
}
