// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"encoding/json"

	"github.com/osbuild/image-builder-mcp/pkg/auth"
	"github.com/osbuild/image-builder-mcp/pkg/imagebuilder"
)

//go:generate mockgen -destination=mocks/mock_backend.go -package=mocks -source=backend.go Backend,TokenSource

// Backend is the slice of the Image Builder API the tool handlers talk to.
// *imagebuilder.Client satisfies it.
type Backend interface {
	// GetOpenAPI fetches the OpenAPI document. An empty token sends the
	// request without an Authorization header.
	GetOpenAPI(ctx context.Context, token string) (json.RawMessage, error)

	// CreateBlueprint submits a CreateBlueprintRequest payload.
	CreateBlueprint(ctx context.Context, token string, blueprint json.RawMessage) (*imagebuilder.BlueprintCreated, error)

	// ListBlueprints fetches every blueprint summary of the account.
	ListBlueprints(ctx context.Context, token string) ([]imagebuilder.BlueprintSummary, error)

	// GetBlueprint fetches the full details of one blueprint.
	GetBlueprint(ctx context.Context, token, blueprintID string) (json.RawMessage, error)

	// ComposeBlueprint starts image builds for every target of a blueprint.
	ComposeBlueprint(ctx context.Context, token, blueprintID string) ([]imagebuilder.ComposeCreated, error)

	// ListComposes fetches every compose summary of the account.
	ListComposes(ctx context.Context, token string) ([]imagebuilder.ComposeSummary, error)

	// GetCompose fetches the full details of one compose, including the
	// build status and upload results.
	GetCompose(ctx context.Context, token, composeID string) (json.RawMessage, error)

	// BlueprintWizardURL returns the console UI link for a blueprint.
	BlueprintWizardURL(blueprintID string) string
}

// TokenSource hands out access tokens for resolved credentials.
// *auth.TokenCache satisfies it.
type TokenSource interface {
	// AccessToken returns a token ready to attach to an API request.
	AccessToken(ctx context.Context, creds *auth.Credentials) (string, error)

	// Invalidate drops any cached token for the credentials so the next
	// AccessToken call fetches a fresh one.
	Invalidate(creds *auth.Credentials)
}
