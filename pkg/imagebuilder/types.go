// SPDX-License-Identifier: Apache-2.0

package imagebuilder

// BlueprintSummary carries the blueprint collection fields the tools work
// with. The full blueprint body stays on the details endpoint.
type BlueprintSummary struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	LastModifiedAt string `json:"last_modified_at"`
}

// ComposeSummary carries the compose collection fields the tools work with.
type ComposeSummary struct {
	ID          string `json:"id"`
	BlueprintID string `json:"blueprint_id"`
	ImageName   string `json:"image_name"`
	CreatedAt   string `json:"created_at"`
}

// BlueprintCreated is the response to a blueprint creation.
type BlueprintCreated struct {
	ID string `json:"id"`
}

// ComposeCreated is one build started from a blueprint. Composing a
// blueprint starts one build per image request, so the endpoint answers
// with a list of these.
type ComposeCreated struct {
	ID string `json:"id"`
}

// blueprintListResponse is the envelope of GET /blueprints.
type blueprintListResponse struct {
	Data []BlueprintSummary `json:"data"`
}

// composeListResponse is the envelope of GET /composes.
type composeListResponse struct {
	Data []ComposeSummary `json:"data"`
}
