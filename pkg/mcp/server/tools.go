// SPDX-License-Identifier: Apache-2.0

package server

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Supported build targets, embedded into tool descriptions so agents can
// prompt users for valid values without a round trip. The hosted API has no
// unauthenticated endpoint to discover these from yet.
var (
	supportedDistributions = []string{
		"centos-9",
		"fedora-37",
		"fedora-38",
		"fedora-39",
		"fedora-40",
		"fedora-41",
		"fedora-42",
		"rhel-10-beta",
		"rhel-10.0",
		"rhel-10",
		"rhel-8.10",
		"rhel-8",
		"rhel-84",
		"rhel-85",
		"rhel-86",
		"rhel-87",
		"rhel-88",
		"rhel-89",
		"rhel-9-beta",
		"rhel-9.6",
		"rhel-9",
		"rhel-90",
		"rhel-91",
		"rhel-92",
		"rhel-93",
		"rhel-94",
		"rhel-95",
	}

	supportedArchitectures = []string{"x86_64", "aarch64"}

	supportedImageTypes = []string{
		"aws",
		"azure",
		"edge-commit",
		"edge-installer",
		"gcp",
		"guest-image",
		"image-installer",
		"oci",
		"vsphere",
		"vsphere-ova",
		"wsl",
		"ami",
		"rhel-edge-commit",
		"rhel-edge-installer",
		"vhd",
	}
)

const getOpenAPIDescription = `Get OpenAPI spec. Use this to get details e.g for a new blueprint

Args:
    response_size: number of items returned (use 7 as default)

Returns:
    The OpenAPI document of the image-builder API

Raises:
    Exception: If the image-builder connection fails.`

const createBlueprintDescription = `Start with this tool if a user wants to create an up to date, or customized linux image.
Assure that the data is according to CreateBlueprintRequest described in openapi.
Always ask the user for more details to be able to fill "data" properly before calling this.
Never come up with the data yourself.
Ask again if there is no username specified if the user wants to use a custom username.
Ask specifically if the user wants to enable registration for RHEL images.
The distribution has to be one of: %s.
The architecture has to be one of: %s.
The image type has to be one of: %s.

Args:
    data: call the tool get_openapi and format the data according to CreateBlueprintRequest

Returns:
    The response from the image-builder API`

const createBlueprintAndComposeDescription = `Create a blueprint and immediately start composing an image from it.
Use this when the user wants a new image built in one go instead of calling
create_blueprint and blueprint_compose separately.
Assure that the data is according to CreateBlueprintRequest described in openapi.
Always ask the user for more details to be able to fill "data" properly before calling this.
Never come up with the data yourself.
The distribution has to be one of: %s.
The architecture has to be one of: %s.
The image type has to be one of: %s.

Args:
    data: call the tool get_openapi and format the data according to CreateBlueprintRequest

Returns:
    The created blueprint UUID and the UUIDs of the started builds`

const getBlueprintsDescription = `Get all blueprints without details.
For "all" set "response_size" to None
This starts a fresh search.
Call get_more_blueprints to get more.

Args:
    response_size: number of items returned (use 7 as default)
    search_string: substring to search for in the name (optional)

Returns:
    List of blueprints

Raises:
    Exception: If the image-builder connection fails.`

const getMoreBlueprintsDescription = `Get more blueprints without details.

Args:
    response_size: number of items returned (use 7 as default)
    search_string: substring to search for in the name (optional)

Returns:
    List of blueprints

Raises:
    Exception: If the image-builder connection fails.`

const getBlueprintDetailsDescription = `Get blueprint details.

Args:
    blueprint_identifier: the UUID, name or reply_id to query

Returns:
    Blueprint details

Raises:
    Exception: If the image-builder connection fails.`

const getComposesDescription = `Get all composes without details.
Use this to get the latest image builds.
For "all" set "response_size" to None
This starts a fresh search.
Call get_more_composes to get more.

Args:
    response_size: number of items returned (use 7 as default)
    search_string: substring to search for in the name (optional)

Returns:
    List of composes

Raises:
    Exception: If the image-builder connection fails.`

const getMoreComposesDescription = `Get more composes without details.

Args:
    response_size: number of items returned (use 7 as default)
    search_string: substring to search for in the name (optional)

Returns:
    List of composes

Raises:
    Exception: If the image-builder connection fails.`

const getComposeDetailsDescription = `Get compose details especially for the status of an image build.

Args:
    compose_identifier: the UUID, name or reply_id to query

Returns:
    Compose details

Raises:
    Exception: If the image-builder connection fails.`

const blueprintComposeDescription = `Compose an image from a blueprint UUID created with create_blueprint, get_blueprints.
If the UUID is not clear, ask the user if we should create a new blueprint with create_blueprint
or use an existing blueprint from get_blueprints.

Args:
    blueprint_uuid: the UUID of the blueprint to compose

Returns:
    The response from the image-builder API`

// toolCatalog assembles every tool the server exposes, bound to the handler.
// The catalog order is the order tools are advertised to clients.
func toolCatalog(h *Handler) []server.ServerTool {
	distributions := strings.Join(supportedDistributions, ", ")
	architectures := strings.Join(supportedArchitectures, ", ")
	imageTypes := strings.Join(supportedImageTypes, ", ")

	responseSizeProperty := map[string]interface{}{
		"type":        "number",
		"description": "number of items returned (use 7 as default)",
	}
	searchStringProperty := map[string]interface{}{
		"type":        "string",
		"description": "substring to search for in the name (optional)",
	}
	blueprintDataProperty := map[string]interface{}{
		"type":        "object",
		"description": "call the tool get_openapi and format the data according to CreateBlueprintRequest",
	}

	listingSchema := mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"response_size": responseSizeProperty,
			"search_string": searchStringProperty,
		},
		Required: []string{"response_size"},
	}
	blueprintDataSchema := mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"data": blueprintDataProperty,
		},
		Required: []string{"data"},
	}

	createDescription := fmt.Sprintf(createBlueprintDescription, distributions, architectures, imageTypes)
	createAndComposeDescription := fmt.Sprintf(createBlueprintAndComposeDescription, distributions, architectures, imageTypes)

	return []server.ServerTool{
		{
			Tool: mcp.Tool{
				Name:        "get_openapi",
				Description: getOpenAPIDescription,
				InputSchema: mcp.ToolInputSchema{
					Type: "object",
					Properties: map[string]interface{}{
						"response_size": responseSizeProperty,
					},
					Required: []string{"response_size"},
				},
				Annotations: annotations(getOpenAPIDescription),
			},
			Handler: h.instrument("get_openapi", h.getOpenAPI),
		},
		{
			Tool: mcp.Tool{
				Name:        "create_blueprint",
				Description: createDescription,
				InputSchema: blueprintDataSchema,
				Annotations: annotations(createDescription),
			},
			Handler: h.instrument("create_blueprint", h.createBlueprint),
		},
		{
			Tool: mcp.Tool{
				Name:        "get_blueprints",
				Description: getBlueprintsDescription,
				InputSchema: listingSchema,
				Annotations: annotations(getBlueprintsDescription),
			},
			Handler: h.instrument("get_blueprints", h.getBlueprints),
		},
		{
			Tool: mcp.Tool{
				Name:        "get_more_blueprints",
				Description: getMoreBlueprintsDescription,
				InputSchema: listingSchema,
				Annotations: annotations(getMoreBlueprintsDescription),
			},
			Handler: h.instrument("get_more_blueprints", h.getMoreBlueprints),
		},
		{
			Tool: mcp.Tool{
				Name:        "get_blueprint_details",
				Description: getBlueprintDetailsDescription,
				InputSchema: mcp.ToolInputSchema{
					Type: "object",
					Properties: map[string]interface{}{
						"blueprint_identifier": map[string]interface{}{
							"type":        "string",
							"description": "the UUID, name or reply_id to query",
						},
					},
					Required: []string{"blueprint_identifier"},
				},
				Annotations: annotations(getBlueprintDetailsDescription),
			},
			Handler: h.instrument("get_blueprint_details", h.getBlueprintDetails),
		},
		{
			Tool: mcp.Tool{
				Name:        "get_composes",
				Description: getComposesDescription,
				InputSchema: listingSchema,
				Annotations: annotations(getComposesDescription),
			},
			Handler: h.instrument("get_composes", h.getComposes),
		},
		{
			Tool: mcp.Tool{
				Name:        "get_more_composes",
				Description: getMoreComposesDescription,
				InputSchema: listingSchema,
				Annotations: annotations(getMoreComposesDescription),
			},
			Handler: h.instrument("get_more_composes", h.getMoreComposes),
		},
		{
			Tool: mcp.Tool{
				Name:        "get_compose_details",
				Description: getComposeDetailsDescription,
				InputSchema: mcp.ToolInputSchema{
					Type: "object",
					Properties: map[string]interface{}{
						"compose_identifier": map[string]interface{}{
							"type":        "string",
							"description": "the UUID, name or reply_id to query",
						},
					},
					Required: []string{"compose_identifier"},
				},
				Annotations: annotations(getComposeDetailsDescription),
			},
			Handler: h.instrument("get_compose_details", h.getComposeDetails),
		},
		{
			Tool: mcp.Tool{
				Name:        "blueprint_compose",
				Description: blueprintComposeDescription,
				InputSchema: mcp.ToolInputSchema{
					Type: "object",
					Properties: map[string]interface{}{
						"blueprint_uuid": map[string]interface{}{
							"type":        "string",
							"description": "the UUID of the blueprint to compose",
						},
					},
					Required: []string{"blueprint_uuid"},
				},
				Annotations: annotations(blueprintComposeDescription),
			},
			Handler: h.instrument("blueprint_compose", h.blueprintCompose),
		},
		{
			Tool: mcp.Tool{
				Name:        "create_blueprint_and_compose",
				Description: createAndComposeDescription,
				InputSchema: blueprintDataSchema,
				Annotations: annotations(createAndComposeDescription),
			},
			Handler: h.instrument("create_blueprint_and_compose", h.createBlueprintAndCompose),
		},
	}
}

// annotations builds the shared tool annotations. The title is the first
// description line, which is what MCP clients render in tool pickers.
func annotations(description string) mcp.ToolAnnotation {
	title, _, _ := strings.Cut(description, "\n")
	return mcp.ToolAnnotation{
		Title:         title,
		ReadOnlyHint:  mcp.ToBoolPtr(true),
		OpenWorldHint: mcp.ToBoolPtr(true),
	}
}
