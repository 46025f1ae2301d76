// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/tidwall/gjson"

	"github.com/osbuild/image-builder-mcp/pkg/auth"
	"github.com/osbuild/image-builder-mcp/pkg/errors"
	"github.com/osbuild/image-builder-mcp/pkg/imagebuilder"
	"github.com/osbuild/image-builder-mcp/pkg/logger"
	"github.com/osbuild/image-builder-mcp/pkg/telemetry"
)

// defaultResponseSize caps listing replies when the caller does not ask for
// a specific page size.
const defaultResponseSize = 10

// ociObjectStorageGuide is appended to compose details when the finished
// image sits in Oracle object storage, where a plain download link is not
// enough to get it running.
const ociObjectStorageGuide = `
[INSTRUCTION] Leave the URL as code block so the user can copy and paste it.

To run the image copy the link below and follow the steps below:

   * Go to "Compute" in Oracle Cloud and choose "Custom Images".
   * Click on "Import image", choose "Import from an object storage URL".
   * Choose "Import from an object storage URL" and paste the URL in the "Object Storage URL" field. The image type has to be set to QCOW2 and the launch mode should be paravirtualized.

` + "```\n%s\n```\n"

// Handler implements the MCP tools on top of the Image Builder API. One
// Handler serves every session; per-caller state lives in the session index.
type Handler struct {
	api       Backend
	resolver  *auth.Resolver
	tokens    TokenSource
	sessions  *sessionIndex
	metrics   *telemetry.Metrics
	transport string

	// defaultResponseSize overrides the package default when positive.
	defaultResponseSize int
}

// listingArgs are the arguments shared by the listing tools.
type listingArgs struct {
	ResponseSize int    `json:"response_size"`
	SearchString string `json:"search_string"`
}

// blueprintDataArgs carry a CreateBlueprintRequest payload.
type blueprintDataArgs struct {
	Data map[string]any `json:"data"`
}

// toolError is the machine-readable error block of a failed tool call.
type toolError struct {
	Kind    string         `json:"kind"`
	Message string         `json:"message"`
	Detail  map[string]any `json:"detail,omitempty"`
}

// toolFailure is the reply envelope for failed tool calls.
type toolFailure struct {
	Success bool      `json:"success"`
	Error   toolError `json:"error"`
}

// toolFunc is a tool implementation: it returns the reply text for the
// agent, or an error that instrument converts into a failure envelope.
type toolFunc func(ctx context.Context, request mcp.CallToolRequest) (string, error)

// instrument adapts a tool implementation to the MCP handler signature,
// recording one tool_calls sample per invocation. Failures become results
// with IsError set, never Go errors: a returned error would surface as a
// protocol fault instead of something the agent can read and relay.
func (h *Handler) instrument(tool string, fn toolFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := fn(ctx, request)
		if err != nil {
			h.metrics.RecordToolCall(ctx, tool, errorKind(err))
			logger.Debugw("Tool call failed", "tool", tool, "error", err)
			return h.errorResult(err), nil
		}
		h.metrics.RecordToolCall(ctx, tool, telemetry.OutcomeSuccess)
		return mcp.NewToolResultText(text), nil
	}
}

// errorKind maps an error to the outcome label recorded for it.
func errorKind(err error) string {
	if typed, ok := errors.AsError(err); ok {
		return typed.Type
	}
	return errors.ErrInternal
}

// errorResult renders an error as the failure envelope, carried both as
// structured content and as JSON text for clients that only read text.
func (h *Handler) errorResult(err error) *mcp.CallToolResult {
	typed, ok := errors.AsError(err)
	if !ok {
		typed = errors.NewInternalError(err.Error(), err)
	}

	message := typed.Message
	if errors.IsMissingCredentials(typed) {
		message = h.setupGuidance(typed)
	}

	failure := toolFailure{
		Success: false,
		Error: toolError{
			Kind:    typed.Type,
			Message: message,
			Detail:  typed.Detail,
		},
	}

	text, merr := json.Marshal(failure)
	if merr != nil {
		return mcp.NewToolResultError(message)
	}
	result := mcp.NewToolResultStructured(failure, string(text))
	result.IsError = true
	return result
}

// setupGuidance turns a missing-credentials failure into the instruction
// block agents relay to the user, naming the configuration surface that
// matches the transport: request headers for the network transports, the
// mcp.json environment for stdio.
func (h *Handler) setupGuidance(cause error) string {
	const base = "[INSTRUCTION] Tell the user that the MCP server setup is not valid! " +
		"The user should go to [https://console.redhat.com](https://console.redhat.com) to " +
		"'YOUR USER' ➡ My User Access ➡ Service Accounts create a service account and then set the "
	const tail = "Here is the direct link for the user's convenience: " +
		"[https://console.redhat.com/iam/service-accounts](https://console.redhat.com/iam/service-accounts) " +
		"Come up with a detailed description of this for the user. " +
		"Only describe this, don't expose details about the tool function itself. " +
		"Don't proceed with the request before this is fixed. Error: %v."

	if h.transport == TransportSSE || h.transport == TransportHTTP {
		return base + "header variables `image-builder-client-id` and `image-builder-client-secret` in your request.\n" +
			fmt.Sprintf(tail, cause)
	}
	return base + "`IMAGE_BUILDER_CLIENT_ID` and `IMAGE_BUILDER_CLIENT_SECRET` in your mcp.json config.\n" +
		fmt.Sprintf(tail, cause)
}

// credentials resolves the credentials for the current call from whatever
// the transport attached to the context, falling back to the environment.
func (h *Handler) credentials(ctx context.Context) (*auth.Credentials, error) {
	call, _ := auth.CallCredentialsFromContext(ctx)
	if call == nil {
		call = &auth.CallCredentials{}
	}
	return h.resolver.Resolve(*call)
}

// withToken runs one API call with an access token for the credentials.
// When the API answers 401 for a client ID/secret pair, the cached token may
// have been revoked mid-lifetime: the token is invalidated and the call
// retried exactly once with a fresh one. Bearer tokens are the caller's to
// refresh, and a 403 means the account lacks access, so neither retries.
func (h *Handler) withToken(ctx context.Context, creds *auth.Credentials, call func(token string) error) error {
	token, err := h.tokens.AccessToken(ctx, creds)
	if err != nil {
		return err
	}

	err = call(token)
	if err == nil || creds.IsBearer() {
		return err
	}
	typed, ok := errors.AsError(err)
	if !ok || typed.Type != errors.ErrAuthentication || typed.StatusCode() != http.StatusUnauthorized {
		return err
	}

	logger.Debugw("API rejected access token, retrying with a fresh one", "status", typed.StatusCode())
	h.tokens.Invalidate(creds)
	token, err = h.tokens.AccessToken(ctx, creds)
	if err != nil {
		return err
	}
	return call(token)
}

// pageSize normalizes a requested listing size, falling back to the default
// for zero and negative values.
func (h *Handler) pageSize(requested int) int {
	if requested > 0 {
		return requested
	}
	if h.defaultResponseSize > 0 {
		return h.defaultResponseSize
	}
	return defaultResponseSize
}

// normalizeSearch drops the literal string "null", which some models pass
// for an omitted search.
func normalizeSearch(search string) string {
	if search == "null" {
		return ""
	}
	return search
}

// matchesSearch reports whether the value contains the search substring,
// case-insensitively. An empty search matches everything.
func matchesSearch(value, search string) bool {
	if search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(search))
}

// pageFraming tells the agent whether a fresh listing was truncated.
func pageFraming(returned, total int) string {
	if total > returned {
		return fmt.Sprintf("Only %d out of %d returned. Ask for more if needed:", returned, total)
	}
	return fmt.Sprintf("All %d entries. There are no more.", returned)
}

// moreFraming tells the agent whether another page is worth asking for.
// eligible counts the search-matching rows of the whole snapshot.
func moreFraming(returned, eligible int, hasMore bool) string {
	if hasMore {
		return fmt.Sprintf("Only %d out of %d returned. Ask for more if needed:", returned, eligible)
	}
	return fmt.Sprintf("All %d entries. There are no more.", returned)
}

// getOpenAPI serves the API's OpenAPI document verbatim. The endpoint is
// public on the hosted service, so the first attempt goes out without
// credentials; deployments that gate it get one authenticated retry.
func (h *Handler) getOpenAPI(ctx context.Context, _ mcp.CallToolRequest) (string, error) {
	// response_size is accepted for agent-framework compatibility and ignored.
	raw, err := h.api.GetOpenAPI(ctx, "")
	if err == nil {
		return string(raw), nil
	}
	if !errors.IsAuthentication(err) {
		return "", err
	}

	creds, cerr := h.credentials(ctx)
	if cerr != nil {
		return "", cerr
	}
	err = h.withToken(ctx, creds, func(token string) error {
		var gerr error
		raw, gerr = h.api.GetOpenAPI(ctx, token)
		return gerr
	})
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// validateBlueprintData rejects payloads the API would refuse anyway, before
// any token or API traffic happens.
func validateBlueprintData(data map[string]any) error {
	if len(data) == 0 {
		return errors.NewValidationError("data", "a CreateBlueprintRequest object is required")
	}
	if name, _ := data["name"].(string); name == "" {
		return errors.NewValidationError("data.name", "a blueprint name is required")
	}
	if distribution, _ := data["distribution"].(string); distribution == "" {
		return errors.NewValidationError("data.distribution", "a distribution is required")
	}
	if requests, ok := data["image_requests"].([]any); !ok || len(requests) == 0 {
		return errors.NewValidationError("data.image_requests", "at least one image request is required")
	}
	return nil
}

func (h *Handler) createBlueprint(ctx context.Context, request mcp.CallToolRequest) (string, error) {
	var args blueprintDataArgs
	if err := request.BindArguments(&args); err != nil {
		return "", errors.NewValidationError("arguments", err.Error())
	}
	creds, err := h.credentials(ctx)
	if err != nil {
		return "", err
	}
	if err := validateBlueprintData(args.Data); err != nil {
		return "", err
	}

	created, err := h.submitBlueprint(ctx, creds, args.Data)
	if err != nil {
		return "", err
	}
	return createBlueprintReply(created.ID, h.api.BlueprintWizardURL(created.ID)), nil
}

// submitBlueprint marshals and posts one blueprint.
func (h *Handler) submitBlueprint(ctx context.Context, creds *auth.Credentials, data map[string]any) (*imagebuilder.BlueprintCreated, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, errors.NewValidationError("data", "not serializable as JSON")
	}

	var created *imagebuilder.BlueprintCreated
	err = h.withToken(ctx, creds, func(token string) error {
		var cerr error
		created, cerr = h.api.CreateBlueprint(ctx, token, payload)
		return cerr
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func createBlueprintReply(blueprintID, wizardURL string) string {
	var b strings.Builder
	b.WriteString("[INSTRUCTION] Use the tool get_blueprint_details to get the details of the blueprint\n")
	b.WriteString("or ask the user to start the build/compose with blueprint_compose\n")
	fmt.Fprintf(&b, "Always show a link to the blueprint UI: %s\n", wizardURL)
	fmt.Fprintf(&b, "[ANSWER] Blueprint created successfully: {'UUID': '%s'}\n", blueprintID)
	b.WriteString("We could double check the details or start the build/compose")
	return b.String()
}

func (h *Handler) blueprintCompose(ctx context.Context, request mcp.CallToolRequest) (string, error) {
	var args struct {
		BlueprintUUID string `json:"blueprint_uuid"`
	}
	if err := request.BindArguments(&args); err != nil {
		return "", errors.NewValidationError("arguments", err.Error())
	}
	creds, err := h.credentials(ctx)
	if err != nil {
		return "", err
	}
	if args.BlueprintUUID == "" {
		return "", errors.NewValidationError("blueprint_uuid", "a blueprint UUID is required")
	}
	if uuid.Validate(args.BlueprintUUID) != nil {
		return "", errors.NewValidationError("blueprint_uuid", "not a valid UUID")
	}

	var builds []imagebuilder.ComposeCreated
	err = h.withToken(ctx, creds, func(token string) error {
		var cerr error
		builds, cerr = h.api.ComposeBlueprint(ctx, token, args.BlueprintUUID)
		return cerr
	})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("[INSTRUCTION] Use the tool get_compose_details to get the details of the compose\n")
	b.WriteString("like the current build status\n")
	b.WriteString("[ANSWER] Compose created successfully:")
	fmt.Fprintf(&b, "\n%s", mustJSON(buildIDStrings(builds)))
	b.WriteString("\nWe could double check the details or start the build/compose")
	return b.String(), nil
}

func (h *Handler) createBlueprintAndCompose(ctx context.Context, request mcp.CallToolRequest) (string, error) {
	var args blueprintDataArgs
	if err := request.BindArguments(&args); err != nil {
		return "", errors.NewValidationError("arguments", err.Error())
	}
	creds, err := h.credentials(ctx)
	if err != nil {
		return "", err
	}
	if err := validateBlueprintData(args.Data); err != nil {
		return "", err
	}

	created, err := h.submitBlueprint(ctx, creds, args.Data)
	if err != nil {
		return "", err
	}
	wizardURL := h.api.BlueprintWizardURL(created.ID)

	// The compose is a separate API call with its own retry budget. When it
	// fails the blueprint still exists, so the error hands the agent
	// everything needed to retry the compose alone.
	var builds []imagebuilder.ComposeCreated
	err = h.withToken(ctx, creds, func(token string) error {
		var cerr error
		builds, cerr = h.api.ComposeBlueprint(ctx, token, created.ID)
		return cerr
	})
	if err != nil {
		typed, ok := errors.AsError(err)
		if !ok {
			typed = errors.NewInternalError(err.Error(), err)
		}
		return "", typed.
			WithDetail("completed_step", "create_blueprint").
			WithDetail("failed_step", "blueprint_compose").
			WithDetail("blueprint_uuid", created.ID).
			WithDetail("blueprint_url", wizardURL)
	}

	var b strings.Builder
	b.WriteString("[INSTRUCTION] Use the tool get_compose_details to get the details of the compose\n")
	b.WriteString("like the current build status\n")
	fmt.Fprintf(&b, "Always show a link to the blueprint UI: %s\n", wizardURL)
	fmt.Fprintf(&b, "[ANSWER] Blueprint created successfully: {'UUID': '%s'}\n", created.ID)
	b.WriteString("Compose created successfully:")
	fmt.Fprintf(&b, "\n%s", mustJSON(buildIDStrings(builds)))
	b.WriteString("\nWe could double check the details or the build status")
	return b.String(), nil
}

// buildIDStrings renders the builds started by a compose call the way the
// reply embeds them.
func buildIDStrings(builds []imagebuilder.ComposeCreated) []string {
	ids := make([]string, 0, len(builds))
	for _, build := range builds {
		if build.ID == "" {
			ids = append(ids, "Invalid build object: missing id")
			continue
		}
		ids = append(ids, "UUID: "+build.ID)
	}
	return ids
}

func (h *Handler) getBlueprints(ctx context.Context, request mcp.CallToolRequest) (string, error) {
	var args listingArgs
	if err := request.BindArguments(&args); err != nil {
		return "", errors.NewValidationError("arguments", err.Error())
	}
	creds, err := h.credentials(ctx)
	if err != nil {
		return "", err
	}

	size := h.pageSize(args.ResponseSize)
	search := normalizeSearch(args.SearchString)

	page, total, err := h.refreshBlueprints(ctx, creds, size, search)
	if err != nil {
		return "", err
	}

	intro := "[INSTRUCTION] Use the UI_URL to link to the blueprint\n[ANSWER]\n"
	intro += pageFraming(len(page), total)
	return intro + "\n" + mustJSON(page), nil
}

// refreshBlueprints fetches the full blueprint listing, rebuilds the
// caller's snapshot and returns the first page of search matches along with
// the snapshot size.
func (h *Handler) refreshBlueprints(ctx context.Context, creds *auth.Credentials, size int, search string) ([]blueprintRow, int, error) {
	var summaries []imagebuilder.BlueprintSummary
	err := h.withToken(ctx, creds, func(token string) error {
		var cerr error
		summaries, cerr = h.api.ListBlueprints(ctx, token)
		return cerr
	})
	if err != nil {
		return nil, 0, err
	}

	// Newest first. The timestamps are RFC 3339, so the string order is the
	// time order.
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].LastModifiedAt > summaries[j].LastModifiedAt
	})

	rows := make([]blueprintRow, 0, len(summaries))
	for i, summary := range summaries {
		rows = append(rows, blueprintRow{
			ReplyID:       i + 1,
			BlueprintUUID: summary.ID,
			UIURL:         h.api.BlueprintWizardURL(summary.ID),
			Name:          summary.Name,
		})
	}

	page := make([]blueprintRow, 0, size)
	next := len(rows) + 1
	for _, row := range rows {
		if !matchesSearch(row.Name, search) {
			continue
		}
		page = append(page, row)
		if len(page) == size {
			next = row.ReplyID + 1
			break
		}
	}

	h.sessions.SetBlueprints(sessionKey(creds), rows, next)
	return page, len(rows), nil
}

func (h *Handler) getMoreBlueprints(ctx context.Context, request mcp.CallToolRequest) (string, error) {
	var args listingArgs
	if err := request.BindArguments(&args); err != nil {
		return "", errors.NewValidationError("arguments", err.Error())
	}
	creds, err := h.credentials(ctx)
	if err != nil {
		return "", err
	}

	size := h.pageSize(args.ResponseSize)
	search := normalizeSearch(args.SearchString)
	key := sessionKey(creds)

	rows, next := h.sessions.Blueprints(key)
	if len(rows) == 0 {
		if _, _, err := h.refreshBlueprints(ctx, creds, size, search); err != nil {
			return "", err
		}
		rows, next = h.sessions.Blueprints(key)
	}
	if next > len(rows) {
		return "There are no more blueprints. Should I start a fresh search with get_blueprints?", nil
	}

	page := make([]blueprintRow, 0, size)
	newNext := len(rows) + 1
	for _, row := range rows[next-1:] {
		if !matchesSearch(row.Name, search) {
			continue
		}
		page = append(page, row)
		if len(page) == size {
			newNext = row.ReplyID + 1
			break
		}
	}
	h.sessions.AdvanceBlueprints(key, newNext)

	eligible, remaining := 0, 0
	for _, row := range rows {
		if !matchesSearch(row.Name, search) {
			continue
		}
		eligible++
		if row.ReplyID >= newNext {
			remaining++
		}
	}

	intro := moreFraming(len(page), eligible, remaining > 0)
	return intro + "\n" + mustJSON(page), nil
}

func (h *Handler) getBlueprintDetails(ctx context.Context, request mcp.CallToolRequest) (string, error) {
	var args struct {
		BlueprintIdentifier string `json:"blueprint_identifier"`
	}
	if err := request.BindArguments(&args); err != nil {
		return "", errors.NewValidationError("arguments", err.Error())
	}
	if args.BlueprintIdentifier == "" {
		return "", errors.NewValidationError("blueprint_identifier", "a blueprint identifier is required")
	}
	creds, err := h.credentials(ctx)
	if err != nil {
		return "", err
	}

	key := sessionKey(creds)
	rows, _ := h.sessions.Blueprints(key)
	if len(rows) == 0 {
		// One row is enough: the refresh snapshots the whole listing.
		if _, _, err := h.refreshBlueprints(ctx, creds, 1, ""); err != nil {
			return "", err
		}
		rows, _ = h.sessions.Blueprints(key)
	}

	identifier := args.BlueprintIdentifier
	matches := make([]blueprintRow, 0, 1)
	for _, row := range rows {
		if row.Name == identifier || row.BlueprintUUID == identifier || strconv.Itoa(row.ReplyID) == identifier {
			matches = append(matches, row)
		}
	}
	// A well-formed UUID the snapshot does not know about is still worth a
	// direct lookup; the blueprint may be newer than the snapshot.
	if len(matches) == 0 && uuid.Validate(identifier) == nil {
		matches = append(matches, blueprintRow{BlueprintUUID: identifier})
	}

	details := make([]json.RawMessage, 0, len(matches))
	for _, match := range matches {
		var raw json.RawMessage
		err := h.withToken(ctx, creds, func(token string) error {
			var cerr error
			raw, cerr = h.api.GetBlueprint(ctx, token, match.BlueprintUUID)
			return cerr
		})
		if err != nil {
			return "", err
		}
		if gjson.ParseBytes(raw).IsArray() {
			raw = mustJSONBytes(struct {
				Error string          `json:"error"`
				Data  json.RawMessage `json:"data"`
			}{Error: "Unexpected list response", Data: raw})
		}
		details = append(details, raw)
	}

	intro := ""
	switch {
	case len(matches) == 0:
		intro = fmt.Sprintf("No blueprint found for '%s'.\n", identifier)
	case len(matches) > 1:
		intro = fmt.Sprintf("Found %d blueprints for '%s'.\n", len(details), identifier)
	}
	return intro + mustJSON(details), nil
}

func (h *Handler) getComposes(ctx context.Context, request mcp.CallToolRequest) (string, error) {
	var args listingArgs
	if err := request.BindArguments(&args); err != nil {
		return "", errors.NewValidationError("arguments", err.Error())
	}
	creds, err := h.credentials(ctx)
	if err != nil {
		return "", err
	}

	size := h.pageSize(args.ResponseSize)
	search := normalizeSearch(args.SearchString)

	page, total, err := h.refreshComposes(ctx, creds, size, search)
	if err != nil {
		return "", err
	}

	intro := "[INSTRUCTION] Present a bulleted list and use the blueprint_url to link to the " +
		"blueprint which created this compose\n"
	intro += pageFraming(len(page), total)
	return intro + "\n" + mustJSON(page), nil
}

// refreshComposes fetches the full compose listing, rebuilds the caller's
// snapshot and returns the first page of search matches along with the
// snapshot size.
func (h *Handler) refreshComposes(ctx context.Context, creds *auth.Credentials, size int, search string) ([]composeRow, int, error) {
	var summaries []imagebuilder.ComposeSummary
	err := h.withToken(ctx, creds, func(token string) error {
		var cerr error
		summaries, cerr = h.api.ListComposes(ctx, token)
		return cerr
	})
	if err != nil {
		return nil, 0, err
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt > summaries[j].CreatedAt
	})

	rows := make([]composeRow, 0, len(summaries))
	for i, summary := range summaries {
		row := composeRow{
			ReplyID:      i + 1,
			ComposeUUID:  summary.ID,
			BlueprintID:  "N/A",
			ImageName:    summary.ImageName,
			BlueprintURL: "N/A",
		}
		if summary.BlueprintID != "" {
			row.BlueprintID = summary.BlueprintID
			row.BlueprintURL = h.api.BlueprintWizardURL(summary.BlueprintID)
		}
		rows = append(rows, row)
	}

	page := make([]composeRow, 0, size)
	next := len(rows) + 1
	for _, row := range rows {
		if !matchesSearch(row.ImageName, search) {
			continue
		}
		page = append(page, row)
		if len(page) == size {
			next = row.ReplyID + 1
			break
		}
	}

	h.sessions.SetComposes(sessionKey(creds), rows, next)
	return page, len(rows), nil
}

func (h *Handler) getMoreComposes(ctx context.Context, request mcp.CallToolRequest) (string, error) {
	var args listingArgs
	if err := request.BindArguments(&args); err != nil {
		return "", errors.NewValidationError("arguments", err.Error())
	}
	creds, err := h.credentials(ctx)
	if err != nil {
		return "", err
	}

	size := h.pageSize(args.ResponseSize)
	search := normalizeSearch(args.SearchString)
	key := sessionKey(creds)

	rows, next := h.sessions.Composes(key)
	if len(rows) == 0 {
		if _, _, err := h.refreshComposes(ctx, creds, size, search); err != nil {
			return "", err
		}
		rows, next = h.sessions.Composes(key)
	}
	if next > len(rows) {
		return "There are no more composes. Should I start a fresh search?", nil
	}

	page := make([]composeRow, 0, size)
	newNext := len(rows) + 1
	for _, row := range rows[next-1:] {
		if !matchesSearch(row.ImageName, search) {
			continue
		}
		page = append(page, row)
		if len(page) == size {
			newNext = row.ReplyID + 1
			break
		}
	}
	h.sessions.AdvanceComposes(key, newNext)

	eligible, remaining := 0, 0
	for _, row := range rows {
		if !matchesSearch(row.ImageName, search) {
			continue
		}
		eligible++
		if row.ReplyID >= newNext {
			remaining++
		}
	}

	intro := moreFraming(len(page), eligible, remaining > 0)
	return intro + "\n" + mustJSON(page), nil
}

func (h *Handler) getComposeDetails(ctx context.Context, request mcp.CallToolRequest) (string, error) {
	var args struct {
		ComposeIdentifier string `json:"compose_identifier"`
	}
	if err := request.BindArguments(&args); err != nil {
		return "", errors.NewValidationError("arguments", err.Error())
	}
	if args.ComposeIdentifier == "" {
		return "", errors.NewValidationError("compose_identifier", "a compose UUID is required")
	}
	creds, err := h.credentials(ctx)
	if err != nil {
		return "", err
	}

	key := sessionKey(creds)
	rows, _ := h.sessions.Composes(key)
	if len(rows) == 0 {
		if _, _, err := h.refreshComposes(ctx, creds, h.pageSize(0), ""); err != nil {
			return "", err
		}
		rows, _ = h.sessions.Composes(key)
	}

	identifier := args.ComposeIdentifier
	matches := make([]composeRow, 0, 1)
	for _, row := range rows {
		if row.ImageName == identifier || row.ComposeUUID == identifier || strconv.Itoa(row.ReplyID) == identifier {
			matches = append(matches, row)
		}
	}
	if len(matches) == 0 && uuid.Validate(identifier) == nil {
		matches = append(matches, composeRow{ComposeUUID: identifier})
	}

	details := make([]map[string]any, 0, len(matches))
	var guides strings.Builder
	for _, match := range matches {
		var raw json.RawMessage
		err := h.withToken(ctx, creds, func(token string) error {
			var cerr error
			raw, cerr = h.api.GetCompose(ctx, token, match.ComposeUUID)
			return cerr
		})
		if err != nil {
			return "", err
		}

		var detail map[string]any
		if err := json.Unmarshal(raw, &detail); err != nil {
			logger.Errorf("Unexpected compose details shape for %s: %v", match.ComposeUUID, err)
			continue
		}
		detail["compose_uuid"] = match.ComposeUUID
		details = append(details, detail)

		downloadURL := gjson.GetBytes(raw, "image_status.upload_status.options.url").String()
		uploadTarget := gjson.GetBytes(raw, "image_status.upload_status.type").String()
		switch {
		case downloadURL != "" && uploadTarget == "oci.objectstorage":
			fmt.Fprintf(&guides, ociObjectStorageGuide, downloadURL)
		case downloadURL != "":
			fmt.Fprintf(&guides, "The image is available at [%s](%s)\n", downloadURL, downloadURL)
			guides.WriteString("Always present this link to the user\n")
		}
	}

	intro := ""
	switch {
	case len(matches) == 0:
		intro = fmt.Sprintf("No compose found for '%s'.\n", identifier)
	case len(matches) > 1:
		intro = fmt.Sprintf("Found %d composes for '%s'.\n", len(details), identifier)
	}
	return intro + guides.String() + mustJSON(details), nil
}

// mustJSON marshals values assembled by the handlers themselves, which are
// always marshalable.
func mustJSON(v any) string {
	return string(mustJSONBytes(v))
}

func mustJSONBytes(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Errorf("Failed to marshal tool reply: %v", err)
		return []byte("[]")
	}
	return data
}
