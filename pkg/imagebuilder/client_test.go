// SPDX-License-Identifier: Apache-2.0

package imagebuilder

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osbuild/image-builder-mcp/pkg/errors"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := New(Config{BaseURL: baseURL})
	require.NoError(t, err)
	return client
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("production defaults", func(t *testing.T) {
		t.Parallel()
		client, err := New(Config{})
		require.NoError(t, err)
		assert.Equal(t, ProdDomain, client.Domain())
		assert.Equal(t,
			"https://console.redhat.com/insights/image-builder/imagewizard/bp-123",
			client.BlueprintWizardURL("bp-123"))
	})

	t.Run("stage domain", func(t *testing.T) {
		t.Parallel()
		client, err := New(Config{Stage: true, ProxyURL: "http://squid.corp.redhat.com:3128"})
		require.NoError(t, err)
		assert.Equal(t, StageDomain, client.Domain())
		assert.Contains(t, client.BlueprintWizardURL("bp-123"), "console.stage.redhat.com")
	})

	t.Run("invalid proxy URL", func(t *testing.T) {
		t.Parallel()
		_, err := New(Config{Stage: true, ProxyURL: "http://bad url with spaces"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "proxy")
	})
}

func TestClient_RequestHeaders(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "mcp", r.Header.Get("X-ImageBuilder-ui"))
		assert.Equal(t, "Bearer my-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).ListBlueprints(context.Background(), "my-token")
	require.NoError(t, err)
}

func TestGetOpenAPI_Verbatim(t *testing.T) {
	t.Parallel()

	// Deliberately quirky formatting: the document must come back byte for
	// byte, not re-encoded.
	const doc = "{\n  \"openapi\":\"3.0.1\" ,\"info\": {\"title\":\"Image Builder\"}}"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/openapi.json", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"), "the OpenAPI endpoint is public")
		_, _ = w.Write([]byte(doc))
	}))
	defer server.Close()

	raw, err := newTestClient(t, server.URL).GetOpenAPI(context.Background(), "")

	require.NoError(t, err)
	assert.Equal(t, doc, string(raw))
}

func TestCreateBlueprint(t *testing.T) {
	t.Parallel()

	payload := json.RawMessage(`{"name":"web server","distribution":"rhel-9","image_requests":[{"architecture":"x86_64"}]}`)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/blueprints", r.URL.Path)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, string(payload), string(body))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"bp-123"}`))
	}))
	defer server.Close()

	created, err := newTestClient(t, server.URL).CreateBlueprint(context.Background(), "tok", payload)

	require.NoError(t, err)
	assert.Equal(t, "bp-123", created.ID)
}

func TestCreateBlueprint_ResponseWithoutID(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"unexpected":"shape"}`))
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).CreateBlueprint(context.Background(), "tok", json.RawMessage(`{}`))

	require.Error(t, err)
	assert.True(t, errors.IsInternal(err))
}

func TestListBlueprints(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/blueprints", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"meta": {"count": 2},
			"data": [
				{"id":"bp-1","name":"older","last_modified_at":"2025-01-01T00:00:00Z"},
				{"id":"bp-2","name":"newer","last_modified_at":"2025-02-01T00:00:00Z"}
			]
		}`))
	}))
	defer server.Close()

	blueprints, err := newTestClient(t, server.URL).ListBlueprints(context.Background(), "tok")

	require.NoError(t, err)
	require.Len(t, blueprints, 2)
	assert.Equal(t, BlueprintSummary{ID: "bp-1", Name: "older", LastModifiedAt: "2025-01-01T00:00:00Z"}, blueprints[0])
}

func TestListBlueprints_UnexpectedShape(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"bp-1"}]`))
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).ListBlueprints(context.Background(), "tok")

	require.Error(t, err)
	assert.True(t, errors.IsInternal(err), "a bare array is not the documented envelope")
}

func TestComposeBlueprint(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/blueprints/bp-123/compose", r.URL.Path)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Empty(t, body, "composing sends no payload")

		_, _ = w.Write([]byte(`[{"id":"compose-1"},{"id":"compose-2"}]`))
	}))
	defer server.Close()

	builds, err := newTestClient(t, server.URL).ComposeBlueprint(context.Background(), "tok", "bp-123")

	require.NoError(t, err)
	assert.Equal(t, []ComposeCreated{{ID: "compose-1"}, {ID: "compose-2"}}, builds)
}

func TestListComposes(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/composes", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"data": [
				{"id":"c-1","blueprint_id":"bp-1","image_name":"web","created_at":"2025-03-01T00:00:00Z"},
				{"id":"c-2","image_name":"db","created_at":"2025-03-02T00:00:00Z"}
			]
		}`))
	}))
	defer server.Close()

	composes, err := newTestClient(t, server.URL).ListComposes(context.Background(), "tok")

	require.NoError(t, err)
	require.Len(t, composes, 2)
	assert.Equal(t, "bp-1", composes[0].BlueprintID)
	assert.Empty(t, composes[1].BlueprintID, "composes without a blueprint are normal")
}

func TestGetCompose_Verbatim(t *testing.T) {
	t.Parallel()

	const body = `{"image_status":{"status":"success","upload_status":{"type":"aws.s3","options":{"url":"https://example.com/disk.qcow2"}}},"request":{"distribution":"rhel-9"}}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/composes/c-1", r.URL.Path)
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	raw, err := newTestClient(t, server.URL).GetCompose(context.Background(), "tok", "c-1")

	require.NoError(t, err)
	assert.Equal(t, body, string(raw))
}

func TestClient_StatusMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "401 becomes an authentication error",
			status: http.StatusUnauthorized,
			body:   `{"errors":[{"title":"invalid token"}]}`,
			check: func(t *testing.T, err error) {
				assert.True(t, errors.IsAuthentication(err), "got %v", err)
				typed, ok := errors.AsError(err)
				require.True(t, ok)
				assert.Equal(t, 401, typed.StatusCode())
				assert.Equal(t, `{"errors":[{"title":"invalid token"}]}`, typed.Detail["body"])
			},
		},
		{
			name:   "403 becomes an authentication error",
			status: http.StatusForbidden,
			body:   "forbidden",
			check: func(t *testing.T, err error) {
				assert.True(t, errors.IsAuthentication(err), "got %v", err)
			},
		},
		{
			name:   "404 becomes an API error with the body untouched",
			status: http.StatusNotFound,
			body:   `{"errors":[{"title":"blueprint not found"}]}`,
			check: func(t *testing.T, err error) {
				assert.True(t, errors.IsAPI(err), "got %v", err)
				typed, ok := errors.AsError(err)
				require.True(t, ok)
				assert.Equal(t, 404, typed.StatusCode())
				assert.Equal(t, `{"errors":[{"title":"blueprint not found"}]}`, typed.Detail["body"])
			},
		},
		{
			name:   "500 becomes an API error",
			status: http.StatusInternalServerError,
			body:   "oops",
			check: func(t *testing.T, err error) {
				assert.True(t, errors.IsAPI(err), "got %v", err)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestClient(t, server.URL).ListBlueprints(context.Background(), "tok")

			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestClient_TransportFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	server.Close() // nothing listens anymore

	_, err := newTestClient(t, server.URL).ListBlueprints(context.Background(), "tok")

	require.Error(t, err)
	assert.True(t, errors.IsTransport(err), "got %v", err)
}
