// SPDX-License-Identifier: Apache-2.0

// Package server exposes Red Hat Image Builder as MCP tools over stdio,
// SSE, and streamable HTTP transports.
package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/osbuild/image-builder-mcp/pkg/auth"
	"github.com/osbuild/image-builder-mcp/pkg/imagebuilder"
	"github.com/osbuild/image-builder-mcp/pkg/logger"
	"github.com/osbuild/image-builder-mcp/pkg/telemetry"
	"github.com/osbuild/image-builder-mcp/pkg/versions"
)

// Transport modes the server can run in.
const (
	// TransportStdio talks MCP over stdin/stdout.
	TransportStdio = "stdio"
	// TransportSSE serves MCP over HTTP with server-sent events.
	TransportSSE = "sse"
	// TransportHTTP serves MCP over streamable HTTP.
	TransportHTTP = "http"
)

const (
	// serverName is the MCP server name advertised to clients.
	serverName = "Image Builder MCP Server"

	// mcpEndpointPath is where the streamable HTTP transport listens.
	mcpEndpointPath = "/mcp"

	// readHeaderTimeout bounds how long a client gets to send headers.
	readHeaderTimeout = 10 * time.Second

	// shutdownTimeout bounds graceful shutdown.
	shutdownTimeout = 10 * time.Second
)

// Config holds the MCP server configuration.
type Config struct {
	// Transport selects stdio, sse, or http.
	Transport string

	// Host and Port place the network transports. Ignored for stdio.
	Host string
	Port int

	// Stage switches the upstream API and SSO realm to the stage
	// deployments.
	Stage bool

	// ProxyURL routes upstream traffic through a proxy. Required to reach
	// the stage deployments.
	ProxyURL string

	// DefaultResponseSize overrides the listing page size applied when a
	// tool call does not ask for one.
	DefaultResponseSize int

	// OAuth enables the OAuth discovery endpoints and gates the MCP
	// transport behind a bearer token requirement. Nil disables both.
	OAuth *auth.DiscoveryConfig

	// Telemetry supplies the meter provider and the Prometheus handler.
	// Nil disables metrics.
	Telemetry *telemetry.Provider
}

// Server is an MCP server for the Image Builder API.
type Server struct {
	config     Config
	mcpServer  *server.MCPServer
	handler    *Handler
	discovery  *auth.Discovery
	httpServer *http.Server
}

// New creates the MCP server with all tools registered.
func New(config Config) (*Server, error) {
	switch config.Transport {
	case TransportStdio, TransportSSE, TransportHTTP:
	default:
		return nil, fmt.Errorf("unsupported transport %q", config.Transport)
	}

	apiClient, err := imagebuilder.New(imagebuilder.Config{
		Stage:    config.Stage,
		ProxyURL: config.ProxyURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Image Builder client: %w", err)
	}

	var meterProvider metric.MeterProvider = noop.NewMeterProvider()
	if config.Telemetry != nil {
		meterProvider = config.Telemetry.MeterProvider()
	}
	metrics := telemetry.NewMetrics(meterProvider)

	issuer := auth.DefaultIssuer
	if config.Stage {
		issuer = auth.StageIssuer
	}
	var tokenOpts []auth.TokenClientOption
	if config.ProxyURL != "" {
		client, err := proxyHTTPClient(config.ProxyURL)
		if err != nil {
			return nil, err
		}
		tokenOpts = append(tokenOpts, auth.WithHTTPClient(client))
	}
	tokens := auth.NewTokenCache(
		auth.NewTokenClient(auth.TokenURL(issuer), tokenOpts...),
		auth.WithTokenRequestRecorder(metrics),
	)

	handler := &Handler{
		api:                 apiClient,
		resolver:            auth.NewResolver(),
		tokens:              tokens,
		sessions:            newSessionIndex(),
		metrics:             metrics,
		transport:           config.Transport,
		defaultResponseSize: config.DefaultResponseSize,
	}

	mcpServer := server.NewMCPServer(
		serverName,
		versions.GetVersionInfo().Version,
		server.WithToolCapabilities(false),
		server.WithLogging(),
		server.WithInstructions(serverInstructions(config.Stage)),
	)
	mcpServer.AddTools(toolCatalog(handler)...)

	s := &Server{
		config:    config,
		mcpServer: mcpServer,
		handler:   handler,
	}

	if config.OAuth != nil {
		discovery, err := auth.NewDiscovery(*config.OAuth)
		if err != nil {
			return nil, fmt.Errorf("failed to configure OAuth discovery: %w", err)
		}
		s.discovery = discovery
	}

	return s, nil
}

// serverInstructions is the guidance advertised to clients at initialize.
func serverInstructions(stage bool) string {
	apiType := "production"
	if stage {
		apiType = "stage"
	}
	return fmt.Sprintf(`Function for Redhat console.redhat.com image-builder osbuild.org.
Interacting with the %s API.
Use this to create custom Redhat enterprise, Centos or Fedora Linux disk images.`, apiType)
}

// Serve runs the server on the configured transport until the context is
// cancelled or the transport fails.
func (s *Server) Serve(ctx context.Context) error {
	if s.config.Transport == TransportStdio {
		logger.Info("Starting MCP server on stdio")
		return server.NewStdioServer(s.mcpServer).Listen(ctx, os.Stdin, os.Stdout)
	}
	return s.serveNetwork(ctx)
}

// serveNetwork runs the SSE or streamable HTTP transport with graceful
// shutdown on context cancellation.
func (s *Server) serveNetwork(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.config.Host, s.config.Port),
		Handler:           s.router(),
		ReadHeaderTimeout: readHeaderTimeout, // Prevent Slowloris attacks
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Starting MCP server with %s transport on %s", s.config.Transport, s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	case err := <-errCh:
		return fmt.Errorf("MCP server failed: %w", err)
	}
}

// router assembles the HTTP surface: the MCP transport, the metrics
// endpoint, and the OAuth discovery endpoints when enabled.
func (s *Server) router() http.Handler {
	r := chi.NewRouter()

	if s.config.Telemetry != nil {
		if handler := s.config.Telemetry.PrometheusHandler(); handler != nil {
			r.Handle("/metrics", handler)
			logger.Info("Prometheus metrics endpoint enabled at /metrics")
		}
	}

	var mcpHandler http.Handler
	if s.config.Transport == TransportSSE {
		mcpHandler = server.NewSSEServer(s.mcpServer, server.WithSSEContextFunc(requestCredentials))
	} else {
		mcpHandler = server.NewStreamableHTTPServer(s.mcpServer, server.WithHTTPContextFunc(requestCredentials))
	}

	if s.discovery != nil {
		// The discovery endpoints stay reachable without authentication;
		// only the MCP transport is gated.
		s.discovery.Routes(r)
		mcpHandler = s.discovery.RequireAuth(mcpHandler)
	}

	if s.config.Transport == TransportSSE {
		// The SSE transport routes /sse and /message itself.
		r.Mount("/", mcpHandler)
	} else {
		r.Mount(mcpEndpointPath, mcpHandler)
	}

	return r
}

// requestCredentials copies the credential material from request headers
// into the context for the tool handlers.
func requestCredentials(ctx context.Context, r *http.Request) context.Context {
	return auth.WithCallCredentials(ctx, auth.FromRequest(r))
}

// Shutdown stops the network transport gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	logger.Info("Shutting down MCP server")
	return s.httpServer.Shutdown(shutdownCtx)
}

// proxyHTTPClient builds the HTTP client for SSO traffic routed through the
// stage proxy.
func proxyHTTPClient(proxyURL string) (*http.Client, error) {
	parsed, err := url.Parse(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy URL %q: %w", proxyURL, err)
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: &http.Transport{Proxy: http.ProxyURL(parsed)},
	}, nil
}
