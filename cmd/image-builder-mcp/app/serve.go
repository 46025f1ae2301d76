// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/osbuild/image-builder-mcp/pkg/auth"
	"github.com/osbuild/image-builder-mcp/pkg/logger"
	"github.com/osbuild/image-builder-mcp/pkg/mcp/server"
	"github.com/osbuild/image-builder-mcp/pkg/telemetry"
	"github.com/osbuild/image-builder-mcp/pkg/versions"
)

// Environment variables read at startup.
const (
	// StageProxyURLEnv must point at a proxy that can reach the stage
	// deployments. Required with --stage.
	StageProxyURLEnv = "IMAGE_BUILDER_STAGE_PROXY_URL"
	// OAuthEnabledEnv switches on the OAuth discovery endpoints for the
	// http transport, same as --oauth-enabled.
	OAuthEnabledEnv = "OAUTH_ENABLED"
	// SelfURLEnv overrides the advertised base URL of this server.
	SelfURLEnv = "SELF_URL"
	// OAuthURLEnv overrides the upstream authorization server.
	OAuthURLEnv = "OAUTH_URL"
	// OAuthClientEnv is the client ID handed out to MCP clients through
	// dynamic registration. Required when OAuth discovery is enabled.
	OAuthClientEnv = "OAUTH_CLIENT"
)

func newStdioCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stdio",
		Short: "Serve MCP over stdin/stdout",
		Long: `Serve the Image Builder MCP server on stdin/stdout.

This is the transport MCP clients such as Claude Desktop or VS Code spawn
as a subprocess. Credentials come exclusively from the environment.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, server.TransportStdio, "", 0, false)
		},
	}
}

func newSSECmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "sse",
		Short: "Serve MCP over HTTP with server-sent events",
		Long: `Serve the Image Builder MCP server over the SSE transport.

Per-request credentials are taken from the image-builder-client-id and
image-builder-client-secret headers; Prometheus metrics are exposed at
/metrics on the same listener.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, server.TransportSSE, host, port, false)
		},
	}
	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Host interface to listen on")
	cmd.Flags().IntVar(&port, "port", 9000, "Port to listen on")
	return cmd
}

func newHTTPCmd() *cobra.Command {
	var host string
	var port int
	var oauthEnabled bool

	cmd := &cobra.Command{
		Use:   "http",
		Short: "Serve MCP over streamable HTTP",
		Long: `Serve the Image Builder MCP server over the streamable HTTP transport
at /mcp.

Per-request credentials are taken from the image-builder-client-id and
image-builder-client-secret headers, or from Authorization bearer tokens
when OAuth discovery is enabled. Prometheus metrics are exposed at
/metrics on the same listener.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, server.TransportHTTP, host, port, oauthEnabled)
		},
	}
	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Host interface to listen on")
	cmd.Flags().IntVar(&port, "port", 8000, "Port to listen on")
	cmd.Flags().BoolVar(&oauthEnabled, "oauth-enabled", false,
		"Serve the OAuth discovery endpoints and require bearer tokens on /mcp (same as OAUTH_ENABLED=true)")
	return cmd
}

// runServe builds the server configuration for the chosen transport and
// serves until the command context is cancelled.
func runServe(cmd *cobra.Command, transport, host string, port int, oauthEnabled bool) error {
	ctx := cmd.Context()

	stage := viper.GetBool("stage")
	proxyURL, err := stageProxyURL(stage, os.Getenv)
	if err != nil {
		return err
	}

	var oauthCfg *auth.DiscoveryConfig
	if transport == server.TransportHTTP {
		oauthCfg, err = oauthConfig(oauthEnabled, host, port, os.Getenv)
		if err != nil {
			return err
		}
	}

	// Stdio has no listener to scrape, so it runs with the metrics
	// endpoint disabled.
	provider, err := telemetry.NewProvider(ctx, telemetry.Config{
		ServiceName:       "image-builder-mcp",
		ServiceVersion:    versions.GetVersionInfo().Version,
		EnableMetricsPath: transport != server.TransportStdio,
	})
	if err != nil {
		return fmt.Errorf("failed to create telemetry provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.Errorf("Failed to shut down telemetry: %v", err)
		}
	}()

	srv, err := server.New(server.Config{
		Transport: transport,
		Host:      host,
		Port:      port,
		Stage:     stage,
		ProxyURL:  proxyURL,
		OAuth:     oauthCfg,
		Telemetry: provider,
	})
	if err != nil {
		return err
	}

	return srv.Serve(ctx)
}

// stageProxyURL returns the proxy URL for stage access. The stage
// deployments are only reachable through a proxy on the Red Hat VPN, so
// --stage without the proxy variable is a startup error rather than a
// guaranteed timeout later.
func stageProxyURL(stage bool, getenv func(string) string) (string, error) {
	if !stage {
		return "", nil
	}
	proxyURL := getenv(StageProxyURLEnv)
	if proxyURL == "" {
		return "", fmt.Errorf("please set %s to access the stage API (e.g. %s=http://yoursquidproxy.yourdomain.com:3128)",
			StageProxyURLEnv, StageProxyURLEnv)
	}
	return proxyURL, nil
}

// oauthConfig assembles the OAuth discovery configuration from the flag and
// the environment. It returns nil when discovery is disabled.
func oauthConfig(flagEnabled bool, host string, port int, getenv func(string) string) (*auth.DiscoveryConfig, error) {
	envEnabled, _ := strconv.ParseBool(getenv(OAuthEnabledEnv))
	if !flagEnabled && !envEnabled {
		return nil, nil
	}

	selfURL := getenv(SelfURLEnv)
	if selfURL == "" {
		selfURL = fmt.Sprintf("http://%s:%d", host, port)
	}

	clientID := getenv(OAuthClientEnv)
	if clientID == "" {
		return nil, fmt.Errorf("%s must be set when OAuth discovery is enabled", OAuthClientEnv)
	}

	return &auth.DiscoveryConfig{
		SelfURL:   selfURL,
		IssuerURL: getenv(OAuthURLEnv),
		ClientID:  clientID,
	}, nil
}
