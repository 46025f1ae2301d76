// SPDX-License-Identifier: Apache-2.0

// Package app provides the entry point for the image-builder-mcp
// command-line application.
package app

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/osbuild/image-builder-mcp/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:               "image-builder-mcp",
	DisableAutoGenTag: true,
	Short:             "MCP server for the Red Hat hosted Image Builder service",
	Long: `image-builder-mcp exposes the Red Hat hosted Image Builder service as MCP
(Model Context Protocol) tools. LLM clients use it to create blueprints,
start image builds, and follow a build through to its download link on
console.redhat.com.

Credentials are Red Hat service account client ID/secret pairs, taken from
IMAGE_BUILDER_CLIENT_ID and IMAGE_BUILDER_CLIENT_SECRET in the environment
or, on the network transports, from per-request headers.`,
	Run: func(cmd *cobra.Command, _ []string) {
		// If no subcommand is provided, print help
		if err := cmd.Help(); err != nil {
			logger.Errorf("Error displaying help: %v", err)
		}
	},
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.Initialize()
	},
}

// NewRootCmd creates a new root command for the image-builder-mcp CLI.
func NewRootCmd() *cobra.Command {
	// Add persistent flags
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug mode")
	err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	if err != nil {
		logger.Errorf("Error binding debug flag: %v", err)
	}

	rootCmd.PersistentFlags().Bool("stage", false, "Target the stage Image Builder API instead of production")
	err = viper.BindPFlag("stage", rootCmd.PersistentFlags().Lookup("stage"))
	if err != nil {
		logger.Errorf("Error binding stage flag: %v", err)
	}

	// Add subcommands
	rootCmd.AddCommand(newStdioCmd())
	rootCmd.AddCommand(newSSECmd())
	rootCmd.AddCommand(newHTTPCmd())
	rootCmd.AddCommand(newVersionCmd())

	// Silence printing the usage on error
	rootCmd.SilenceUsage = true

	return rootCmd
}
