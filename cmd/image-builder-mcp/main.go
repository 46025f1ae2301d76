// SPDX-License-Identifier: Apache-2.0

// Package main is the entry point for the image-builder-mcp server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/osbuild/image-builder-mcp/cmd/image-builder-mcp/app"
	"github.com/osbuild/image-builder-mcp/pkg/logger"
)

func main() {
	// Create a context that will be canceled on signal
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.NewRootCmd().ExecuteContext(ctx); err != nil {
		logger.Errorf("Error executing command: %v", err)
		os.Exit(1)
	}
}
