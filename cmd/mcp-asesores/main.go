// Command mcp-asesores runs the MCP tool server for advisors: routing
// dry-runs, deal lookups, catalogue edits and flow status.
// Uses stdio transport for integration with AI assistants.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.temporal.io/sdk/client"

	"github.com/comunidad-solar/comuneros-go/internal/backend"
	"github.com/comunidad-solar/comuneros-go/internal/backend/memory"
	"github.com/comunidad-solar/comuneros-go/internal/config"
	"github.com/comunidad-solar/comuneros-go/internal/mcpserver"
	"github.com/comunidad-solar/comuneros-go/internal/observability"
	"github.com/comunidad-solar/comuneros-go/internal/temporal/querier"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		slog.Error("config error", "error", err)
		os.Exit(1)
	}

	// stdout carries the MCP protocol, so logs go to stderr.
	logger := observability.InitLoggerTo(os.Stderr, cfg.LogLevel, "mcp-asesores")

	var (
		api   mcpserver.Backend
		flows mcpserver.FlowReader
	)
	switch cfg.Mode {
	case config.ModeProduction:
		api = backend.New(cfg.BackendURL)

		c, err := client.Dial(client.Options{
			HostPort:  cfg.TemporalHostPort,
			Namespace: cfg.TemporalNamespace,
			Logger:    observability.NewTemporalSlogAdapter(logger),
		})
		if err != nil {
			logger.Error("unable to create Temporal client", "error", err)
			os.Exit(1)
		}
		defer c.Close()
		flows = querier.New(c)

	default:
		api = memory.New()
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "comuneros-asesores",
		Version: "v1.0.0",
	}, nil)
	mcpserver.RegisterTools(server, api, flows)

	if err := server.Run(context.Background(), &mcp.StdioTransport{}); err != nil {
		logger.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
