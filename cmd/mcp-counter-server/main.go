package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/cexll/rivalsbot/internal/counters"
	"github.com/cexll/rivalsbot/internal/logging"
)

func main() {
	// stdout carries the MCP protocol, so logs go to stderr.
	logger := logging.New(os.Getenv("LOG_LEVEL"), "mcp-counters")

	source, err := counters.NewSource(os.Getenv("COUNTERS_FILE"), logger)
	if err != nil {
		logger.Fatal("load counters", "error", err)
	}
	logger.Info("counters ready", "entries", len(source.Table()))

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "rivals-counter-server",
		Version: "v1.0.0",
	}, nil)

	h := &lookupHandler{source: source, logger: logger}
	mcp.AddTool(server, &mcp.Tool{
		Name:        "lookup_counters",
		Description: "Look up the hard and soft counters for a Marvel Rivals character (full or abbreviated name)",
	}, h.Handle)
	logger.Info("registered tool", "tool", "lookup_counters")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := source.Watch(ctx); err != nil {
			logger.Warn("counters watcher stopped", "error", err)
		}
	}()

	logger.Info("starting on stdio transport")
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		logger.Fatal("server error", "error", err)
	}
	logger.Info("server stopped")
}
