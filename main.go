package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/docindex/mcp-server/internal/config"
	"github.com/docindex/mcp-server/tools"
)

const (
	version     = "0.1.0"
	serverName  = "docindex-mcp-server"
	description = "MCP server for searching generated package documentation"
)

func main() {
	// Handle version flag
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("%s version %s\n", serverName, version)
		os.Exit(0)
	}

	// Set up logging to stderr (MCP uses stdout for protocol)
	log.SetOutput(os.Stderr)
	log.Printf("%s v%s starting...", serverName, version)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.EnsureLayout(); err != nil {
		log.Printf("Warning: %v", err)
	}
	tools.Configure(cfg)
	log.Printf("Using data directory: %s", cfg.DataDir)

	server := createMCPServer()

	if err := registerTools(server); err != nil {
		log.Fatalf("Failed to register tools: %v", err)
	}

	log.Printf("✓ Server ready and waiting for connections")

	// Set up cleanup on shutdown
	defer func() {
		if err := tools.CloseDocSearch(); err != nil {
			log.Printf("Error closing doc search: %v", err)
		}
	}()

	// Run server with stdio transport
	ctx := context.Background()
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		log.Printf("Server error: %v", err)
	}
}

// createMCPServer initializes the MCP server
func createMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    serverName,
			Version: version,
		},
		nil, // Default options
	)

	log.Printf("Server initialized: %s v%s (%s)", serverName, version, description)
	return server
}

// registerTools registers all MCP tools
func registerTools(server *mcp.Server) error {
	toolCount := 0

	// Documentation search tools (2 tools)
	if err := tools.RegisterDocSearchTools(server); err != nil {
		return fmt.Errorf("failed to register doc search tools: %w", err)
	}
	toolCount += 2

	// Page browsing tools (2 tools)
	if err := tools.RegisterBrowseTools(server); err != nil {
		return fmt.Errorf("failed to register browse tools: %w", err)
	}
	toolCount += 2

	log.Printf("✓ All tools registered: %d tools (doc search + browse)", toolCount)
	return nil
}
