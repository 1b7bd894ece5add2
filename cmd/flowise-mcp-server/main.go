// main.go - Entry point for the Flowise MCP Server.
//
// This file sets up the Model Context Protocol (MCP) server that exposes
// Flowise chatflows as callable tools. AI assistants and other MCP clients
// discover the available chatflows as named tools and invoke them with a
// single question, receiving the chatflow's answer as text.
//
// Operating Modes (selected by environment):
// - Descriptor mode: FLOWISE_CHATFLOW_DESCRIPTIONS holds "id:label" pairs;
//   one tool is registered per pair.
// - Discovery mode: FLOWISE_DISCOVER_TOOLS=true; the chatflow listing is
//   fetched from Flowise at startup and one tool is registered per chatflow,
//   subject to optional whitelist/blacklist filtering.
// - Static mode: neither of the above; two fixed tools are served,
//   list_chatflows and create_prediction.
//
// In the dynamic modes the tool set is built exactly once at startup and is
// immutable for the process lifetime; chatflows added to Flowise later
// require a restart. A malformed descriptor string, a failed discovery call,
// or an empty tool set aborts startup - the server never serves a partial or
// empty registry.
//
// Configuration:
// - Environment variables: FLOWISE_API_ENDPOINT, FLOWISE_API_KEY, and the
//   mode selectors above (see internal/config)
// - Optional config file: set FLOWISE_MCP_CONFIG to a JSON file path
// - Logging: LOG_LEVEL, LOG_FORMAT, MCP_LOG_FILE
//
// Usage:
//   go build -o flowise-mcp-server ./cmd/flowise-mcp-server
//   ./flowise-mcp-server                    # stdio mode (default)
//   ./flowise-mcp-server -mode=streamable  # Streamable HTTP mode on port 8080
//   ./flowise-mcp-server -mode=streamable -port=8081

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/gebl/flowise-mcp-server/internal/auth"
	"github.com/gebl/flowise-mcp-server/internal/config"
	"github.com/gebl/flowise-mcp-server/internal/flowise"
	"github.com/gebl/flowise-mcp-server/internal/logging"
	"github.com/gebl/flowise-mcp-server/internal/tools"
)

const (
	// Version is the current version of the Flowise MCP server
	Version    = "1.0.0"
	serverName = "Flowise MCP Server"
)

func main() {
	// Initialize structured logging first
	logging.Initialize()
	logger := logging.MainLogger

	// Parse command line flags
	mode := flag.String("mode", "stdio", "Server mode: stdio or streamable")
	port := flag.String("port", "8080", "Port for HTTP server (used with streamable mode)")
	flag.Parse()

	logger.Info("Flowise MCP Server starting", "version", Version, "mode", *mode, "port", *port)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Reinitialize logging with configuration values
	logging.InitializeFromConfig(cfg)
	logger = logging.MainLogger
	logger.Debug("Logging reconfigured based on loaded configuration")

	logger.Info("Flowise backend configured",
		"endpoint", cfg.Endpoint,
		"api_key", config.RedactAPIKey(cfg.APIKey))

	flowiseClient := flowise.NewClient(cfg.Endpoint, cfg.APIKey)

	// Create MCP server
	s := server.NewMCPServer(serverName, Version,
		server.WithToolCapabilities(true))

	// Register tools for the selected operating mode. Registry construction
	// must finish before the server accepts its first request.
	if err := registerTools(context.Background(), s, flowiseClient, cfg); err != nil {
		logger.Error("Failed to register tools", "error", err)
		os.Exit(1)
	}

	switch *mode {
	case "streamable":
		logger.Info("Starting MCP server", "transport", "Streamable HTTP", "port", *port)
		streamableServer := server.NewStreamableHTTPServer(s,
			server.WithStateLess(cfg.Stateless))
		handler := applyAuthIfEnabled(streamableServer, cfg)
		logger.Info("Streamable HTTP server listening", "address", fmt.Sprintf("http://localhost:%s", *port))
		if err := http.ListenAndServe(":"+*port, handler); err != nil {
			logger.Error("Streamable HTTP server error", "error", err)
			os.Exit(1)
		}
	case "stdio":
		logger.Info("Starting MCP server", "transport", "stdio")
		if err := server.ServeStdio(s); err != nil {
			logger.Error("Stdio server error", "error", err)
			os.Exit(1)
		}
	default:
		logger.Error("Invalid mode specified", "mode", *mode, "valid_modes", []string{"stdio", "streamable"})
		os.Exit(1)
	}
}

// applyAuthIfEnabled applies bearer token authentication middleware if
// enabled in configuration. Returns the handler with middleware applied.
func applyAuthIfEnabled(handler http.Handler, cfg *config.Config) http.Handler {
	logger := logging.MainLogger

	if cfg.MCPAuth != nil && cfg.MCPAuth.Enabled {
		if cfg.MCPAuth.BearerToken == "" {
			logger.Warn("MCP authentication is enabled but no bearer token is configured",
				"recommendation", "set MCP_BEARER_TOKEN environment variable or add bearer_token to config file")
			return handler
		}

		logger.Info("MCP authentication enabled for HTTP transport",
			"token_length", len(cfg.MCPAuth.BearerToken))
		return auth.BearerTokenMiddleware(cfg.MCPAuth.BearerToken)(handler)
	}

	logger.Debug("MCP authentication disabled - HTTP endpoints are not protected")
	return handler
}

// buildSource selects the tool source for the configured dynamic mode, or
// returns nil when the server should run in static mode.
func buildSource(cfg *config.Config, client *flowise.Client) (tools.Source, error) {
	if cfg.ChatflowDescriptions != "" {
		logging.MainLogger.Info("Using chatflow descriptor configuration")
		return tools.StaticSource{Descriptors: cfg.ChatflowDescriptions}, nil
	}

	if cfg.DiscoverTools {
		logging.MainLogger.Info("Discovering chatflows from Flowise")
		filter, err := tools.NewChatflowFilter(
			cfg.Whitelist, cfg.Blacklist,
			cfg.WhitelistNameRegex, cfg.BlacklistNameRegex)
		if err != nil {
			return nil, err
		}
		return tools.DiscoveredSource{
			List:   client.ListChatflows,
			Filter: filter,
		}, nil
	}

	return nil, nil
}
