// config.go - Configuration loading for the Flowise MCP server.
//
// Configuration is read from environment variables first (with a best-effort
// .env autoload), then optionally overridden by a JSON config file pointed to
// by FLOWISE_MCP_CONFIG.
//
// Environment variables:
// - FLOWISE_API_ENDPOINT: Base URL of the Flowise instance (default http://localhost:3000)
// - FLOWISE_API_KEY: Bearer credential passed through to the Flowise API
// - FLOWISE_CHATFLOW_DESCRIPTIONS: Comma-separated "id:label" pairs; enables dynamic descriptor mode
// - FLOWISE_DISCOVER_TOOLS: "true"/"1"/"yes" enables dynamic discovery mode
// - FLOWISE_CHATFLOW_ID / FLOWISE_ASSISTANT_ID: Fixed target for create_prediction
// - FLOWISE_CHATFLOW_DESCRIPTION: Custom description for the fixed chatflow
// - FLOWISE_CHATFLOW_WHITELIST / FLOWISE_CHATFLOW_BLACKLIST: Comma-separated chatflow IDs
// - FLOWISE_WHITELIST_NAME_REGEX / FLOWISE_BLACKLIST_NAME_REGEX: Name pattern filters
// - MCP_AUTH_ENABLED / MCP_BEARER_TOKEN: Bearer auth for the HTTP transport
// - MCP_STATELESS: Run the streamable HTTP transport stateless
// - LOG_LEVEL, LOG_FORMAT, MCP_LOG_FILE: Logging configuration

package config

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/gebl/flowise-mcp-server/internal/logging"
)

// MCPAuthConfig controls bearer-token authentication for the HTTP transport.
type MCPAuthConfig struct {
	Enabled     bool   `json:"enabled"`
	BearerToken string `json:"bearer_token"`
}

type Config struct {
	Endpoint             string         `json:"endpoint"`
	APIKey               string         `json:"api_key"`
	ChatflowDescriptions string         `json:"chatflow_descriptions"`
	DiscoverTools        bool           `json:"discover_tools"`
	ChatflowID           string         `json:"chatflow_id"`
	AssistantID          string         `json:"assistant_id"`
	ChatflowDescription  string         `json:"chatflow_description"`
	Whitelist            []string       `json:"whitelist"`
	Blacklist            []string       `json:"blacklist"`
	WhitelistNameRegex   string         `json:"whitelist_name_regex"`
	BlacklistNameRegex   string         `json:"blacklist_name_regex"`
	MCPAuth              *MCPAuthConfig `json:"mcp_auth,omitempty"`
	Stateless            bool           `json:"stateless"`
	LogLevel             string         `json:"log_level"`
	LogFormat            string         `json:"log_format"`
	LogFile              string         `json:"log_file"`
}

const defaultEndpoint = "http://localhost:3000"

// Load builds a Config from the environment and an optional JSON config file.
func Load() (*Config, error) {
	logger := logging.ConfigLogger

	// Load .env if present; environment variables already set take precedence.
	if err := godotenv.Load(); err == nil {
		logger.Debug("Loaded environment from .env file")
	}

	cfg := &Config{
		Endpoint:             getEnvDefault("FLOWISE_API_ENDPOINT", defaultEndpoint),
		APIKey:               os.Getenv("FLOWISE_API_KEY"),
		ChatflowDescriptions: os.Getenv("FLOWISE_CHATFLOW_DESCRIPTIONS"),
		DiscoverTools:        boolEnv("FLOWISE_DISCOVER_TOOLS"),
		ChatflowID:           os.Getenv("FLOWISE_CHATFLOW_ID"),
		AssistantID:          os.Getenv("FLOWISE_ASSISTANT_ID"),
		ChatflowDescription:  os.Getenv("FLOWISE_CHATFLOW_DESCRIPTION"),
		Whitelist:            splitList(os.Getenv("FLOWISE_CHATFLOW_WHITELIST")),
		Blacklist:            splitList(os.Getenv("FLOWISE_CHATFLOW_BLACKLIST")),
		WhitelistNameRegex:   os.Getenv("FLOWISE_WHITELIST_NAME_REGEX"),
		BlacklistNameRegex:   os.Getenv("FLOWISE_BLACKLIST_NAME_REGEX"),
		Stateless:            boolEnv("MCP_STATELESS"),
		LogLevel:             os.Getenv("LOG_LEVEL"),
		LogFormat:            os.Getenv("LOG_FORMAT"),
		LogFile:              os.Getenv("MCP_LOG_FILE"),
	}

	if boolEnv("MCP_AUTH_ENABLED") || os.Getenv("MCP_BEARER_TOKEN") != "" {
		cfg.MCPAuth = &MCPAuthConfig{
			Enabled:     boolEnv("MCP_AUTH_ENABLED"),
			BearerToken: os.Getenv("MCP_BEARER_TOKEN"),
		}
	}

	// Optionally load from config file
	if path := os.Getenv("FLOWISE_MCP_CONFIG"); path != "" {
		logger.Debug("Loading config file", "path", path)
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		dec := json.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	}

	logger.Debug("Configuration loaded",
		"endpoint", cfg.Endpoint,
		"api_key", RedactAPIKey(cfg.APIKey),
		"chatflow_descriptions_set", cfg.ChatflowDescriptions != "",
		"discover_tools", cfg.DiscoverTools,
		"chatflow_id", cfg.ChatflowID,
		"assistant_id", cfg.AssistantID,
		"whitelist_count", len(cfg.Whitelist),
		"blacklist_count", len(cfg.Blacklist))

	return cfg, nil
}

// GetLogLevel implements logging.LoggingConfig
func (c *Config) GetLogLevel() string { return c.LogLevel }

// GetLogFormat implements logging.LoggingConfig
func (c *Config) GetLogFormat() string { return c.LogFormat }

// GetLogFile implements logging.LoggingConfig
func (c *Config) GetLogFile() string { return c.LogFile }

// RedactAPIKey masks an API key for safe log output, keeping only the first
// and last two characters. Keys of four characters or fewer are fully hidden.
func RedactAPIKey(key string) string {
	if len(key) <= 4 {
		return "<not set>"
	}
	return key[:2] + strings.Repeat("*", len(key)-4) + key[len(key)-2:]
}

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func boolEnv(key string) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "true", "1", "yes":
		return true
	}
	return false
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
