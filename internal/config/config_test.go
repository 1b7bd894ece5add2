// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvVars = []string{
	"FLOWISE_API_ENDPOINT",
	"FLOWISE_API_KEY",
	"FLOWISE_CHATFLOW_DESCRIPTIONS",
	"FLOWISE_DISCOVER_TOOLS",
	"FLOWISE_CHATFLOW_ID",
	"FLOWISE_ASSISTANT_ID",
	"FLOWISE_CHATFLOW_DESCRIPTION",
	"FLOWISE_CHATFLOW_WHITELIST",
	"FLOWISE_CHATFLOW_BLACKLIST",
	"FLOWISE_WHITELIST_NAME_REGEX",
	"FLOWISE_BLACKLIST_NAME_REGEX",
	"FLOWISE_MCP_CONFIG",
	"MCP_AUTH_ENABLED",
	"MCP_BEARER_TOKEN",
	"MCP_STATELESS",
	"LOG_LEVEL",
	"LOG_FORMAT",
	"MCP_LOG_FILE",
}

// saveEnv clears the config environment for the test and restores it after.
func saveEnv(t *testing.T) {
	t.Helper()
	original := make(map[string]string, len(configEnvVars))
	for _, key := range configEnvVars {
		original[key] = os.Getenv(key)
		os.Unsetenv(key)
	}
	t.Cleanup(func() {
		for key, value := range original {
			if value == "" {
				os.Unsetenv(key)
			} else {
				os.Setenv(key, value)
			}
		}
	})
}

func TestLoad_Defaults(t *testing.T) {
	saveEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "http://localhost:3000", cfg.Endpoint)
	assert.Empty(t, cfg.APIKey)
	assert.Empty(t, cfg.ChatflowDescriptions)
	assert.False(t, cfg.DiscoverTools)
	assert.Nil(t, cfg.MCPAuth)
	assert.False(t, cfg.Stateless)
}

func TestLoad_FromEnvironment(t *testing.T) {
	saveEnv(t)

	os.Setenv("FLOWISE_API_ENDPOINT", "http://flowise.internal:3000")
	os.Setenv("FLOWISE_API_KEY", "secret-api-key")
	os.Setenv("FLOWISE_CHATFLOW_DESCRIPTIONS", "a1:First One,a2:Second Two")
	os.Setenv("FLOWISE_DISCOVER_TOOLS", "true")
	os.Setenv("FLOWISE_CHATFLOW_ID", "a1")
	os.Setenv("FLOWISE_CHATFLOW_WHITELIST", "a1, a2")
	os.Setenv("FLOWISE_CHATFLOW_BLACKLIST", "a3")
	os.Setenv("FLOWISE_WHITELIST_NAME_REGEX", "^prod")
	os.Setenv("FLOWISE_BLACKLIST_NAME_REGEX", "internal")
	os.Setenv("MCP_AUTH_ENABLED", "true")
	os.Setenv("MCP_BEARER_TOKEN", "mcp-token")
	os.Setenv("MCP_STATELESS", "yes")
	os.Setenv("LOG_LEVEL", "DEBUG")
	os.Setenv("LOG_FORMAT", "json")
	os.Setenv("MCP_LOG_FILE", "test.log")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://flowise.internal:3000", cfg.Endpoint)
	assert.Equal(t, "secret-api-key", cfg.APIKey)
	assert.Equal(t, "a1:First One,a2:Second Two", cfg.ChatflowDescriptions)
	assert.True(t, cfg.DiscoverTools)
	assert.Equal(t, "a1", cfg.ChatflowID)
	assert.Equal(t, []string{"a1", "a2"}, cfg.Whitelist)
	assert.Equal(t, []string{"a3"}, cfg.Blacklist)
	assert.Equal(t, "^prod", cfg.WhitelistNameRegex)
	assert.Equal(t, "internal", cfg.BlacklistNameRegex)
	assert.True(t, cfg.Stateless)

	require.NotNil(t, cfg.MCPAuth)
	assert.True(t, cfg.MCPAuth.Enabled)
	assert.Equal(t, "mcp-token", cfg.MCPAuth.BearerToken)

	assert.Equal(t, "DEBUG", cfg.GetLogLevel())
	assert.Equal(t, "json", cfg.GetLogFormat())
	assert.Equal(t, "test.log", cfg.GetLogFile())
}

func TestLoad_FromJSONFile(t *testing.T) {
	saveEnv(t)

	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "flowise_config.json")
	configJSON := `{
		"endpoint": "http://file.example:3000",
		"api_key": "file-api-key",
		"chatflow_descriptions": "f1:File One",
		"mcp_auth": {"enabled": true, "bearer_token": "file-token"}
	}`
	require.NoError(t, os.WriteFile(configPath, []byte(configJSON), 0600))

	os.Setenv("FLOWISE_MCP_CONFIG", configPath)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://file.example:3000", cfg.Endpoint)
	assert.Equal(t, "file-api-key", cfg.APIKey)
	assert.Equal(t, "f1:File One", cfg.ChatflowDescriptions)
	require.NotNil(t, cfg.MCPAuth)
	assert.Equal(t, "file-token", cfg.MCPAuth.BearerToken)
}

func TestLoad_FileOverridesEnvironment(t *testing.T) {
	saveEnv(t)

	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "flowise_config.json")
	require.NoError(t, os.WriteFile(configPath, []byte(`{"endpoint": "http://file.example:3000"}`), 0600))

	os.Setenv("FLOWISE_API_ENDPOINT", "http://env.example:3000")
	os.Setenv("FLOWISE_API_KEY", "env-api-key")
	os.Setenv("FLOWISE_MCP_CONFIG", configPath)

	cfg, err := Load()
	require.NoError(t, err)

	// File value wins for fields it sets; env survives for the rest
	assert.Equal(t, "http://file.example:3000", cfg.Endpoint)
	assert.Equal(t, "env-api-key", cfg.APIKey)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	saveEnv(t)

	os.Setenv("FLOWISE_MCP_CONFIG", "/nonexistent/path/config.json")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_MalformedConfigFile(t *testing.T) {
	saveEnv(t)

	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "bad_config.json")
	require.NoError(t, os.WriteFile(configPath, []byte("not json"), 0600))

	os.Setenv("FLOWISE_MCP_CONFIG", configPath)

	_, err := Load()
	assert.Error(t, err)
}

func TestRedactAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		expected string
	}{
		{name: "empty key", key: "", expected: "<not set>"},
		{name: "short key", key: "abcd", expected: "<not set>"},
		{name: "normal key", key: "abcdefgh", expected: "ab****gh"},
		{name: "five characters", key: "abcde", expected: "ab*de"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RedactAPIKey(tt.key))
		})
	}
}
