package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gebl/flowise-mcp-server/internal/config"
	"github.com/gebl/flowise-mcp-server/internal/flowise"
	"github.com/gebl/flowise-mcp-server/internal/logging"
	"github.com/gebl/flowise-mcp-server/internal/tools"
)

// registerTools builds the tool set for the configured operating mode and
// registers it with the MCP server. In the dynamic modes the registry build
// is fatal on failure; static mode registers the fixed tool pair.
func registerTools(ctx context.Context, s *server.MCPServer, client *flowise.Client, cfg *config.Config) error {
	source, err := buildSource(cfg, client)
	if err != nil {
		return err
	}

	if source == nil {
		// The fixed-target fallback is only meaningful in static mode, so the
		// conflicting-configuration check lives here too.
		if cfg.ChatflowID != "" && cfg.AssistantID != "" {
			return fmt.Errorf("both FLOWISE_CHATFLOW_ID and FLOWISE_ASSISTANT_ID are set; set only one")
		}
		logging.ToolsLogger.Debug("No dynamic tool source configured, registering static tools")
		registerStaticTools(s, client, cfg)
		return nil
	}

	registry, err := tools.Build(ctx, source)
	if err != nil {
		return err
	}

	dispatcher := tools.NewDispatcher(registry, client.Predict)
	registerChatflowTools(s, dispatcher)
	return nil
}

// registerChatflowTools registers one MCP tool per registry descriptor, all
// delegating to the dispatcher. Call outcomes - including backend failures -
// are returned as text, never as protocol errors.
func registerChatflowTools(s *server.MCPServer, dispatcher *tools.Dispatcher) {
	for _, desc := range dispatcher.ListTools() {
		name := desc.Name
		s.AddTool(desc.MCPTool(), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			logging.ToolsLogger.Debug("Chatflow tool called", "tool_name", name)
			args := map[string]string{
				"question": req.GetString("question", ""),
			}
			return mcp.NewToolResultText(dispatcher.CallTool(ctx, name, args)), nil
		})
	}
	logging.ToolsLogger.Debug("Chatflow tools registered", "count", len(dispatcher.ListTools()))
}

// registerStaticTools registers the fixed tool pair served when no dynamic
// mode is configured: list_chatflows and create_prediction.
func registerStaticTools(s *server.MCPServer, client *flowise.Client, cfg *config.Config) {
	filter, err := tools.NewChatflowFilter(
		cfg.Whitelist, cfg.Blacklist,
		cfg.WhitelistNameRegex, cfg.BlacklistNameRegex)
	if err != nil {
		logging.ToolsLogger.Warn("Invalid chatflow filter configuration, serving unfiltered listing", "error", err)
		filter = nil
	}

	// list_chatflows: return the (filtered) chatflow listing as JSON
	listChatflowsTool := mcp.NewTool(
		"list_chatflows",
		mcp.WithDescription("List all available chatflows from the Flowise API as a JSON array of {id, name} objects."),
	)
	s.AddTool(listChatflowsTool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		logging.ToolsLogger.Debug("list_chatflows called")

		chatflows, err := client.ListChatflows(ctx)
		if err != nil {
			logging.ToolsLogger.Error("list_chatflows failed", "error", err)
			return mcp.NewToolResultText(fmt.Sprintf("Error: %v", err)), nil
		}

		chatflows = filter.Apply(chatflows)
		if len(chatflows) == 0 {
			return mcp.NewToolResultText("[]"), nil
		}

		jsonBytes, err := json.Marshal(chatflows)
		if err != nil {
			logging.ToolsLogger.Error("Failed to marshal chatflows to JSON", "error", err)
			return mcp.NewToolResultText(fmt.Sprintf("Error: %v", err)), nil
		}
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	// create_prediction: send a question to a chatflow or the configured
	// fallback target
	description := "Create a prediction by sending a question to a specific chatflow."
	if cfg.ChatflowDescription != "" {
		description = cfg.ChatflowDescription
	}
	createPredictionTool := mcp.NewTool(
		"create_prediction",
		mcp.WithDescription(description),
		mcp.WithString("chatflow_id", mcp.Description("The ID of the chatflow to use. Optional - defaults to the server's configured chatflow or assistant.")),
		mcp.WithString("question", mcp.Required(), mcp.Description("The question or prompt to send to the chatflow.")),
	)
	s.AddTool(createPredictionTool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		logging.ToolsLogger.Debug("create_prediction called")

		chatflowID := req.GetString("chatflow_id", "")
		if chatflowID == "" {
			chatflowID = cfg.ChatflowID
		}
		if chatflowID == "" {
			chatflowID = cfg.AssistantID
		}
		if chatflowID == "" {
			logging.ToolsLogger.Warn("create_prediction called without a target chatflow")
			return mcp.NewToolResultText("Error: chatflow_id or assistant_id is required."), nil
		}

		question := req.GetString("question", "")
		if question == "" {
			return mcp.NewToolResultText(`Missing "question" argument`), nil
		}

		result, err := client.Predict(ctx, chatflowID, question)
		if err != nil {
			logging.ToolsLogger.Error("create_prediction failed", "chatflow_id", chatflowID, "error", err)
			return mcp.NewToolResultText(fmt.Sprintf("Error: %v", err)), nil
		}
		return mcp.NewToolResultText(result), nil
	})

	logging.ToolsLogger.Debug("Static tools registered", "tools", []string{"list_chatflows", "create_prediction"})
}
