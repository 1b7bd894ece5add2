// registry.go - The authoritative tool name to chatflow ID mapping.
//
// The registry is built exactly once at startup from a Source and is
// read-only afterwards, which makes it safe for concurrent lookups by any
// number of in-flight tool calls. Picking up chatflows added to Flowise
// later requires a server restart.

package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gebl/flowise-mcp-server/internal/logging"
)

// Descriptor is the public, listable representation of one registered tool.
// Every tool takes a single required string argument, "question".
type Descriptor struct {
	Name        string
	Description string
}

// MCPTool renders the descriptor as an MCP tool definition.
func (d Descriptor) MCPTool() mcp.Tool {
	return mcp.NewTool(
		d.Name,
		mcp.WithDescription(d.Description),
		mcp.WithString("question", mcp.Required(), mcp.Description("The question or prompt to send to the chatflow.")),
	)
}

// Registry holds the tool name to chatflow ID mapping and the descriptor
// list in registration order. Immutable after Build.
type Registry struct {
	nameToID    map[string]string
	descriptors []Descriptor
}

// Build consumes a source and constructs the registry.
//
// Items are processed in source order. Labels are normalized; when two items
// normalize to the same tool name the first registration wins, the later item
// is skipped and the conflict is logged. An empty result is an error: the
// server has nothing to serve.
func Build(ctx context.Context, source Source) (*Registry, error) {
	items, err := source.Items(ctx)
	if err != nil {
		return nil, err
	}
	return buildFromItems(items)
}

func buildFromItems(items []SourceItem) (*Registry, error) {
	r := &Registry{
		nameToID: make(map[string]string, len(items)),
	}

	for _, item := range items {
		name := Normalize(item.Label)
		if existingID, ok := r.nameToID[name]; ok {
			logging.ToolsLogger.Warn("Tool name collision, keeping first registration",
				"tool_name", name,
				"label", item.Label,
				"registered_chatflow_id", existingID,
				"skipped_chatflow_id", item.ID)
			continue
		}

		r.nameToID[name] = item.ID
		r.descriptors = append(r.descriptors, Descriptor{
			Name:        name,
			Description: item.Label,
		})
		logging.ToolsLogger.Debug("Registered tool",
			"tool_name", name, "chatflow_id", item.ID)
	}

	if len(r.descriptors) == 0 {
		return nil, fmt.Errorf("no tools registered: every source item was empty or conflicting")
	}

	logging.ToolsLogger.Info("Tool registry built", "tool_count", len(r.descriptors))
	return r, nil
}

// Lookup resolves a tool name to its chatflow ID.
func (r *Registry) Lookup(name string) (string, bool) {
	id, ok := r.nameToID[name]
	return id, ok
}

// Descriptors returns the registered tools in registration order.
func (r *Registry) Descriptors() []Descriptor {
	return r.descriptors
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.descriptors)
}
