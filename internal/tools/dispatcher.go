// dispatcher.go - Request routing for registered chatflow tools.
//
// The dispatcher answers tool listing from the registry and routes tool
// calls through the registry to the Flowise prediction call. Every call
// outcome, including backend failures and internal faults, is shaped into
// plain text: the MCP call result has no error representation suitable for
// partial application errors, so a client always receives a textual answer.

package tools

import (
	"context"
	"fmt"

	"github.com/gebl/flowise-mcp-server/internal/logging"
)

// Response texts for the non-success call outcomes.
const (
	unknownToolText     = "Unknown tool requested"
	missingQuestionText = `Missing "question" argument`
	internalErrorText   = "Error: internal server error"
)

// Invoker runs a prediction against a chatflow. *flowise.Client.Predict
// satisfies it; tests substitute stubs.
type Invoker func(ctx context.Context, chatflowID, question string) (string, error)

// Dispatcher routes tool calls. Stateless beyond the read-only registry;
// safe for concurrent use.
type Dispatcher struct {
	registry *Registry
	invoke   Invoker
}

// NewDispatcher wires a registry to a prediction invoker.
func NewDispatcher(registry *Registry, invoke Invoker) *Dispatcher {
	return &Dispatcher{registry: registry, invoke: invoke}
}

// ListTools returns the registered tool descriptors in registration order.
func (d *Dispatcher) ListTools() []Descriptor {
	return d.registry.Descriptors()
}

// CallTool runs the named tool and always returns response text. The three
// failure modes - unknown tool, missing question, backend failure - surface
// as text, never as an error past this boundary. A panic inside the call is
// recovered and reported the same way, so one bad call cannot take down the
// serving loop.
func (d *Dispatcher) CallTool(ctx context.Context, name string, args map[string]string) (text string) {
	defer func() {
		if r := recover(); r != nil {
			logging.ToolsLogger.Error("Tool call panicked", "tool_name", name, "panic", r)
			text = internalErrorText
		}
	}()

	chatflowID, ok := d.registry.Lookup(name)
	if !ok {
		logging.ToolsLogger.Warn("Call for unregistered tool", "tool_name", name)
		return unknownToolText
	}

	question := args["question"]
	if question == "" {
		logging.ToolsLogger.Warn("Tool call missing question argument", "tool_name", name)
		return missingQuestionText
	}

	logging.ToolsLogger.Debug("Dispatching tool call",
		"tool_name", name, "chatflow_id", chatflowID)

	result, err := d.invoke(ctx, chatflowID, question)
	if err != nil {
		logging.ToolsLogger.Error("Prediction failed",
			"tool_name", name, "chatflow_id", chatflowID, "error", err)
		return fmt.Sprintf("Error: %v", err)
	}
	return result
}
