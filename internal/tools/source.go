// source.go - Tool sources for registry construction.
//
// A Source produces the (chatflow ID, label) pairs the registry is built
// from. Two implementations exist:
//
// - StaticSource parses the FLOWISE_CHATFLOW_DESCRIPTIONS configuration
//   string, so the served tool set is fixed by the operator.
// - DiscoveredSource queries the Flowise instance for its chatflows at
//   startup and applies optional allow/deny filtering.
//
// Both fail hard on malformed or empty input: the server refuses to start
// with nothing to serve rather than exposing a partial tool set.

package tools

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/gebl/flowise-mcp-server/internal/flowise"
	"github.com/gebl/flowise-mcp-server/internal/logging"
)

// SourceItem is one chatflow to expose: the opaque backend ID and the
// human-readable label the tool name and description derive from.
type SourceItem struct {
	ID    string
	Label string
}

// Source produces the items a registry is built from.
type Source interface {
	Items(ctx context.Context) ([]SourceItem, error)
}

// StaticSource parses a descriptor string of comma-separated "id:label"
// pairs. Labels may contain colons (only the first colon splits a pair) but
// not commas.
type StaticSource struct {
	Descriptors string
}

// Items parses the descriptor string. Any malformed pair is a configuration
// error: no partial tool set is ever produced.
func (s StaticSource) Items(ctx context.Context) ([]SourceItem, error) {
	if strings.TrimSpace(s.Descriptors) == "" {
		return nil, fmt.Errorf("chatflow descriptor string is empty")
	}

	var items []SourceItem
	for _, pair := range strings.Split(s.Descriptors, ",") {
		pair = strings.TrimSpace(pair)
		id, label, found := strings.Cut(pair, ":")
		if !found {
			return nil, fmt.Errorf("invalid chatflow descriptor pair %q: expected id:label", pair)
		}
		id = strings.TrimSpace(id)
		label = strings.TrimSpace(label)
		if id == "" || label == "" {
			return nil, fmt.Errorf("invalid chatflow descriptor pair %q: empty id or label", pair)
		}
		items = append(items, SourceItem{ID: id, Label: label})
	}
	return items, nil
}

// ChatflowFilter restricts which discovered chatflows are exposed. An ID on
// the allow list is always kept, even when a deny rule also matches it.
// A non-empty ID allow-list restricts the exposed set to exactly those IDs:
// chatflows outside it are rejected without consulting the name patterns,
// so an allow-name pattern cannot widen an ID allow-list.
type ChatflowFilter struct {
	allowIDs  map[string]struct{}
	denyIDs   map[string]struct{}
	allowName *regexp.Regexp
	denyName  *regexp.Regexp
}

// NewChatflowFilter compiles a filter from ID lists and name patterns. Nil is
// returned when no rule is configured, meaning everything passes.
func NewChatflowFilter(allowIDs, denyIDs []string, allowNamePattern, denyNamePattern string) (*ChatflowFilter, error) {
	if len(allowIDs) == 0 && len(denyIDs) == 0 && allowNamePattern == "" && denyNamePattern == "" {
		return nil, nil
	}

	f := &ChatflowFilter{}
	if len(allowIDs) > 0 {
		f.allowIDs = make(map[string]struct{}, len(allowIDs))
		for _, id := range allowIDs {
			f.allowIDs[id] = struct{}{}
		}
	}
	if len(denyIDs) > 0 {
		f.denyIDs = make(map[string]struct{}, len(denyIDs))
		for _, id := range denyIDs {
			f.denyIDs[id] = struct{}{}
		}
	}

	var err error
	if allowNamePattern != "" {
		if f.allowName, err = regexp.Compile(allowNamePattern); err != nil {
			return nil, fmt.Errorf("invalid whitelist name pattern: %w", err)
		}
	}
	if denyNamePattern != "" {
		if f.denyName, err = regexp.Compile(denyNamePattern); err != nil {
			return nil, fmt.Errorf("invalid blacklist name pattern: %w", err)
		}
	}
	return f, nil
}

// Keep reports whether the chatflow passes the filter.
func (f *ChatflowFilter) Keep(cf flowise.Chatflow) bool {
	if f == nil {
		return true
	}

	// An explicit ID allow-list entry overrides every deny rule.
	if _, ok := f.allowIDs[cf.ID]; ok {
		return true
	}
	if f.allowIDs != nil {
		return false
	}

	if _, ok := f.denyIDs[cf.ID]; ok {
		return false
	}
	if f.allowName != nil && !f.allowName.MatchString(cf.Name) {
		return false
	}
	if f.denyName != nil && f.denyName.MatchString(cf.Name) {
		return false
	}
	return true
}

// Apply returns the chatflows that pass the filter, in input order.
func (f *ChatflowFilter) Apply(chatflows []flowise.Chatflow) []flowise.Chatflow {
	if f == nil {
		return chatflows
	}
	var kept []flowise.Chatflow
	for _, cf := range chatflows {
		if f.Keep(cf) {
			kept = append(kept, cf)
		}
	}
	return kept
}

// ChatflowLister fetches the chatflow listing from the backend.
// *flowise.Client.ListChatflows satisfies it.
type ChatflowLister func(ctx context.Context) ([]flowise.Chatflow, error)

// DiscoveredSource produces items from a live Flowise chatflow listing,
// optionally filtered. The listing is fetched exactly once.
type DiscoveredSource struct {
	List   ChatflowLister
	Filter *ChatflowFilter
}

// Items fetches and filters the chatflow listing. A failed listing or an
// empty result is a startup error: a server with no tools is not runnable.
func (s DiscoveredSource) Items(ctx context.Context) ([]SourceItem, error) {
	chatflows, err := s.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("chatflow discovery failed: %w", err)
	}

	kept := s.Filter.Apply(chatflows)
	logging.ToolsLogger.Debug("Discovered chatflows",
		"total", len(chatflows), "after_filter", len(kept))

	if len(kept) == 0 {
		return nil, fmt.Errorf("no chatflows available after filtering (%d discovered)", len(chatflows))
	}

	items := make([]SourceItem, 0, len(kept))
	for _, cf := range kept {
		items = append(items, SourceItem{ID: cf.ID, Label: cf.Name})
	}
	return items, nil
}
