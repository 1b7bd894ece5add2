// name.go - Tool name normalization.
//
// MCP tool names are restricted to lowercase alphanumerics and underscores.
// Chatflow names are arbitrary human-readable labels, so every label is
// normalized before registration.

package tools

import "strings"

// FallbackToolName is returned for labels that carry no usable characters.
const FallbackToolName = "unknown_tool"

// Normalize converts an arbitrary chatflow label into a protocol-safe tool
// name: every character outside [A-Za-z0-9] becomes an underscore and the
// result is lowercased. Empty labels yield FallbackToolName, so distinct
// empty labels collide deliberately and are resolved by the registry's
// collision policy.
func Normalize(label string) string {
	if label == "" {
		return FallbackToolName
	}

	var b strings.Builder
	b.Grow(len(label))
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteByte('_')
		}
	}

	name := b.String()
	if name == "" {
		return FallbackToolName
	}
	return name
}
