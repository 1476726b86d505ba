package registry

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// writePrefixes mark tools that create files.
var writePrefixes = []string{"export_", "write_"}

// ExportToolFilter hides file-writing tools unless exports were enabled at startup.
type ExportToolFilter struct {
	allowExports bool
}

// NewExportToolFilter constructs a filter; allow comes from the -allow-export flag.
func NewExportToolFilter(allow bool) *ExportToolFilter {
	return &ExportToolFilter{allowExports: allow}
}

// IsWriteTool reports whether name belongs to a file-writing tool.
func IsWriteTool(name string) bool {
	name = strings.ToLower(name)
	for _, p := range writePrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// FilterTools implements server tool filtering semantics.
func (f *ExportToolFilter) FilterTools(_ context.Context, tools []mcp.Tool) []mcp.Tool {
	if f.allowExports {
		return tools
	}
	out := make([]mcp.Tool, 0, len(tools))
	for _, t := range tools {
		if IsWriteTool(t.Name) {
			continue
		}
		out = append(out, t)
	}
	return out
}
