package registry

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/tmc/langchaingo/llms"
)

// DefaultModel is the model whose tokenizer and context window size tool text.
const DefaultModel = "gpt-4o"

// truncationMarker ends text that was cut to fit a token budget.
const truncationMarker = "... (truncated)"

// ToolProvider resolves MCP tool definitions.
type ToolProvider interface {
	Tools(context.Context) ([]mcp.Tool, error)
}

// Registry maintains tool definitions and the model used to size text summaries.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]mcp.Tool
	model string
}

// New constructs an empty Registry ready for tool population.
func New() *Registry {
	return &Registry{
		tools: map[string]mcp.Tool{},
		model: DefaultModel,
	}
}

// WithModel sets the model name used for token counting.
func (r *Registry) WithModel(model string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(model) != "" {
		r.model = model
	}
}

// Model returns the configured model name.
func (r *Registry) Model() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.model
}

// Register stores a tool definition for discovery.
func (r *Registry) Register(tool mcp.Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tools[tool.Name] = tool
}

// Get returns a tool by name when present.
func (r *Registry) Get(name string) (mcp.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Tools returns a stable-sorted list of registered tool definitions.
func (r *Registry) Tools(context.Context) ([]mcp.Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]mcp.Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		tools = append(tools, tool)
	}

	sort.Slice(tools, func(i, j int) bool {
		return tools[i].Name < tools[j].Name
	})

	return tools, nil
}

// ModelContextSize exposes the configured model's context window when available.
func (r *Registry) ModelContextSize(modelName string) int {
	return llms.GetModelContextSize(modelName)
}

// TrimToBudget drops trailing lines from text until it fits maxTokens for the
// registry's model. maxTokens <= 0 disables trimming. The first line is always kept.
func (r *Registry) TrimToBudget(text string, maxTokens int) string {
	// A token is at least one byte, so short text never needs counting.
	if maxTokens <= 0 || len(text) <= maxTokens {
		return text
	}
	model := r.Model()
	if llms.CountTokens(model, text) <= maxTokens {
		return text
	}
	lines := strings.Split(text, "\n")
	// Token count grows with the number of kept lines, so search for the largest prefix.
	best, lo, hi := 1, 1, len(lines)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		if llms.CountTokens(model, clip(lines, mid)) <= maxTokens {
			best, lo = mid, mid+1
		} else {
			hi = mid - 1
		}
	}
	return clip(lines, best)
}

func clip(lines []string, n int) string {
	return strings.Join(lines[:n], "\n") + "\n" + truncationMarker
}
