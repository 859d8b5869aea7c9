package tools

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Registry manages tool registration, lookup, and dispatch. It is an
// explicitly constructed dependency passed into the agent loop, not a
// package-level singleton, so tests get per-instance isolation. Definitions
// are returned in registration order so the schema snapshot sent to the
// model is deterministic.
type Registry struct {
	tools  map[string]Tool
	order  []string
	logger *zap.Logger
	mu     sync.RWMutex
}

// NewRegistry creates an empty Registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		tools:  make(map[string]Tool),
		logger: logger,
	}
}

// Register adds or replaces a tool.
func (r *Registry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[tool.Name()]; !exists {
		r.order = append(r.order, tool.Name())
	}
	r.tools[tool.Name()] = tool
}

// Unregister removes a tool by name, reporting whether it was present.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tools[name]; !ok {
		return false
	}
	delete(r.tools, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Get returns a registered tool by name, or nil if not found.
func (r *Registry) Get(name string) Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// Has reports whether a tool is registered.
func (r *Registry) Has(name string) bool {
	return r.Get(name) != nil
}

// Names returns the names of all registered tools in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Definitions returns the schema snapshot for all registered tools, in
// registration order. Repeated calls without registry mutation yield
// identical output.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		tool := r.tools[name]
		defs = append(defs, Definition{
			Name:        tool.Name(),
			Description: tool.Description(),
			Parameters:  tool.Schema(),
		})
	}
	return defs
}

// Execute dispatches to the named tool. It never panics and never returns
// nil: unknown tools, tool errors, and tool panics all come back as failed
// Results so the agent loop can fold them into the conversation.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]interface{}) (result *Result) {
	tool := r.Get(name)
	if tool == nil {
		return Fail("Unknown tool: %s", name)
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("tool panicked",
				zap.String("tool", name),
				zap.Any("panic", rec),
			)
			result = Fail("Tool execution failed: %v", rec)
		}
	}()

	res, err := tool.Execute(ctx, args)
	if err != nil && (res == nil || res.Success) {
		return Fail("Tool execution failed: %v", err)
	}
	if res == nil {
		return Fail("Tool returned no result")
	}
	return res
}
