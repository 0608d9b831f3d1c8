package tools

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
)

// HandlerFunc executes a custom tool locally. Handlers are pure functions
// over their JSON input; they perform no network I/O and return a
// JSON-serializable result.
type HandlerFunc func(ctx context.Context, input json.RawMessage) (interface{}, error)

// Definition describes one custom tool declared to the model.
type Definition struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	InputSchema *jsonschema.Schema `json:"input_schema"`
	Handler     HandlerFunc        `json:"-"`
}

// Registry manages available custom tools with thread-safe operations.
type Registry interface {
	Register(def Definition) error
	Get(name string) (*Definition, error)
	List() []Definition
	Has(name string) bool
}

// InMemoryRegistry is a thread-safe in-memory implementation of Registry.
type InMemoryRegistry struct {
	mu    sync.RWMutex
	tools map[string]Definition
	order []string
}

func NewInMemoryRegistry() *InMemoryRegistry {
	return &InMemoryRegistry{
		tools: make(map[string]Definition),
	}
}

func (r *InMemoryRegistry) Register(def Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if def.Name == "" {
		return errors.New("tool name cannot be empty")
	}
	if def.Handler == nil {
		return errors.Errorf("tool %s has no handler", def.Name)
	}
	if _, exists := r.tools[def.Name]; !exists {
		r.order = append(r.order, def.Name)
	}
	r.tools[def.Name] = def
	return nil
}

func (r *InMemoryRegistry) Get(name string) (*Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, exists := r.tools[name]
	if !exists {
		return nil, errors.Errorf("tool not found: %s", name)
	}

	// copy to prevent external modification
	toolCopy := tool
	return &toolCopy, nil
}

// List returns all registered tools in registration order.
func (r *InMemoryRegistry) List() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]Definition, 0, len(r.tools))
	for _, name := range r.order {
		tools = append(tools, r.tools[name])
	}
	return tools
}

func (r *InMemoryRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.tools[name]
	return exists
}

var _ Registry = (*InMemoryRegistry)(nil)
