package agent

import (
	"fmt"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/martinemde/orchid/llmwire"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Tool declares a callable the model may invoke. Params is the positional
// manifest for Fn's signature; a param named ContextParam receives the
// caller's context value instead of a model-supplied argument.
type Tool struct {
	Name        string
	Description string
	Params      []Param
	Fn          any
}

type registeredTool struct {
	def      Tool
	schema   map[string]any
	callable *boundCallable
}

// Registry holds registered tools and dispatches invocations. It is safe for
// concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*registeredTool
	order []string
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*registeredTool)}
}

// Register validates and adds a tool. Name collisions fail with
// DuplicateToolNameError and leave the registry unchanged.
func (r *Registry) Register(t Tool) error {
	if t.Name == "" {
		return fmt.Errorf("tool name must not be empty")
	}

	bindings := make([]Binding, len(t.Params))
	for i, p := range t.Params {
		bindings[i] = Binding{Name: p.Name, Optional: p.Optional || p.Name == ContextParam}
	}
	callable, err := bindCallable(t.Fn, bindings)
	if err != nil {
		return fmt.Errorf("tool %q: %w", t.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[t.Name]; exists {
		return &DuplicateToolNameError{Name: t.Name}
	}

	r.tools[t.Name] = &registeredTool{
		def:      t,
		schema:   schemaFor(t),
		callable: callable,
	}
	r.order = append(r.order, t.Name)
	return nil
}

// Has reports whether a tool with the given name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// SchemaFor returns the derived parameter schema for a tool.
func (r *Registry) SchemaFor(name string) (map[string]any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rt, ok := r.tools[name]
	if !ok {
		return nil, false
	}
	return rt.schema, true
}

// Definitions returns wire-level tool definitions in registration order, for
// inclusion in model requests.
func (r *Registry) Definitions() []llmwire.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]llmwire.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		rt := r.tools[name]
		defs = append(defs, llmwire.ToolDefinition{
			Name:        rt.def.Name,
			Description: rt.def.Description,
			Parameters:  rt.schema,
		})
	}
	return defs
}

// Dispatch parses rawArgs, injects the context value under ContextParam, and
// invokes the tool. The handler's result is stringified for the conversation.
// Failures return a typed error; the caller decides how to surface it.
func (r *Registry) Dispatch(name, rawArgs string, contextValue any) (string, error) {
	r.mu.RLock()
	rt, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return "", &ToolNotFoundError{Name: name}
	}

	pool := make(map[string]any)
	if strings.TrimSpace(rawArgs) != "" {
		if err := json.UnmarshalFromString(rawArgs, &pool); err != nil {
			return "", &ArgumentParseError{Tool: name, Cause: err}
		}
	}
	pool[ContextParam] = contextValue

	result, err := rt.callable.call(pool)
	if err != nil {
		if _, ok := err.(*MissingDependencyError); ok {
			return "", err
		}
		return "", &ToolExecutionError{Tool: name, Cause: err}
	}

	return stringifyResult(result), nil
}

// stringifyResult renders a handler's return value as conversation text.
// Strings pass through; everything else is JSON-encoded.
func stringifyResult(result any) string {
	switch v := result.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		encoded, err := json.MarshalToString(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return encoded
	}
}
