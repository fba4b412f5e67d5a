package tool

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Registry holds registered tools and exposes their discovery metadata.
// It is instance-based (not global) for better testability.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool to the registry.
// It returns ErrInvalidRisk if the tool declares an unknown risk level,
// and ErrDuplicateTool if a tool with the same name is already registered.
func (r *Registry) Register(t Tool) error {
	name := strings.TrimSpace(t.Name())
	if name == "" {
		return ErrEmptyToolName
	}
	if !t.Risk().Valid() {
		return fmt.Errorf("%w: %s (%q)", ErrInvalidRisk, name, t.Risk())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, name)
	}

	r.tools[name] = t
	return nil
}

// Get returns the tool with the given name, or ErrToolNotFound.
func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return t, nil
}

// Names returns all registered tool names sorted alphabetically.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Descriptors returns the discovery metadata for all registered tools,
// sorted by name.
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ds := make([]Descriptor, 0, len(r.tools))
	for name, t := range r.tools {
		ds = append(ds, Descriptor{
			Name:                   name,
			Method:                 t.Method(),
			Path:                   t.Path(),
			Description:            t.Description(),
			Risk:                   t.Risk(),
			SupportsIdempotencyKey: t.Idempotent(),
			InputSchema:            t.InputSchema(),
			OutputSchema:           t.OutputSchema(),
		})
	}
	slices.SortFunc(ds, func(a, b Descriptor) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return ds
}
