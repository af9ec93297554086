// Package registry manages the tools available to the planner, grouped
// by business domain.
package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/aaasjp/travel-bill-agent/pkg/domain"
	"github.com/aaasjp/travel-bill-agent/pkg/ports"
)

// Default group names.
const (
	GroupDefault      = "default"
	GroupBusinessTrip = "business_trip"
)

// Registry indexes tools by name and by group.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]ports.Tool
	groups map[string][]string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		tools:  make(map[string]ports.Tool),
		groups: make(map[string][]string),
	}
}

// Register adds a tool under a group. Registering an existing name
// overwrites the previous tool but keeps a single group entry.
func (r *Registry) Register(group string, tool ports.Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := tool.Name()
	if _, exists := r.tools[name]; !exists {
		r.groups[group] = append(r.groups[group], name)
		sort.Strings(r.groups[group])
	}
	r.tools[name] = tool
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (ports.Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrToolNotFound, name)
	}
	return tool, nil
}

// Invoke looks up a tool by name and runs it.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (any, error) {
	tool, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	return tool.Invoke(ctx, args)
}

// Tools returns all registered tools sorted by name.
func (r *Registry) Tools() []ports.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]ports.Tool, 0, len(names))
	for _, name := range names {
		out = append(out, r.tools[name])
	}
	return out
}

// Group returns the tool names registered under a group, sorted.
func (r *Registry) Group(group string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.groups[group]...)
}

// Describe renders the tool catalog for the planner prompt: each tool's
// name, description, and parameter summary.
func (r *Registry) Describe() string {
	var b strings.Builder
	for _, tool := range r.Tools() {
		b.WriteString(tool.Name())
		b.WriteString(": ")
		b.WriteString(tool.Description())
		b.WriteString("\n")
		if params := tool.Parameters(); params != nil {
			b.WriteString(params.Describe())
		}
		b.WriteString("\n")
	}
	return b.String()
}
