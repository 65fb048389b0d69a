// Package registry holds the pluggable tool modules and routes tool calls to them.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

var (
	// ErrToolNotFound is returned when no registered module owns a tool name.
	ErrToolNotFound = errors.New("tool not found")
	// ErrServerNotFound is returned when routing to a module name that was never registered.
	ErrServerNotFound = errors.New("server not found")
	// ErrDuplicateTool is returned by Register when a tool name is already owned by another module.
	ErrDuplicateTool = errors.New("duplicate tool")
	// ErrUnknownTool is returned by a module asked to run a tool it does not declare.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrInvalidArguments is returned when call arguments do not satisfy the tool's input schema.
	ErrInvalidArguments = errors.New("invalid arguments")
)

// Tool describes a named, schema-described operation a client may invoke.
type Tool struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	InputSchema *jsonschema.Schema `json:"inputSchema"`
}

// ListedTool is a Tool tagged with the name of the module that owns it.
type ListedTool struct {
	Tool
	Server string `json:"_server"`
}

// Info identifies a module.
type Info struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Module is a cohesive set of tools registered as a unit.
type Module interface {
	Info() Info
	Tools() []Tool
	Call(ctx context.Context, name string, args map[string]any) (any, error)
}

// Registry is the ordered set of registered modules plus a tool name index.
// Modules are registered during startup; after that it is read-only.
type Registry struct {
	mu      sync.RWMutex
	modules []Module
	byTool  map[string]Module
	byName  map[string]Module
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		byTool: make(map[string]Module),
		byName: make(map[string]Module),
	}
}

// Register appends m and indexes its tools. A module whose name or any tool
// name is already taken is rejected as a whole and the registry is left unchanged.
func (r *Registry) Register(m Module) error {
	if m == nil {
		return errors.New("register: nil module")
	}
	info := m.Info()
	if info.Name == "" {
		return errors.New("register: module name is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[info.Name]; ok {
		return fmt.Errorf("register %s: %w: server already registered", info.Name, ErrDuplicateTool)
	}
	tools := m.Tools()
	seen := make(map[string]struct{}, len(tools))
	for _, t := range tools {
		if t.Name == "" {
			return fmt.Errorf("register %s: tool with empty name", info.Name)
		}
		if owner, ok := r.byTool[t.Name]; ok {
			return fmt.Errorf("register %s: %w: %q already provided by %s", info.Name, ErrDuplicateTool, t.Name, owner.Info().Name)
		}
		if _, ok := seen[t.Name]; ok {
			return fmt.Errorf("register %s: %w: %q declared twice", info.Name, ErrDuplicateTool, t.Name)
		}
		seen[t.Name] = struct{}{}
	}

	for _, t := range tools {
		r.byTool[t.Name] = m
	}
	r.byName[info.Name] = m
	r.modules = append(r.modules, m)
	return nil
}

// ListAllTools returns every tool of every module in registration order.
func (r *Registry) ListAllTools() []ListedTool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ListedTool, 0, len(r.byTool))
	for _, m := range r.modules {
		name := m.Info().Name
		for _, t := range m.Tools() {
			out = append(out, ListedTool{Tool: t, Server: name})
		}
	}
	return out
}

// CallTool runs the tool called name on the module that owns it.
func (r *Registry) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	r.mu.RLock()
	m, ok := r.byTool[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrToolNotFound, name)
	}
	return m.Call(ctx, name, args)
}

// CallToolOn runs the tool on the named module, skipping the tool index.
func (r *Registry) CallToolOn(ctx context.Context, server, name string, args map[string]any) (any, error) {
	m, ok := r.Server(server)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrServerNotFound, server)
	}
	for _, t := range m.Tools() {
		if t.Name == name {
			return m.Call(ctx, name, args)
		}
	}
	return nil, fmt.Errorf("%w: %q on server %q", ErrToolNotFound, name, server)
}

// Lookup returns the tool descriptor and owning module name for a tool.
func (r *Registry) Lookup(name string) (Tool, string, bool) {
	r.mu.RLock()
	m, ok := r.byTool[name]
	r.mu.RUnlock()
	if !ok {
		return Tool{}, "", false
	}
	for _, t := range m.Tools() {
		if t.Name == name {
			return t, m.Info().Name, true
		}
	}
	return Tool{}, "", false
}

// Server returns the module registered under name.
func (r *Registry) Server(name string) (Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byName[name]
	return m, ok
}

// Servers lists module names and versions in registration order.
func (r *Registry) Servers() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Info, 0, len(r.modules))
	for _, m := range r.modules {
		out = append(out, m.Info())
	}
	return out
}

// CombinedInfo is the aggregate identity reported to clients on initialize.
type CombinedInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Servers []Info `json:"servers"`
	Count   int    `json:"count"`
}

// CombinedInfo describes the registry as a single multi-module server.
func (r *Registry) CombinedInfo(name, version string) CombinedInfo {
	servers := r.Servers()
	return CombinedInfo{Name: name, Version: version, Servers: servers, Count: len(servers)}
}
