package registry

import (
	"context"
	"fmt"
)

// HandlerFunc executes one tool.
type HandlerFunc func(ctx context.Context, args map[string]any) (any, error)

// Toolset is a Module built from a static table of tools and handlers.
// Modules embed it and fill the table in their constructor.
type Toolset struct {
	info     Info
	tools    []Tool
	handlers map[string]HandlerFunc
}

// NewToolset returns an empty Toolset for the named module.
func NewToolset(name, version string) *Toolset {
	return &Toolset{
		info:     Info{Name: name, Version: version},
		handlers: make(map[string]HandlerFunc),
	}
}

// Add declares a tool. It panics on a repeated name since tables are built at startup.
func (s *Toolset) Add(t Tool, h HandlerFunc) {
	if _, ok := s.handlers[t.Name]; ok {
		panic(fmt.Sprintf("toolset %s: tool %q added twice", s.info.Name, t.Name))
	}
	s.tools = append(s.tools, t)
	s.handlers[t.Name] = h
}

// Info implements Module.
func (s *Toolset) Info() Info { return s.info }

// Tools implements Module. The returned slice is a copy.
func (s *Toolset) Tools() []Tool {
	out := make([]Tool, len(s.tools))
	copy(out, s.tools)
	return out
}

// Call implements Module: validate against the tool schema, then run its handler.
func (s *Toolset) Call(ctx context.Context, name string, args map[string]any) (any, error) {
	h, ok := s.handlers[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w: %s", s.info.Name, ErrUnknownTool, name)
	}
	for _, t := range s.tools {
		if t.Name == name {
			if err := ValidateArguments(t, args); err != nil {
				return nil, err
			}
			break
		}
	}
	if args == nil {
		args = map[string]any{}
	}
	return h(ctx, args)
}
