package tools

import (
	"context"
	"fmt"
	"sync"
)

type LocalToolSource struct {
	name  string
	tools map[string]Tool
	mu    sync.RWMutex
}

func NewLocalToolSource(name string) *LocalToolSource {
	if name == "" {
		name = "local"
	}

	return &LocalToolSource{
		name:  name,
		tools: make(map[string]Tool),
	}
}

// NewLocalToolSourceWithConfig builds the source from an enabled-tool list.
// An empty list enables every built-in tool.
func NewLocalToolSourceWithConfig(enabled []string) (*LocalToolSource, error) {
	source := NewLocalToolSource("local")

	builtins := map[string]func() Tool{
		"calculator":      func() Tool { return NewCalculatorTool() },
		"date_calculator": func() Tool { return NewDateCalculatorTool() },
	}

	if len(enabled) == 0 {
		for name := range builtins {
			enabled = append(enabled, name)
		}
	}

	for _, name := range enabled {
		build, ok := builtins[name]
		if !ok {
			return nil, fmt.Errorf("unknown local tool %q", name)
		}
		if err := source.RegisterTool(build()); err != nil {
			return nil, err
		}
	}

	return source, nil
}

func (s *LocalToolSource) RegisterTool(tool Tool) error {
	name := tool.GetName()
	if name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tools[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}

	s.tools[name] = tool
	return nil
}

func (s *LocalToolSource) GetName() string {
	return s.name
}

func (s *LocalToolSource) GetType() string {
	return "local"
}

// DiscoverTools is a no-op; local tools are registered at construction.
func (s *LocalToolSource) DiscoverTools(ctx context.Context) error {
	return nil
}

func (s *LocalToolSource) ListTools() []ToolInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]ToolInfo, 0, len(s.tools))
	for _, tool := range s.tools {
		infos = append(infos, tool.GetInfo())
	}
	return infos
}

func (s *LocalToolSource) GetTool(name string) (Tool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tool, exists := s.tools[name]
	return tool, exists
}
