package tools

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/labourlens/labourlens/pkg/config"
	"github.com/labourlens/labourlens/pkg/registry"
)

// ToolEntry ties a tool to the source it was discovered from.
type ToolEntry struct {
	Tool       Tool
	Source     ToolSource
	SourceType string
	Name       string
}

type Registry struct {
	entries *registry.Registry[ToolEntry]
	sources []ToolSource
	timeout time.Duration
}

func NewRegistry() *Registry {
	return &Registry{
		entries: registry.New[ToolEntry](),
	}
}

// NewRegistryFromConfig builds the registry from configuration: the
// built-in local tools plus any configured MCP servers. An MCP server
// that cannot be reached is logged and skipped rather than failing
// startup; the pipeline should keep answering questions when a tool
// server is down.
func NewRegistryFromConfig(cfg *config.ToolsConfig) (*Registry, error) {
	r := NewRegistry()
	r.timeout = time.Duration(cfg.Timeout) * time.Second

	local, err := NewLocalToolSourceWithConfig(cfg.Local)
	if err != nil {
		return nil, fmt.Errorf("failed to build local tools: %w", err)
	}
	if err := r.RegisterSource(context.Background(), local); err != nil {
		return nil, err
	}

	for _, serverCfg := range cfg.MCPServers {
		source, err := NewMCPToolSource(serverCfg, r.timeout)
		if err != nil {
			return nil, err
		}
		if err := r.RegisterSource(context.Background(), source); err != nil {
			slog.Warn("Skipping unreachable MCP server",
				"name", serverCfg.Name,
				"url", serverCfg.URL,
				"error", err,
			)
		}
	}

	return r, nil
}

func (r *Registry) RegisterSource(ctx context.Context, source ToolSource) error {
	name := source.GetName()
	if name == "" {
		return fmt.Errorf("tool source name cannot be empty")
	}

	if err := source.DiscoverTools(ctx); err != nil {
		return fmt.Errorf("failed to discover tools from source %s: %w", name, err)
	}

	for _, info := range source.ListTools() {
		tool, ok := source.GetTool(info.Name)
		if !ok {
			continue
		}
		entry := ToolEntry{
			Tool:       tool,
			Source:     source,
			SourceType: source.GetType(),
			Name:       info.Name,
		}
		if err := r.entries.Register(info.Name, entry); err != nil {
			return fmt.Errorf("failed to register tool %s from source %s: %w", info.Name, name, err)
		}
	}

	r.sources = append(r.sources, source)
	return nil
}

func (r *Registry) GetTool(name string) (Tool, bool) {
	entry, ok := r.entries.Get(name)
	if !ok {
		return nil, false
	}
	return entry.Tool, true
}

func (r *Registry) ListTools() []ToolInfo {
	entries := r.entries.List()
	infos := make([]ToolInfo, 0, len(entries))
	for _, entry := range entries {
		infos = append(infos, entry.Tool.GetInfo())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// ExecuteTool runs a registered tool under the configured timeout.
// A missing tool and a failed execution both come back as an
// unsuccessful ToolResult so callers have one shape to deal with.
func (r *Registry) ExecuteTool(ctx context.Context, name string, args map[string]interface{}) (ToolResult, error) {
	start := time.Now()

	tool, ok := r.GetTool(name)
	if !ok {
		return errorResult(name, fmt.Sprintf("tool %q not found", name), start),
			fmt.Errorf("tool %q not found", name)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	result, err := tool.Execute(ctx, args)
	if err != nil {
		slog.Debug("Tool execution failed",
			"tool", name,
			"duration", time.Since(start),
			"error", err,
		)
	}
	return result, err
}

// Close shuts down sources that hold connections.
func (r *Registry) Close() error {
	var firstErr error
	for _, source := range r.sources {
		if closer, ok := source.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
