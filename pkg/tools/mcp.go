package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	mcpclient "github.com/mark3labs/mcp-go/client"
	mcpprotocol "github.com/mark3labs/mcp-go/mcp"

	"github.com/labourlens/labourlens/pkg/config"
)

// MCPToolSource exposes tools discovered from a remote MCP server over
// streamable HTTP. Discovery happens in DiscoverTools, not at
// construction, so an unreachable server fails where the caller can
// decide what to do about it.
type MCPToolSource struct {
	name    string
	url     string
	timeout time.Duration

	mu     sync.RWMutex
	client *mcpclient.Client
	tools  map[string]Tool
}

func NewMCPToolSource(cfg config.MCPServerConfig, timeout time.Duration) (*MCPToolSource, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("mcp server name is required")
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("mcp server %q: url is required", cfg.Name)
	}

	return &MCPToolSource{
		name:    cfg.Name,
		url:     cfg.URL,
		timeout: timeout,
		tools:   make(map[string]Tool),
	}, nil
}

func (s *MCPToolSource) GetName() string {
	return s.name
}

func (s *MCPToolSource) GetType() string {
	return "mcp"
}

func (s *MCPToolSource) DiscoverTools(ctx context.Context) error {
	client, err := mcpclient.NewStreamableHttpClient(s.url)
	if err != nil {
		return fmt.Errorf("failed to create MCP client for %s: %w", s.name, err)
	}

	if err := client.Start(ctx); err != nil {
		return fmt.Errorf("failed to start MCP client for %s: %w", s.name, err)
	}

	initReq := mcpprotocol.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcpprotocol.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcpprotocol.Implementation{
		Name:    "labourlens",
		Version: "1.0.0",
	}

	if _, err := client.Initialize(ctx, initReq); err != nil {
		client.Close()
		return fmt.Errorf("failed to initialize MCP session with %s: %w", s.name, err)
	}

	listResp, err := client.ListTools(ctx, mcpprotocol.ListToolsRequest{})
	if err != nil {
		client.Close()
		return fmt.Errorf("failed to list tools from %s: %w", s.name, err)
	}

	tools := make(map[string]Tool, len(listResp.Tools))
	for _, mcpTool := range listResp.Tools {
		tools[mcpTool.Name] = &mcpRemoteTool{
			source:      s,
			name:        mcpTool.Name,
			description: mcpTool.Description,
			parameters:  convertMCPParameters(mcpTool.InputSchema),
		}
	}

	s.mu.Lock()
	if s.client != nil {
		s.client.Close()
	}
	s.client = client
	s.tools = tools
	s.mu.Unlock()

	slog.Info("Connected to MCP server",
		"name", s.name,
		"url", s.url,
		"tools", len(tools),
	)
	return nil
}

func (s *MCPToolSource) ListTools() []ToolInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]ToolInfo, 0, len(s.tools))
	for _, tool := range s.tools {
		infos = append(infos, tool.GetInfo())
	}
	return infos
}

func (s *MCPToolSource) GetTool(name string) (Tool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tool, exists := s.tools[name]
	return tool, exists
}

func (s *MCPToolSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return err
}

// mcpRemoteTool is one remote tool exposed through an MCPToolSource.
type mcpRemoteTool struct {
	source      *MCPToolSource
	name        string
	description string
	parameters  []ToolParameter
}

func (t *mcpRemoteTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name:        t.name,
		Description: t.description,
		Parameters:  t.parameters,
		ServerURL:   t.source.url,
	}
}

func (t *mcpRemoteTool) GetName() string {
	return t.name
}

func (t *mcpRemoteTool) GetDescription() string {
	return t.description
}

func (t *mcpRemoteTool) Execute(ctx context.Context, args map[string]interface{}) (ToolResult, error) {
	start := time.Now()

	t.source.mu.RLock()
	client := t.source.client
	t.source.mu.RUnlock()

	if client == nil {
		return errorResult(t.name, "MCP client not connected", start),
			fmt.Errorf("MCP client not connected")
	}

	if t.source.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.source.timeout)
		defer cancel()
	}

	req := mcpprotocol.CallToolRequest{}
	req.Params.Name = t.name
	req.Params.Arguments = args

	resp, err := client.CallTool(ctx, req)
	if err != nil {
		return errorResult(t.name, err.Error(), start),
			fmt.Errorf("MCP call failed: %w", err)
	}

	content := collectTextContent(resp.Content)
	if resp.IsError {
		if content == "" {
			content = "unknown error"
		}
		return errorResult(t.name, content, start), nil
	}

	return successResult(t.name, content, start), nil
}

func collectTextContent(content []mcpprotocol.Content) string {
	var texts []string
	for _, c := range content {
		if textContent, ok := c.(mcpprotocol.TextContent); ok {
			texts = append(texts, textContent.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// convertMCPParameters flattens the JSON schema of an MCP tool into the
// flat parameter list the rest of the tool layer works with.
func convertMCPParameters(schema mcpprotocol.ToolInputSchema) []ToolParameter {
	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	params := make([]ToolParameter, 0, len(schema.Properties))
	for name, raw := range schema.Properties {
		param := ToolParameter{
			Name:     name,
			Type:     "string",
			Required: required[name],
		}
		if prop, ok := raw.(map[string]interface{}); ok {
			if typ, ok := prop["type"].(string); ok {
				param.Type = typ
			}
			if desc, ok := prop["description"].(string); ok {
				param.Description = desc
			}
			if enumRaw, ok := prop["enum"].([]interface{}); ok {
				for _, e := range enumRaw {
					if str, ok := e.(string); ok {
						param.Enum = append(param.Enum, str)
					}
				}
			}
		}
		params = append(params, param)
	}
	return params
}
