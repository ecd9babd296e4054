package tools

import (
	"testing"
	"time"

	mcpprotocol "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labourlens/labourlens/pkg/config"
)

func TestNewMCPToolSourceValidation(t *testing.T) {
	_, err := NewMCPToolSource(config.MCPServerConfig{URL: "http://localhost:9000/mcp"}, time.Second)
	assert.Error(t, err)

	_, err = NewMCPToolSource(config.MCPServerConfig{Name: "hr-tools"}, time.Second)
	assert.Error(t, err)

	source, err := NewMCPToolSource(config.MCPServerConfig{
		Name: "hr-tools",
		URL:  "http://localhost:9000/mcp",
	}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "hr-tools", source.GetName())
	assert.Equal(t, "mcp", source.GetType())
	assert.Empty(t, source.ListTools())
}

func TestConvertMCPParameters(t *testing.T) {
	schema := mcpprotocol.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"province": map[string]interface{}{
				"type":        "string",
				"description": "Two-letter province code",
				"enum":        []interface{}{"ON", "BC", "AB"},
			},
			"year": map[string]interface{}{
				"type": "number",
			},
		},
		Required: []string{"province"},
	}

	params := convertMCPParameters(schema)
	require.Len(t, params, 2)

	byName := make(map[string]ToolParameter, len(params))
	for _, p := range params {
		byName[p.Name] = p
	}

	province := byName["province"]
	assert.True(t, province.Required)
	assert.Equal(t, "string", province.Type)
	assert.Equal(t, []string{"ON", "BC", "AB"}, province.Enum)

	year := byName["year"]
	assert.False(t, year.Required)
	assert.Equal(t, "number", year.Type)
}

func TestCollectTextContent(t *testing.T) {
	content := []mcpprotocol.Content{
		mcpprotocol.TextContent{Type: "text", Text: "first"},
		mcpprotocol.TextContent{Type: "text", Text: "second"},
	}
	assert.Equal(t, "first\nsecond", collectTextContent(content))
	assert.Equal(t, "", collectTextContent(nil))
}
