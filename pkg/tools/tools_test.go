package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labourlens/labourlens/pkg/config"
)

func TestCalculatorExpressions(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"2 + 2", "4"},
		{"44 * 1.5 * 10", "660"},
		{"(8 + 4) * 2", "24"},
		{"10 / 4", "2.5"},
		{"-3 + 5", "2"},
		{"100 % 7", "2"},
	}

	calc := NewCalculatorTool()
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			result, err := calc.Execute(context.Background(), map[string]interface{}{
				"expression": tt.expr,
			})
			require.NoError(t, err)
			assert.True(t, result.Success)
			assert.Equal(t, tt.want, result.Content)
		})
	}
}

func TestCalculatorErrors(t *testing.T) {
	calc := NewCalculatorTool()

	_, err := calc.Execute(context.Background(), map[string]interface{}{})
	assert.Error(t, err)

	result, err := calc.Execute(context.Background(), map[string]interface{}{
		"expression": "5 / 0",
	})
	assert.Error(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "division by zero")

	_, err = calc.Execute(context.Background(), map[string]interface{}{
		"expression": "2 +",
	})
	assert.Error(t, err)
}

func TestDateCalculatorDaysBetween(t *testing.T) {
	tool := NewDateCalculatorTool()

	result, err := tool.Execute(context.Background(), map[string]interface{}{
		"operation":  "days_between",
		"start_date": "2025-01-01",
		"end_date":   "2025-01-15",
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "14", result.Content)
}

func TestDateCalculatorBusinessDays(t *testing.T) {
	tool := NewDateCalculatorTool()

	// 2025-01-06 is a Monday; one full week later has 5 weekdays.
	result, err := tool.Execute(context.Background(), map[string]interface{}{
		"operation":  "business_days_between",
		"start_date": "2025-01-06",
		"end_date":   "2025-01-13",
	})
	require.NoError(t, err)
	assert.Equal(t, "5", result.Content)

	result, err = tool.Execute(context.Background(), map[string]interface{}{
		"operation":  "add_business_days",
		"start_date": "2025-01-03", // Friday
		"days":       float64(2),
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-01-07", result.Content)
}

func TestDateCalculatorRejectsBadInput(t *testing.T) {
	tool := NewDateCalculatorTool()

	result, err := tool.Execute(context.Background(), map[string]interface{}{
		"operation":  "days_between",
		"start_date": "Jan 1 2025",
		"end_date":   "2025-01-15",
	})
	assert.Error(t, err)
	assert.False(t, result.Success)

	_, err = tool.Execute(context.Background(), map[string]interface{}{
		"operation":  "shred_documents",
		"start_date": "2025-01-01",
	})
	assert.Error(t, err)
}

func TestLocalToolSourceEnablesAllByDefault(t *testing.T) {
	source, err := NewLocalToolSourceWithConfig(nil)
	require.NoError(t, err)

	assert.Len(t, source.ListTools(), 2)

	_, ok := source.GetTool("calculator")
	assert.True(t, ok)
	_, ok = source.GetTool("date_calculator")
	assert.True(t, ok)
}

func TestLocalToolSourceHonorsEnabledList(t *testing.T) {
	source, err := NewLocalToolSourceWithConfig([]string{"calculator"})
	require.NoError(t, err)

	assert.Len(t, source.ListTools(), 1)
	_, ok := source.GetTool("date_calculator")
	assert.False(t, ok)

	_, err = NewLocalToolSourceWithConfig([]string{"nonexistent"})
	assert.Error(t, err)
}

func TestRegistryFromConfig(t *testing.T) {
	cfg := &config.ToolsConfig{}
	cfg.SetDefaults()

	reg, err := NewRegistryFromConfig(cfg)
	require.NoError(t, err)
	defer reg.Close()

	infos := reg.ListTools()
	require.Len(t, infos, 2)
	assert.Equal(t, "calculator", infos[0].Name)
	assert.Equal(t, "date_calculator", infos[1].Name)

	result, err := reg.ExecuteTool(context.Background(), "calculator", map[string]interface{}{
		"expression": "6 * 7",
	})
	require.NoError(t, err)
	assert.Equal(t, "42", result.Content)
}

func TestRegistryUnknownTool(t *testing.T) {
	reg := NewRegistry()

	result, err := reg.ExecuteTool(context.Background(), "missing", nil)
	assert.Error(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "missing", result.ToolName)
}

func TestRegistryRejectsDuplicateToolNames(t *testing.T) {
	reg := NewRegistry()

	first, err := NewLocalToolSourceWithConfig([]string{"calculator"})
	require.NoError(t, err)
	require.NoError(t, reg.RegisterSource(context.Background(), first))

	second, err := NewLocalToolSourceWithConfig([]string{"calculator"})
	require.NoError(t, err)
	assert.Error(t, reg.RegisterSource(context.Background(), second))
}
