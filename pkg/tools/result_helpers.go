package tools

import "time"

func successResult(toolName, content string, start time.Time) ToolResult {
	return ToolResult{
		Success:       true,
		Content:       content,
		ToolName:      toolName,
		ExecutionTime: time.Since(start),
	}
}

func errorResult(toolName, message string, start time.Time) ToolResult {
	return ToolResult{
		Success:       false,
		Error:         message,
		ToolName:      toolName,
		ExecutionTime: time.Since(start),
	}
}
