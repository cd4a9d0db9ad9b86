package tools

import (
	"context"
	"encoding/json"
)

// ToolResult represents the result of a tool execution.
type ToolResult struct {
	Content string `json:"content"`
	IsError bool   `json:"is_error,omitempty"`
}

// Tool defines the interface for capabilities an agent may invoke.
// Implementations validate their own argument payload before doing work.
type Tool interface {
	// Name returns the unique name of the tool
	Name() string

	// Description returns a description of what the tool does
	Description() string

	// Parameters returns the JSON Schema for the tool's parameters
	Parameters() json.RawMessage

	// Execute runs the tool with the given arguments and returns the result
	Execute(ctx context.Context, args json.RawMessage) (ToolResult, error)
}

// Func adapts a plain function into a Tool. Useful for capabilities that
// close over other services, like agent delegation.
type Func struct {
	ToolName        string
	ToolDescription string
	ToolParameters  json.RawMessage
	Fn              func(ctx context.Context, args json.RawMessage) (ToolResult, error)
}

func (f Func) Name() string                { return f.ToolName }
func (f Func) Description() string         { return f.ToolDescription }
func (f Func) Parameters() json.RawMessage { return f.ToolParameters }

func (f Func) Execute(ctx context.Context, args json.RawMessage) (ToolResult, error) {
	return f.Fn(ctx, args)
}
