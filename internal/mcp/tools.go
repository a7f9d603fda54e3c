package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/coral-mesh/ferroscope/internal/debugger"
)

type toolHandler = server.ToolHandlerFunc

// registerTools registers all MCP tools with the server.
func (s *Server) registerTools() error {
	tools := []struct {
		name        string
		description string
		input       any
		handler     toolHandler
	}{
		{"debug_run", "Load and prepare a Rust program for debugging", RunInput{}, s.handleRun},
		{"debug_break", "Set a breakpoint at the specified function or line", BreakInput{}, s.handleBreak},
		{"debug_continue", "Launch program (if not started) or continue execution until next breakpoint", NoInput{}, s.noArgs("debug_continue", s.debugger.Continue)},
		{"debug_step", "Step to the next line of code (step over function calls)", NoInput{}, s.noArgs("debug_step", s.debugger.Step)},
		{"debug_step_into", "Step into function calls", NoInput{}, s.noArgs("debug_step_into", s.debugger.StepInto)},
		{"debug_step_out", "Step out of the current function", NoInput{}, s.noArgs("debug_step_out", s.debugger.StepOut)},
		{"debug_eval", "Evaluate an expression or inspect a variable in the current debugging context", EvalInput{}, s.handleEval},
		{"debug_backtrace", "Show the current call stack", NoInput{}, s.noArgs("debug_backtrace", s.debugger.Backtrace)},
		{"debug_list_breakpoints", "List all active breakpoints", NoInput{}, s.noArgs("debug_list_breakpoints", s.debugger.ListBreakpoints)},
		{"debug_state", "Get current debugging session state", NoInput{}, s.noArgs("debug_state", s.debugger.State)},
		{"debug_kill", "Terminate the debugger and discard the current session", NoInput{}, s.noArgs("debug_kill", s.debugger.Kill)},
	}

	for _, t := range tools {
		if err := s.registerToolWithSchema(t.name, t.description, t.input, t.handler); err != nil {
			return err
		}
	}
	return nil
}

// registerToolWithSchema generates the input schema for inputType and registers the tool.
func (s *Server) registerToolWithSchema(name, description string, inputType any, handler toolHandler) error {
	if !s.isToolEnabled(name) {
		s.logger.Debug().Str("tool", name).Msg("Tool disabled by configuration")
		return nil
	}

	schema, err := generateInputSchema(inputType)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	s.mcpServer.AddTool(mcp.NewToolWithRawSchema(name, description, schema), handler)
	s.tools = append(s.tools, name)

	s.logger.Debug().Str("tool", name).Msg("Tool registered")
	return nil
}

// decodeArguments copies the request arguments into input.
func decodeArguments(request mcp.CallToolRequest, input any) error {
	if request.Params.Arguments == nil {
		return nil
	}
	argBytes, err := json.Marshal(request.Params.Arguments)
	if err != nil {
		return fmt.Errorf("failed to marshal arguments: %w", err)
	}
	if err := json.Unmarshal(argBytes, input); err != nil {
		return fmt.Errorf("failed to parse arguments: %w", err)
	}
	return nil
}

// toolResult renders a debugger result as pretty JSON text. A Go error means the call never
// reached the debugger and becomes a tool error.
func toolResult(res *debugger.Result, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(text)), nil
}

func missing(argument string) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("missing required argument: %s", argument))
}

func (s *Server) handleRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input RunInput
	if err := decodeArguments(request, &input); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.auditToolCall("debug_run", input)

	if strings.TrimSpace(input.BinaryPath) == "" {
		return missing("binary_path"), nil
	}
	return toolResult(s.debugger.Load(ctx, input.BinaryPath))
}

func (s *Server) handleBreak(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input BreakInput
	if err := decodeArguments(request, &input); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.auditToolCall("debug_break", input)

	if strings.TrimSpace(input.Location) == "" {
		return missing("location"), nil
	}
	return toolResult(s.debugger.Break(ctx, input.Location))
}

func (s *Server) handleEval(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input EvalInput
	if err := decodeArguments(request, &input); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.auditToolCall("debug_eval", input)

	if strings.TrimSpace(input.Expression) == "" {
		return missing("expression"), nil
	}
	return toolResult(s.debugger.Eval(ctx, input.Expression))
}

// noArgs adapts an argument-less operation into a tool handler.
func (s *Server) noArgs(name string, op func(ctx context.Context) (*debugger.Result, error)) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s.auditToolCall(name, NoInput{})
		return toolResult(op(ctx))
	}
}
