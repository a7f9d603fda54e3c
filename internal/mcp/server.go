// Package mcp exposes the debugger operations as MCP tools over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"slices"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/coral-mesh/ferroscope/internal/debugger"
)

// Debugger is the set of operations the tools drive. *debugger.Dispatcher implements it.
type Debugger interface {
	Load(ctx context.Context, path string) (*debugger.Result, error)
	Break(ctx context.Context, location string) (*debugger.Result, error)
	Continue(ctx context.Context) (*debugger.Result, error)
	Step(ctx context.Context) (*debugger.Result, error)
	StepInto(ctx context.Context) (*debugger.Result, error)
	StepOut(ctx context.Context) (*debugger.Result, error)
	Eval(ctx context.Context, expr string) (*debugger.Result, error)
	Backtrace(ctx context.Context) (*debugger.Result, error)
	ListBreakpoints(ctx context.Context) (*debugger.Result, error)
	State(ctx context.Context) (*debugger.Result, error)
	Kill(ctx context.Context) (*debugger.Result, error)
}

// Config contains configuration for the MCP server.
type Config struct {
	// Name and Version are reported to clients during initialize.
	Name    string
	Version string

	// EnabledTools optionally restricts which tools are available.
	// If empty, all tools are enabled.
	EnabledTools []string

	// AuditEnabled logs every tool call with its arguments.
	AuditEnabled bool
}

// Server wraps the mcp-go server and registers the debugging tools on it.
type Server struct {
	mcpServer *server.MCPServer
	debugger  Debugger
	config    Config
	logger    zerolog.Logger
	tools     []string
}

// New creates a server with every enabled tool registered.
func New(d Debugger, config Config, logger zerolog.Logger) (*Server, error) {
	if config.Name == "" {
		return nil, fmt.Errorf("server name is required")
	}

	s := &Server{
		mcpServer: server.NewMCPServer(
			config.Name,
			config.Version,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
		debugger: d,
		config:   config,
		logger:   logger,
	}

	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	logger.Info().
		Str("name", config.Name).
		Int("tool_count", len(s.tools)).
		Bool("audit_enabled", config.AuditEnabled).
		Msg("MCP server initialized")

	return s, nil
}

// ToolNames returns the registered tool names in registration order.
func (s *Server) ToolNames() []string {
	return slices.Clone(s.tools)
}

// HandleMessage processes one raw JSON-RPC message and returns the reply.
func (s *Server) HandleMessage(ctx context.Context, message json.RawMessage) any {
	return s.mcpServer.HandleMessage(ctx, message)
}

// ServeStdio serves MCP on the given streams until ctx is done or in is closed.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.Info().Msg("Starting MCP server on stdio")

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(log.New(s.logger, "", 0))

	err := stdio.Listen(ctx, in, out)
	if err != nil && (ctx.Err() != nil || errors.Is(err, io.EOF)) {
		return nil
	}
	return err
}

func (s *Server) isToolEnabled(name string) bool {
	if len(s.config.EnabledTools) == 0 {
		return true
	}
	return slices.Contains(s.config.EnabledTools, name)
}

// auditToolCall logs a tool invocation if auditing is enabled.
func (s *Server) auditToolCall(name string, args any) {
	if !s.config.AuditEnabled {
		return
	}

	argsJSON, err := json.Marshal(args)
	if err != nil {
		argsJSON = []byte("null")
	}
	s.logger.Info().
		Str("tool", name).
		RawJSON("args", argsJSON).
		Msg("MCP tool called")
}
