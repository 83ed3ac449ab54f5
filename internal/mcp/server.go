package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"blocks/internal/domain"
	"blocks/internal/service"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// Server is the MCP server for block groups.
// It exposes the query API and the block list editor as tools so AI agents
// can read and edit localized block group content.
type Server struct {
	mcp *server.MCPServer
	log *zap.Logger

	// Services (injected from app layer)
	blocks  *service.BlockGroupService
	editor  *service.EditorService
	seeds   *service.SeedService
	seedDir string

	// Active block group context (set by set_active_block_group tool)
	mu           sync.Mutex
	activeGroup  int64
	activeLocale string
}

// Deps holds all dependencies passed from the app layer to the MCP server.
type Deps struct {
	Blocks   *service.BlockGroupService
	Editor   *service.EditorService
	Seeds    *service.SeedService
	SeedDir  string
	Notifier *Notifier // optional, forwards service events to clients
	Log      *zap.Logger
}

// New creates and configures a new MCP server with all tools and resources.
func New(deps Deps) *Server {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		log:     log,
		blocks:  deps.Blocks,
		editor:  deps.Editor,
		seeds:   deps.Seeds,
		seedDir: deps.SeedDir,
	}

	s.mcp = server.NewMCPServer(
		"blocks-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)
	if deps.Notifier != nil {
		deps.Notifier.attach(s.mcp)
	}

	s.registerBlockGroupTools()
	s.registerBlockTools()
	if s.seeds != nil {
		s.registerSeedTools()
	}
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	s.log.Info("mcp: starting stdio server")
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server, e.g. for in-process clients.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// ── Notifier ──────────────────────────────────────────────

// Notifier is a service.EventEmitter that forwards events to every
// connected MCP client as "notifications/blocks/<event>". Events emitted
// before a server is attached are dropped.
type Notifier struct {
	mu  sync.RWMutex
	srv *server.MCPServer
}

var _ service.EventEmitter = (*Notifier)(nil)

func (n *Notifier) attach(srv *server.MCPServer) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.srv = srv
}

func (n *Notifier) Emit(_ context.Context, event string, data any) {
	n.mu.RLock()
	srv := n.srv
	n.mu.RUnlock()
	if srv == nil {
		return
	}
	srv.SendNotificationToAllClients("notifications/blocks/"+event, map[string]any{"data": data})
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := marshalIndent(v)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// notFoundResult reports a missing record as a tool error the agent can
// read, instead of a protocol error.
func notFoundResult(err error) (*mcp.CallToolResult, error) {
	if errors.Is(err, domain.ErrNotFound) {
		return mcp.NewToolResultError("block group not found"), nil
	}
	return nil, err
}

// resolveTarget returns the block group id and locale from tool args or
// falls back to the active block group.
func (s *Server) resolveTarget(ctx context.Context, args map[string]any) (int64, string, error) {
	s.mu.Lock()
	groupID, locale := s.activeGroup, s.activeLocale
	s.mu.Unlock()

	if id, ok, err := argInt64(args, "blockGroupId"); err != nil {
		return 0, "", err
	} else if ok {
		groupID = id
	}
	if l := argString(args, "locale"); l != "" {
		locale = l
	}

	if groupID == 0 {
		return 0, "", fmt.Errorf("no blockGroupId provided and no active block group set (use set_active_block_group first)")
	}
	if locale == "" {
		locale = s.blocks.DefaultLocale(ctx)
	}
	return groupID, locale, nil
}
