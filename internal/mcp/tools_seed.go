package mcpserver

import (
	"context"
	"errors"
	"fmt"

	"blocks/internal/service"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerSeedTools() {
	// ── import_seeds ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("import_seeds",
		mcp.WithDescription("Import block groups from the JSON seed files of a directory. Existing groups are matched by slug and overwritten."),
		mcp.WithString("dir", mcp.Description("Seed directory (optional, defaults to the configured one)")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleImportSeeds)
}

func (s *Server) handleImportSeeds(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir := argString(req.GetArguments(), "dir")
	if dir == "" {
		dir = s.seedDir
	}
	if dir == "" {
		return nil, fmt.Errorf("dir is required when no seed directory is configured")
	}

	result, err := s.seeds.ImportDir(ctx, dir)
	if errors.Is(err, service.ErrImportRunning) {
		return mcp.NewToolResultError("an import is already running"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("import seeds: %w", err)
	}
	return jsonResult(result)
}
