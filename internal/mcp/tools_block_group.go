package mcpserver

import (
	"context"
	"errors"
	"fmt"

	"blocks/internal/domain"
	"blocks/internal/service"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerBlockGroupTools() {
	// ── get_block_group ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_block_group",
		mcp.WithDescription("Get one block group by id and/or slug, with its title and JSON content in a locale. Falls back to the default language when the locale has no content."),
		mcp.WithNumber("id", mcp.Description("Block group ID (optional)")),
		mcp.WithString("slug", mcp.Description("Block group slug (optional)")),
		mcp.WithBoolean("visible", mcp.Description("Only match visible (true) or hidden (false) groups (optional)")),
		mcp.WithString("locale", mcp.Description("Locale such as en_US (optional, defaults to the default language)")),
	), s.handleGetBlockGroup)

	// ── list_block_groups ──────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_block_groups",
		mcp.WithDescription("List block groups, filtered and paginated"),
		mcp.WithBoolean("visible", mcp.Description("Filter on visibility (optional)")),
		mcp.WithString("title", mcp.Description("Substring of the title in the locale (optional)")),
		mcp.WithString("itemType", mcp.Description("Only groups linked to this item type (optional)")),
		mcp.WithNumber("itemId", mcp.Description("Only groups linked to this item id, requires itemType (optional)")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of groups (optional)")),
		mcp.WithNumber("offset", mcp.Description("Number of groups to skip (optional)")),
		mcp.WithString("order", mcp.Description("id or id_reverse (optional, defaults to id_reverse)")),
		mcp.WithString("locale", mcp.Description("Locale such as en_US (optional)")),
	), s.handleListBlockGroups)

	// ── list_langs ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_langs",
		mcp.WithDescription("List the languages configured on the host"),
	), s.handleListLangs)

	// ── set_active_block_group ─────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_active_block_group",
		mcp.WithDescription("Set the active block group and locale for subsequent tool calls. Tools that accept blockGroupId will default to this."),
		mcp.WithNumber("blockGroupId", mcp.Description("ID of the block group to make active"), mcp.Required()),
		mcp.WithString("locale", mcp.Description("Locale to edit (optional, defaults to the default language)")),
	), s.handleSetActiveBlockGroup)
}

func (s *Server) handleGetBlockGroup(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, err := argInt64Ptr(args, "id")
	if err != nil {
		return nil, err
	}
	q := service.GetQuery{
		ID:      id,
		Slug:    argStringPtr(args, "slug"),
		Visible: argBoolPtr(args, "visible"),
		Locale:  argString(args, "locale"),
	}
	if q.Locale == "" {
		q.Locale = s.blocks.DefaultLocale(ctx)
	}

	g, err := s.blocks.GetBlockGroup(ctx, q)
	if err != nil {
		return notFoundResult(err)
	}
	return jsonResult(g)
}

func (s *Server) handleListBlockGroups(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	q := service.ListQuery{
		Visible: argBoolPtr(args, "visible"),
		Title:   argStringPtr(args, "title"),
		Order:   domain.Order(argString(args, "order")),
		Locale:  argString(args, "locale"),
	}
	var err error
	if q.Limit, err = argIntPtr(args, "limit"); err != nil {
		return nil, err
	}
	if q.Offset, err = argIntPtr(args, "offset"); err != nil {
		return nil, err
	}
	if itemType := argStringPtr(args, "itemType"); itemType != nil {
		q.ItemType = itemType
		if q.ItemID, err = argInt64Ptr(args, "itemId"); err != nil {
			return nil, err
		}
	}
	if q.Locale == "" {
		q.Locale = s.blocks.DefaultLocale(ctx)
	}

	groups, err := s.blocks.ListBlockGroups(ctx, q)
	if errors.Is(err, domain.ErrNotFound) {
		return jsonResult([]domain.BlockGroup{})
	}
	if err != nil {
		return nil, fmt.Errorf("list block groups: %w", err)
	}
	return jsonResult(groups)
}

func (s *Server) handleListLangs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	langs, err := s.blocks.ListLangs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list langs: %w", err)
	}
	return jsonResult(langs)
}

func (s *Server) handleSetActiveBlockGroup(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, ok, err := argInt64(args, "blockGroupId")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("blockGroupId is required")
	}
	locale := argString(args, "locale")
	if locale == "" {
		locale = s.blocks.DefaultLocale(ctx)
	}

	g, err := s.blocks.GetBlockGroup(ctx, service.GetQuery{ID: &id, Locale: locale})
	if err != nil {
		return notFoundResult(err)
	}

	s.mu.Lock()
	s.activeGroup = g.ID
	s.activeLocale = locale
	s.mu.Unlock()

	return textResult(fmt.Sprintf("Active block group set to %q (id %d, locale %s)", g.Slug, g.ID, locale)), nil
}
