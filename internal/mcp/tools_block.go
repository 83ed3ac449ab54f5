package mcpserver

import (
	"context"
	"errors"
	"fmt"

	"blocks/internal/blocklist"
	"blocks/internal/domain"
	"blocks/internal/service"

	"github.com/mark3labs/mcp-go/mcp"
)

func boolPtr(b bool) *bool { return &b }

// targetOptions are the blockGroupId/locale arguments every editor tool takes.
func targetOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithNumber("blockGroupId", mcp.Description("Block group ID (optional, defaults to active block group)")),
		mcp.WithString("locale", mcp.Description("Locale (optional, defaults to active locale)")),
	}
}

func newEditorTool(name, description string, opts ...mcp.ToolOption) mcp.Tool {
	all := append([]mcp.ToolOption{mcp.WithDescription(description)}, opts...)
	return mcp.NewTool(name, append(all, targetOptions()...)...)
}

func (s *Server) registerBlockTools() {
	// ── list_blocks ────────────────────────────────────
	s.mcp.AddTool(newEditorTool("list_blocks",
		"List the blocks of a block group locale, in display order",
	), s.handleListBlocks)

	// ── add_block ──────────────────────────────────────
	s.mcp.AddTool(newEditorTool("add_block",
		"Append a new block at the end of the list",
		mcp.WithString("type",
			mcp.Description("Block type: blockText, blockTitle, blockImage, blockVideo, blockList, blockRaw, blockSeparator"),
			mcp.Required(),
		),
		mcp.WithString("data", mcp.Description("Block payload as JSON (optional)")),
	), s.handleAddBlock)

	// ── update_block ───────────────────────────────────
	s.mcp.AddTool(newEditorTool("update_block",
		"Replace the payload of a block. Identifier and type are kept.",
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("data", mcp.Description("New payload as JSON"), mcp.Required()),
	), s.handleUpdateBlock)

	// ── delete_block (destructive) ─────────────────────
	s.mcp.AddTool(newEditorTool("delete_block",
		"🛑 DESTRUCTIVE: Remove a block from the list. Can be reverted with undo_block_change.",
		mcp.WithString("blockId", mcp.Description("Block ID to delete"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteBlock)

	// ── move_block_up / move_block_down ────────────────
	s.mcp.AddTool(newEditorTool("move_block_up",
		"Swap a block with the one before it",
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
	), s.handleMoveBlockUp)
	s.mcp.AddTool(newEditorTool("move_block_down",
		"Swap a block with the one after it",
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
	), s.handleMoveBlockDown)

	// ── reorder_blocks ─────────────────────────────────
	s.mcp.AddTool(newEditorTool("reorder_blocks",
		"Move the block at position source to position destination (zero based)",
		mcp.WithNumber("source", mcp.Description("Current position"), mcp.Required()),
		mcp.WithNumber("destination", mcp.Description("New position"), mcp.Required()),
	), s.handleReorderBlocks)

	// ── dispatch_block_action ──────────────────────────
	s.mcp.AddTool(newEditorTool("dispatch_block_action",
		"Apply a raw editor action: addBlock, deleteBlock, updateBlock, moveBlockUp, moveBlockDown or reorderBlocks",
		mcp.WithString("action", mcp.Description("Action name"), mcp.Required()),
		mcp.WithString("payload", mcp.Description("Action payload as JSON"), mcp.Required()),
	), s.handleDispatchBlockAction)

	// ── undo_block_change ──────────────────────────────
	s.mcp.AddTool(newEditorTool("undo_block_change",
		"Revert the last edit of a block group locale",
	), s.handleUndoBlockChange)
}

func (s *Server) handleListBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	groupID, locale, err := s.resolveTarget(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	list, err := s.editor.ListBlocks(ctx, groupID, locale)
	if err != nil {
		return notFoundResult(err)
	}
	return jsonResult(list)
}

func (s *Server) handleAddBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	blockType := argString(args, "type")
	if blockType == "" {
		return nil, fmt.Errorf("type is required")
	}
	data, err := argJSON(args, "data")
	if err != nil {
		return nil, err
	}
	block := blocklist.NewBlock(domain.BlockType(blockType), data)
	return s.dispatch(ctx, args, blocklist.Add{Block: block})
}

func (s *Server) handleUpdateBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, err := requireBlockID(args)
	if err != nil {
		return nil, err
	}
	data, err := argJSON(args, "data")
	if err != nil {
		return nil, err
	}
	return s.dispatch(ctx, args, blocklist.Update{ID: id, Data: data})
}

func (s *Server) handleDeleteBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, err := requireBlockID(args)
	if err != nil {
		return nil, err
	}
	return s.dispatch(ctx, args, blocklist.Delete{ID: id})
}

func (s *Server) handleMoveBlockUp(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, err := requireBlockID(args)
	if err != nil {
		return nil, err
	}
	return s.dispatch(ctx, args, blocklist.MoveUp{ID: id})
}

func (s *Server) handleMoveBlockDown(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, err := requireBlockID(args)
	if err != nil {
		return nil, err
	}
	return s.dispatch(ctx, args, blocklist.MoveDown{ID: id})
}

func (s *Server) handleReorderBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	source, err := argIntPtr(args, "source")
	if err != nil {
		return nil, err
	}
	destination, err := argIntPtr(args, "destination")
	if err != nil {
		return nil, err
	}
	return s.dispatch(ctx, args, blocklist.Reorder{Source: source, Destination: destination})
}

func (s *Server) handleDispatchBlockAction(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	payload, err := argJSON(args, "payload")
	if err != nil {
		return nil, err
	}
	action, err := blocklist.DecodeAction(argString(args, "action"), payload)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.dispatch(ctx, args, action)
}

func (s *Server) handleUndoBlockChange(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	groupID, locale, err := s.resolveTarget(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	list, err := s.editor.Undo(ctx, groupID, locale)
	if errors.Is(err, service.ErrNothingToUndo) {
		return mcp.NewToolResultError("nothing to undo"), nil
	}
	if err != nil {
		return notFoundResult(err)
	}
	return jsonResult(list)
}

// dispatch applies action to the target block group and returns the new list.
func (s *Server) dispatch(ctx context.Context, args map[string]any, action blocklist.Action) (*mcp.CallToolResult, error) {
	groupID, locale, err := s.resolveTarget(ctx, args)
	if err != nil {
		return nil, err
	}
	list, err := s.editor.Dispatch(ctx, groupID, locale, action)
	if err != nil {
		return notFoundResult(err)
	}
	return jsonResult(list)
}

func requireBlockID(args map[string]any) (string, error) {
	id := argString(args, "blockId")
	if id == "" {
		return "", fmt.Errorf("blockId is required")
	}
	return id, nil
}
