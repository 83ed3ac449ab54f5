package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("compose_block_group",
		mcp.WithPromptDescription("Guide through writing the content of a block group in one locale"),
		mcp.WithArgument("blockGroupId",
			mcp.ArgumentDescription("ID of the block group to edit"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("topic",
			mcp.ArgumentDescription("What the content should be about"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("locale",
			mcp.ArgumentDescription("Locale to write in (optional)"),
		),
	), s.handleComposePrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("translate_block_group",
		mcp.WithPromptDescription("Copy the blocks of a block group into another locale, translating text payloads"),
		mcp.WithArgument("blockGroupId",
			mcp.ArgumentDescription("ID of the block group to translate"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("from",
			mcp.ArgumentDescription("Source locale"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("to",
			mcp.ArgumentDescription("Target locale"),
			mcp.RequiredArgument(),
		),
	), s.handleTranslatePrompt)
}

func (s *Server) handleComposePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	id := req.Params.Arguments["blockGroupId"]
	topic := req.Params.Arguments["topic"]
	locale := req.Params.Arguments["locale"]
	if locale == "" {
		locale = s.blocks.DefaultLocale(ctx)
	}
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Compose block group %s about: %s", id, topic),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Write content about "%s" into block group %s, locale %s. Follow these steps:

1. Call set_active_block_group with blockGroupId %s and locale %s
2. Call list_blocks to see what is already there
3. Start with a blockTitle block, then add blockText blocks with add_block
4. Use move_block_up, move_block_down or reorder_blocks to fix the order
5. If a change goes wrong, call undo_block_change

Keep each text block short and focused on one idea.`, topic, id, locale, id, locale),
				},
			},
		},
	}, nil
}

func (s *Server) handleTranslatePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	id := req.Params.Arguments["blockGroupId"]
	from := req.Params.Arguments["from"]
	to := req.Params.Arguments["to"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Translate block group %s from %s to %s", id, from, to),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Translate block group %s from %s to %s:

1. Call list_blocks with blockGroupId %s and locale %s
2. Call list_blocks with blockGroupId %s and locale %s to check the target is empty
3. For each source block, in order, call add_block with locale %s, the same type and a translated data payload
4. Leave blockImage, blockVideo and blockSeparator payloads unchanged`, id, from, to, id, from, id, to, to),
				},
			},
		},
	}, nil
}
