package mcpserver

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"blocks/internal/service"

	"github.com/mark3labs/mcp-go/mcp"
)

const blockGroupURIPrefix = "blocks://block_group/"

func (s *Server) registerResources() {
	// ── blocks://langs ─────────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		"blocks://langs",
		"Languages",
		mcp.WithMIMEType("application/json"),
	), s.handleLangsResource)

	// ── blocks://block_group/{id} ──────────────────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			blockGroupURIPrefix+"{id}",
			"Block Group",
		),
		s.handleBlockGroupResource,
	)
}

func (s *Server) handleLangsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	langs, err := s.blocks.ListLangs(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResource("blocks://langs", langs)
}

func (s *Server) handleBlockGroupResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	id, err := blockGroupIDFromURI(uri)
	if err != nil {
		return nil, err
	}

	g, err := s.blocks.GetBlockGroup(ctx, service.GetQuery{ID: &id, Locale: s.blocks.DefaultLocale(ctx)})
	if err != nil {
		return nil, fmt.Errorf("block group %d: %w", id, err)
	}
	return jsonResource(uri, g)
}

// blockGroupIDFromURI extracts the id from "blocks://block_group/{id}".
func blockGroupIDFromURI(uri string) (int64, error) {
	raw, ok := strings.CutPrefix(uri, blockGroupURIPrefix)
	if !ok {
		return 0, fmt.Errorf("could not extract block group id from URI: %s", uri)
	}
	id, err := strconv.ParseInt(strings.TrimSuffix(raw, "/"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("could not extract block group id from URI: %s", uri)
	}
	return id, nil
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := marshalIndent(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
