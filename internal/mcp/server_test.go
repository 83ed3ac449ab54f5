package mcpserver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"blocks/internal/blocklist"
	"blocks/internal/cache"
	"blocks/internal/domain"
	"blocks/internal/service"
	"blocks/internal/storage"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	srv    *Server
	groups *storage.BlockGroupStore
	homeID int64
}

// newTestEnv stores en_US (default) and a "home" group with one en_US block.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "blocks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	groups := storage.NewBlockGroupStore(db)
	langs := storage.NewLangStore(db)
	revisions := storage.NewRevisionStore(db)
	require.NoError(t, langs.EnsureLang(ctx, &domain.Lang{Locale: "en_US", ByDefault: true, Active: true}))

	home := domain.BlockGroup{Slug: "home", Visible: true}
	require.NoError(t, groups.Upsert(ctx, &home, []domain.BlockGroupI18n{
		{Locale: "en_US", Title: "Home", JSONContent: `[{"id":"a","type":"blockTitle"}]`},
	}))

	c := cache.NewMemory(time.Minute)
	srv := New(Deps{
		Blocks:  service.NewBlockGroupService(groups, langs, c, nil, "en_US"),
		Editor:  service.NewEditorService(groups, revisions, c, nil, nil),
		Seeds:   service.NewSeedService(groups, langs, c, nil, nil, "en_US"),
		SeedDir: t.TempDir(),
	})
	return &testEnv{srv: srv, groups: groups, homeID: home.ID}
}

func callTool(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	res, err := handler(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

func resultList(t *testing.T, res *mcp.CallToolResult) blocklist.List {
	t.Helper()
	require.False(t, res.IsError, resultText(t, res))
	var l blocklist.List
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &l))
	return l
}

// ─────────────────────────────────────────────────────────────
// Block group tools
// ─────────────────────────────────────────────────────────────

func TestGetBlockGroupTool(t *testing.T) {
	env := newTestEnv(t)

	res := callTool(t, env.srv.handleGetBlockGroup, map[string]any{"slug": "home", "locale": "fr_FR"})
	require.False(t, res.IsError)
	var g domain.BlockGroup
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &g))
	assert.Equal(t, env.homeID, g.ID)
	assert.Equal(t, `[{"id":"a","type":"blockTitle"}]`, g.JSONContent, "falls back to the default language")

	res = callTool(t, env.srv.handleGetBlockGroup, map[string]any{"slug": "missing"})
	assert.True(t, res.IsError)
}

func TestListBlockGroupsTool(t *testing.T) {
	env := newTestEnv(t)

	res := callTool(t, env.srv.handleListBlockGroups, map[string]any{"visible": true, "limit": float64(5)})
	var groups []domain.BlockGroup
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &groups))
	require.Len(t, groups, 1)
	assert.Equal(t, "home", groups[0].Slug)

	res = callTool(t, env.srv.handleListBlockGroups, map[string]any{"visible": "false"})
	assert.Equal(t, "[]", resultText(t, res))
}

func TestSetActiveBlockGroup(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.srv.handleListBlocks(context.Background(), mcp.CallToolRequest{})
	require.Error(t, err, "no active block group yet")

	res := callTool(t, env.srv.handleSetActiveBlockGroup, map[string]any{"blockGroupId": float64(env.homeID)})
	require.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), `"home"`)

	l := resultList(t, callTool(t, env.srv.handleListBlocks, map[string]any{}))
	assert.Equal(t, []string{"a"}, l.IDs())

	res = callTool(t, env.srv.handleSetActiveBlockGroup, map[string]any{"blockGroupId": float64(999)})
	assert.True(t, res.IsError)
}

// ─────────────────────────────────────────────────────────────
// Block editor tools
// ─────────────────────────────────────────────────────────────

func TestEditorTools(t *testing.T) {
	env := newTestEnv(t)
	target := func(extra map[string]any) map[string]any {
		args := map[string]any{"blockGroupId": float64(env.homeID), "locale": "en_US"}
		for k, v := range extra {
			args[k] = v
		}
		return args
	}

	l := resultList(t, callTool(t, env.srv.handleAddBlock, target(map[string]any{"type": "blockText", "data": `{"value":"hi"}`})))
	require.Len(t, l, 2)
	added := l[1]
	assert.Equal(t, domain.BlockTypeText, added.Type)
	assert.JSONEq(t, `{"value":"hi"}`, string(added.Data))

	l = resultList(t, callTool(t, env.srv.handleMoveBlockUp, target(map[string]any{"blockId": added.ID})))
	assert.Equal(t, []string{added.ID, "a"}, l.IDs())

	l = resultList(t, callTool(t, env.srv.handleMoveBlockDown, target(map[string]any{"blockId": added.ID})))
	assert.Equal(t, []string{"a", added.ID}, l.IDs())

	l = resultList(t, callTool(t, env.srv.handleReorderBlocks, target(map[string]any{"source": float64(1), "destination": float64(0)})))
	assert.Equal(t, []string{added.ID, "a"}, l.IDs())

	l = resultList(t, callTool(t, env.srv.handleUpdateBlock, target(map[string]any{"blockId": "a", "data": map[string]any{"text": "Hello"}})))
	assert.JSONEq(t, `{"text":"Hello"}`, string(l[1].Data))
	assert.Equal(t, domain.BlockTypeTitle, l[1].Type)

	l = resultList(t, callTool(t, env.srv.handleDeleteBlock, target(map[string]any{"blockId": added.ID})))
	assert.Equal(t, []string{"a"}, l.IDs())

	row, err := env.groups.GetI18n(context.Background(), env.homeID, "en_US")
	require.NoError(t, err)
	stored, err := blocklist.Parse(row.JSONContent)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, stored.IDs())
}

func TestDispatchBlockActionTool(t *testing.T) {
	env := newTestEnv(t)
	args := map[string]any{
		"blockGroupId": float64(env.homeID),
		"action":       blocklist.ActionAddBlock,
		"payload":      `{"id":"b","type":"blockRaw"}`,
	}

	l := resultList(t, callTool(t, env.srv.handleDispatchBlockAction, args))
	assert.Equal(t, []string{"a", "b"}, l.IDs())

	args["action"] = "renameBlock"
	res := callTool(t, env.srv.handleDispatchBlockAction, args)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "unknown block action")
}

func TestUndoBlockChangeTool(t *testing.T) {
	env := newTestEnv(t)
	args := map[string]any{"blockGroupId": float64(env.homeID)}

	res := callTool(t, env.srv.handleUndoBlockChange, args)
	assert.True(t, res.IsError, "nothing to undo yet")

	callTool(t, env.srv.handleDeleteBlock, map[string]any{"blockGroupId": float64(env.homeID), "blockId": "a"})
	l := resultList(t, callTool(t, env.srv.handleUndoBlockChange, args))
	assert.Equal(t, []string{"a"}, l.IDs())
}

func TestEditorTools_UnknownGroup(t *testing.T) {
	env := newTestEnv(t)
	res := callTool(t, env.srv.handleListBlocks, map[string]any{"blockGroupId": "999"})
	assert.True(t, res.IsError)
}

// ─────────────────────────────────────────────────────────────
// Seeds, resources, helpers
// ─────────────────────────────────────────────────────────────

func TestImportSeedsTool(t *testing.T) {
	env := newTestEnv(t)
	seed := `[{"slug":"about","i18n":{"en_US":{"title":"About","jsonContent":[]}}}]`
	require.NoError(t, os.WriteFile(filepath.Join(env.srv.seedDir, "about.json"), []byte(seed), 0o644))

	res := callTool(t, env.srv.handleImportSeeds, map[string]any{})
	require.False(t, res.IsError)
	var result service.ImportResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &result))
	assert.Equal(t, 1, result.Files)
	assert.Equal(t, []string{"about"}, result.Groups)
}

func TestBlockGroupResource(t *testing.T) {
	env := newTestEnv(t)

	req := mcp.ReadResourceRequest{}
	req.Params.URI = "blocks://block_group/" + jsonNumber(env.homeID)
	contents, err := env.srv.handleBlockGroupResource(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, contents, 1)
	text := contents[0].(mcp.TextResourceContents)
	assert.Equal(t, "application/json", text.MIMEType)
	assert.Contains(t, text.Text, `"slug": "home"`)

	_, err = blockGroupIDFromURI("blocks://block_group/abc")
	assert.Error(t, err)
}

func TestArgInt64(t *testing.T) {
	tests := []struct {
		raw     any
		want    int64
		ok      bool
		wantErr bool
	}{
		{float64(3), 3, true, false},
		{"42", 42, true, false},
		{"", 0, false, false},
		{nil, 0, false, false},
		{"x", 0, false, true},
		{true, 0, false, true},
	}
	for _, tt := range tests {
		got, ok, err := argInt64(map[string]any{"n": tt.raw}, "n")
		assert.Equal(t, tt.wantErr, err != nil, "%v", tt.raw)
		assert.Equal(t, tt.ok, ok, "%v", tt.raw)
		assert.Equal(t, tt.want, got, "%v", tt.raw)
	}
}

func TestArgBoolPtr(t *testing.T) {
	for _, raw := range []string{"true", "TRUE", "1", `"yes"`, "false", "0", "null", "", "yes", "t"} {
		got := argBoolPtr(map[string]any{"visible": raw}, "visible")
		require.NotNil(t, got, "%q", raw)
		assert.Equal(t, domain.ParseLooseBool(raw), *got, "%q reads as over HTTP", raw)
	}

	assert.Nil(t, argBoolPtr(map[string]any{}, "visible"))
	assert.Equal(t, true, *argBoolPtr(map[string]any{"visible": true}, "visible"))
	assert.Equal(t, false, *argBoolPtr(map[string]any{"visible": float64(0)}, "visible"))
}

func jsonNumber(n int64) string {
	data, _ := json.Marshal(n)
	return string(data)
}
