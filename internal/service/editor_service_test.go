package service_test

import (
	"context"
	"encoding/json"
	"testing"

	"blocks/internal/blocklist"
	"blocks/internal/domain"
	"blocks/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEditor(f *fixture) *service.EditorService {
	return service.NewEditorService(f.groups, f.revisions, f.cache, f.emitter, nil)
}

func TestEditorService_Dispatch(t *testing.T) {
	f := newFixture(t)
	g := f.group(t, domain.BlockGroup{Slug: "home", Visible: true},
		domain.BlockGroupI18n{Locale: "en_US", Title: "Home", JSONContent: `[{"id":"a","type":"blockText","data":null},{"id":"b","type":"blockText","data":null}]`},
		domain.BlockGroupI18n{Locale: "fr_FR", Title: "Accueil", JSONContent: `[]`},
	)
	editor := newEditor(f)
	ctx := context.Background()

	list, err := editor.Dispatch(ctx, g.ID, "en_US", blocklist.MoveDown{ID: "a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, list.IDs())

	stored, err := editor.ListBlocks(ctx, g.ID, "en_US")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, stored.IDs())

	row, err := f.groups.GetI18n(ctx, g.ID, "en_US")
	require.NoError(t, err)
	assert.Equal(t, "Home", row.Title, "title is kept")

	fr, err := editor.ListBlocks(ctx, g.ID, "fr_FR")
	require.NoError(t, err)
	assert.Empty(t, fr, "other locales are untouched")

	require.Equal(t, []string{service.EventContentChanged}, f.emitter.Names())
	change := f.emitter.Events[0].Data.(service.ContentChange)
	assert.Equal(t, service.ContentChange{BlockGroupID: g.ID, Locale: "en_US", Action: blocklist.ActionMoveBlockDown}, change)
}

func TestEditorService_DispatchKeepsUnknownFields(t *testing.T) {
	f := newFixture(t)
	g := f.group(t, domain.BlockGroup{Slug: "home", Visible: true},
		domain.BlockGroupI18n{Locale: "en_US", JSONContent: `[{"id":"a","type":"blockText","parent":null,"data":{"value":"x"}},{"id":"b","type":{"id":"blockText"},"parent":"a","data":{"value":"y"}}]`},
	)
	editor := newEditor(f)
	ctx := context.Background()

	_, err := editor.Dispatch(ctx, g.ID, "en_US", blocklist.MoveDown{ID: "a"})
	require.NoError(t, err)

	row, err := f.groups.GetI18n(ctx, g.ID, "en_US")
	require.NoError(t, err)
	assert.JSONEq(t,
		`[{"id":"b","type":{"id":"blockText"},"parent":"a","data":{"value":"y"}},{"id":"a","type":"blockText","parent":null,"data":{"value":"x"}}]`,
		row.JSONContent)

	_, err = editor.Undo(ctx, g.ID, "en_US")
	require.NoError(t, err)
	row, err = f.groups.GetI18n(ctx, g.ID, "en_US")
	require.NoError(t, err)
	assert.JSONEq(t,
		`[{"id":"a","type":"blockText","parent":null,"data":{"value":"x"}},{"id":"b","type":{"id":"blockText"},"parent":"a","data":{"value":"y"}}]`,
		row.JSONContent, "undo restores every field")
}

func TestEditorService_DispatchNoopDoesNotWrite(t *testing.T) {
	f := newFixture(t)
	g := f.group(t, domain.BlockGroup{Slug: "home", Visible: true},
		domain.BlockGroupI18n{Locale: "en_US", JSONContent: `[{"id":"a","type":"blockText","data":null},{"id":"b","type":"blockText","data":null},{"id":"c","type":"blockText","data":null}]`},
	)
	editor := newEditor(f)
	ctx := context.Background()

	list, err := editor.Dispatch(ctx, g.ID, "en_US", blocklist.MoveDown{ID: "c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, list.IDs())

	assert.Empty(t, f.emitter.Events)
	depth, err := editor.UndoDepth(ctx, g.ID, "en_US")
	require.NoError(t, err)
	assert.Zero(t, depth)
}

func TestEditorService_DispatchCreatesMissingLocale(t *testing.T) {
	f := newFixture(t)
	g := f.group(t, domain.BlockGroup{Slug: "home", Visible: true})
	editor := newEditor(f)
	ctx := context.Background()

	block := blocklist.NewBlock(domain.BlockTypeText, json.RawMessage(`{"value":"hi"}`))
	list, err := editor.Dispatch(ctx, g.ID, "de_DE", blocklist.Add{Block: block})
	require.NoError(t, err)
	require.Len(t, list, 1)

	locales, err := f.groups.Locales(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"de_DE"}, locales)
}

func TestEditorService_UnknownGroup(t *testing.T) {
	f := newFixture(t)
	editor := newEditor(f)
	ctx := context.Background()

	_, err := editor.ListBlocks(ctx, 42, "en_US")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = editor.Dispatch(ctx, 42, "en_US", blocklist.Delete{ID: "a"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEditorService_Undo(t *testing.T) {
	f := newFixture(t)
	g := f.group(t, domain.BlockGroup{Slug: "home", Visible: true},
		domain.BlockGroupI18n{Locale: "en_US", JSONContent: `[{"id":"a","type":"blockText","data":null}]`},
	)
	editor := newEditor(f)
	ctx := context.Background()

	_, err := editor.Dispatch(ctx, g.ID, "en_US", blocklist.Add{Block: domain.Block{ID: "b", Type: domain.BlockTypeText}})
	require.NoError(t, err)
	_, err = editor.Dispatch(ctx, g.ID, "en_US", blocklist.Delete{ID: "a"})
	require.NoError(t, err)

	depth, _ := editor.UndoDepth(ctx, g.ID, "en_US")
	assert.Equal(t, 2, depth)

	list, err := editor.Undo(ctx, g.ID, "en_US")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, list.IDs())

	list, err = editor.Undo(ctx, g.ID, "en_US")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, list.IDs())

	_, err = editor.Undo(ctx, g.ID, "en_US")
	assert.ErrorIs(t, err, service.ErrNothingToUndo)

	stored, _ := editor.ListBlocks(ctx, g.ID, "en_US")
	assert.Equal(t, []string{"a"}, stored.IDs())
}

func TestEditorService_CyclesCache(t *testing.T) {
	f := newFixture(t)
	g := f.group(t, domain.BlockGroup{Slug: "home", Visible: true}, domain.BlockGroupI18n{Locale: "en_US", JSONContent: `[]`})
	editor := newEditor(f)
	ctx := context.Background()

	before, _ := f.cache.Generation(ctx)
	_, err := editor.Dispatch(ctx, g.ID, "en_US", blocklist.Add{Block: domain.Block{ID: "x"}})
	require.NoError(t, err)
	after, _ := f.cache.Generation(ctx)
	assert.Equal(t, before+1, after)
}
