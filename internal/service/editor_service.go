package service

import (
	"context"
	"errors"
	"fmt"

	"blocks/internal/blocklist"
	"blocks/internal/cache"
	"blocks/internal/domain"

	"go.uber.org/zap"
)

// Events emitted by the editor and the seed importer.
const (
	EventContentChanged = "blockgroup:content-changed"
	EventImported       = "blockgroups:imported"
)

// ErrNothingToUndo is returned by Undo when no revision is stored.
var ErrNothingToUndo = errors.New("nothing to undo")

// ContentChange is the payload of EventContentChanged.
type ContentChange struct {
	BlockGroupID int64  `json:"blockGroupId"`
	Locale       string `json:"locale"`
	Action       string `json:"action"`
}

// ─────────────────────────────────────────────────────────────
// Editor Service: block list actions over stored content
// ─────────────────────────────────────────────────────────────

// EditorService applies block list actions to the content of one block
// group locale and persists the result.
type EditorService struct {
	groups    domain.BlockGroupStore
	revisions domain.RevisionStore
	cache     cache.Cache
	emitter   EventEmitter
	log       *zap.Logger
}

// NewEditorService creates an EditorService. revisions may be nil, which
// disables undo.
func NewEditorService(groups domain.BlockGroupStore, revisions domain.RevisionStore, c cache.Cache, emitter EventEmitter, log *zap.Logger) *EditorService {
	if log == nil {
		log = zap.NewNop()
	}
	return &EditorService{groups: groups, revisions: revisions, cache: c, emitter: emitter, log: log}
}

// load returns the stored row for the locale. A missing row is returned
// empty so the first edit creates it.
func (s *EditorService) load(ctx context.Context, groupID int64, locale string) (*domain.BlockGroupI18n, error) {
	if _, err := s.groups.FindOne(ctx, domain.BlockGroupFilter{ID: &groupID}); err != nil {
		return nil, err
	}
	row, err := s.groups.GetI18n(ctx, groupID, locale)
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.BlockGroupI18n{ID: groupID, Locale: locale}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load content: %w", err)
	}
	return row, nil
}

// ListBlocks returns the block list stored for a block group locale.
func (s *EditorService) ListBlocks(ctx context.Context, groupID int64, locale string) (blocklist.List, error) {
	row, err := s.load(ctx, groupID, locale)
	if err != nil {
		return nil, err
	}
	return blocklist.Parse(row.JSONContent)
}

// Dispatch reduces the stored list with action and saves the result. An
// action that changes nothing is not written.
func (s *EditorService) Dispatch(ctx context.Context, groupID int64, locale string, action blocklist.Action) (blocklist.List, error) {
	row, err := s.load(ctx, groupID, locale)
	if err != nil {
		return nil, err
	}
	state, err := blocklist.Parse(row.JSONContent)
	if err != nil {
		return nil, err
	}
	before, err := state.Marshal()
	if err != nil {
		return nil, err
	}

	next := blocklist.Reduce(state, action)
	after, err := next.Marshal()
	if err != nil {
		return nil, err
	}
	if after == before {
		return next, nil
	}

	name := blocklist.Name(action)
	if s.revisions != nil {
		if err := s.revisions.Push(ctx, groupID, locale, name, before); err != nil {
			// Losing undo history should not block the edit
			s.log.Warn("editor: push revision failed", zap.Int64("id", groupID), zap.Error(err))
		}
	}
	if err := s.save(ctx, row, after, name); err != nil {
		return nil, err
	}
	return next, nil
}

// Undo restores the content saved before the last edit of a block group
// locale.
func (s *EditorService) Undo(ctx context.Context, groupID int64, locale string) (blocklist.List, error) {
	if s.revisions == nil {
		return nil, ErrNothingToUndo
	}
	row, err := s.load(ctx, groupID, locale)
	if err != nil {
		return nil, err
	}
	rev, err := s.revisions.Pop(ctx, groupID, locale)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrNothingToUndo
	}
	if err != nil {
		return nil, fmt.Errorf("undo: %w", err)
	}

	restored, err := blocklist.Parse(rev.SnapshotJSON)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, row, rev.SnapshotJSON, "undo"); err != nil {
		return nil, err
	}
	return restored, nil
}

// UndoDepth returns how many edits of a block group locale can be undone.
func (s *EditorService) UndoDepth(ctx context.Context, groupID int64, locale string) (int, error) {
	if s.revisions == nil {
		return 0, nil
	}
	return s.revisions.Count(ctx, groupID, locale)
}

func (s *EditorService) save(ctx context.Context, row *domain.BlockGroupI18n, content, action string) error {
	row.JSONContent = content
	if err := s.groups.SaveI18n(ctx, *row); err != nil {
		return fmt.Errorf("save content: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.Cycle(ctx); err != nil {
			s.log.Warn("editor: cache cycle failed", zap.Error(err))
		}
	}
	s.log.Info("editor: content saved",
		zap.Int64("id", row.ID), zap.String("locale", row.Locale), zap.String("action", action))
	if s.emitter != nil {
		s.emitter.Emit(ctx, EventContentChanged, ContentChange{BlockGroupID: row.ID, Locale: row.Locale, Action: action})
	}
	return nil
}
