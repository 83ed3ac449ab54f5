package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"blocks/internal/cache"
	"blocks/internal/domain"

	"go.uber.org/zap"
)

// ─────────────────────────────────────────────────────────────
// Block Group Service: read side of block groups
// ─────────────────────────────────────────────────────────────

// GetQuery selects a single block group. Nil fields are not filtered on.
type GetQuery struct {
	ID      *int64  `json:"id,omitempty"`
	Slug    *string `json:"slug,omitempty"`
	Visible *bool   `json:"visible,omitempty"`
	Locale  string  `json:"locale"`
}

// ListQuery selects a page of block groups.
type ListQuery struct {
	Visible  *bool        `json:"visible,omitempty"`
	Title    *string      `json:"title,omitempty"`
	ItemType *string      `json:"itemType,omitempty"`
	ItemID   *int64       `json:"itemId,omitempty"`
	Limit    *int         `json:"limit,omitempty"`
	Offset   *int         `json:"offset,omitempty"`
	Order    domain.Order `json:"order,omitempty"`
	Locale   string       `json:"locale"`
}

// BlockGroupService answers block group queries and shapes the response
// for a locale.
type BlockGroupService struct {
	groups        domain.BlockGroupStore
	langs         domain.LangStore
	cache         cache.Cache
	log           *zap.Logger
	defaultLocale string
}

// NewBlockGroupService creates a BlockGroupService. defaultLocale is used
// when no language is flagged as default in the store.
func NewBlockGroupService(groups domain.BlockGroupStore, langs domain.LangStore, c cache.Cache, log *zap.Logger, defaultLocale string) *BlockGroupService {
	if log == nil {
		log = zap.NewNop()
	}
	return &BlockGroupService{groups: groups, langs: langs, cache: c, log: log, defaultLocale: defaultLocale}
}

// DefaultLocale returns the locale of the default language.
func (s *BlockGroupService) DefaultLocale(ctx context.Context) string {
	l, err := s.langs.DefaultLang(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.log.Warn("block group: default lang lookup failed", zap.Error(err))
		}
		return s.defaultLocale
	}
	return l.Locale
}

// ListLangs returns the languages known to the host.
func (s *BlockGroupService) ListLangs(ctx context.Context) ([]domain.Lang, error) {
	langs, err := s.langs.ListLangs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list langs: %w", err)
	}
	return langs, nil
}

// GetBlockGroup returns the first block group matching q, built for
// q.Locale. It returns domain.ErrNotFound when nothing matches.
func (s *BlockGroupService) GetBlockGroup(ctx context.Context, q GetQuery) (*domain.BlockGroup, error) {
	if q.Locale == "" {
		q.Locale = s.DefaultLocale(ctx)
	}
	key := cacheKey("get", q)
	gen, cacheable := s.cacheGeneration(ctx)
	var cached domain.BlockGroup
	if cacheable && s.cacheGet(ctx, gen, key, &cached) {
		return &cached, nil
	}

	g, err := s.groups.FindOne(ctx, domain.BlockGroupFilter{ID: q.ID, Slug: q.Slug, Visible: q.Visible})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get block group: %w", err)
	}
	if err := s.buildModel(ctx, g, q.Locale); err != nil {
		return nil, err
	}

	if cacheable {
		s.cacheSet(ctx, gen, key, g)
	}
	return g, nil
}

// ListBlockGroups returns the block groups matching q, each built for
// q.Locale. An empty result is reported as domain.ErrNotFound.
func (s *BlockGroupService) ListBlockGroups(ctx context.Context, q ListQuery) ([]domain.BlockGroup, error) {
	if q.Locale == "" {
		q.Locale = s.DefaultLocale(ctx)
	}
	key := cacheKey("list", q)
	gen, cacheable := s.cacheGeneration(ctx)
	var cached []domain.BlockGroup
	if cacheable && s.cacheGet(ctx, gen, key, &cached) {
		return cached, nil
	}

	groups, err := s.groups.Find(ctx, domain.BlockGroupFilter{
		Visible:  q.Visible,
		Title:    q.Title,
		ItemType: q.ItemType,
		ItemID:   q.ItemID,
		Limit:    q.Limit,
		Offset:   q.Offset,
		Order:    q.Order,
	})
	if err != nil {
		return nil, fmt.Errorf("list block groups: %w", err)
	}
	if len(groups) == 0 {
		return nil, domain.ErrNotFound
	}
	for i := range groups {
		if err := s.buildModel(ctx, &groups[i], q.Locale); err != nil {
			return nil, err
		}
	}

	if cacheable {
		s.cacheSet(ctx, gen, key, groups)
	}
	return groups, nil
}

// buildModel fills the localized fields, locales and linked items of g.
// When g has no content for locale and locale is not one of its stored
// locales, the content of the default locale (or the first stored one) is
// copied into g. Nothing is written back.
func (s *BlockGroupService) buildModel(ctx context.Context, g *domain.BlockGroup, locale string) error {
	row, err := s.groups.GetI18n(ctx, g.ID, locale)
	switch {
	case err == nil:
		g.Title = row.Title
		g.JSONContent = row.JSONContent
	case !errors.Is(err, domain.ErrNotFound):
		return fmt.Errorf("load block group %d i18n: %w", g.ID, err)
	}

	if g.Locales, err = s.groups.Locales(ctx, g.ID); err != nil {
		return fmt.Errorf("load block group %d locales: %w", g.ID, err)
	}
	if g.ItemBlockGroups, err = s.groups.Items(ctx, g.ID); err != nil {
		return fmt.Errorf("load block group %d items: %w", g.ID, err)
	}

	if g.HasContent() || g.HasLocale(locale) || len(g.Locales) == 0 {
		return nil
	}

	copyLocale := g.Locales[0]
	if def := s.DefaultLocale(ctx); g.HasLocale(def) {
		copyLocale = def
	}
	fallback, err := s.groups.GetI18n(ctx, g.ID, copyLocale)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load block group %d fallback: %w", g.ID, err)
	}
	s.log.Debug("block group: locale fallback",
		zap.Int64("id", g.ID), zap.String("locale", locale), zap.String("from", copyLocale))
	g.JSONContent = fallback.JSONContent
	return nil
}

// ── cache helpers ─────────────────────────────────────────

func cacheKey(kind string, q any) string {
	data, _ := json.Marshal(q)
	return kind + ":" + string(data)
}

// cacheGeneration reads the generation a query is answered under. It is
// read once, before the store, so a Cycle during the query sends the result
// to a generation nobody reads anymore.
func (s *BlockGroupService) cacheGeneration(ctx context.Context) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}
	gen, err := s.cache.Generation(ctx)
	if err != nil {
		s.log.Warn("block group: cache generation failed", zap.Error(err))
		return 0, false
	}
	return gen, true
}

func (s *BlockGroupService) cacheGet(ctx context.Context, gen int64, key string, dst any) bool {
	val, ok, err := s.cache.Get(ctx, gen, key)
	if err != nil {
		s.log.Warn("block group: cache get failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(val), dst); err != nil {
		s.log.Warn("block group: cached value unreadable", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *BlockGroupService) cacheSet(ctx context.Context, gen int64, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, gen, key, string(data)); err != nil {
		s.log.Warn("block group: cache set failed", zap.String("key", key), zap.Error(err))
	}
}
