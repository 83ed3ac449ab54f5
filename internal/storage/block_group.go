package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"blocks/internal/domain"
)

// BlockGroupStore implements domain.BlockGroupStore over SQL.
type BlockGroupStore struct {
	db *DB
}

func NewBlockGroupStore(db *DB) *BlockGroupStore {
	return &BlockGroupStore{db: db}
}

var _ domain.BlockGroupStore = (*BlockGroupStore)(nil)

// buildBlockGroupQuery renders the SELECT for f. Title and item filters use
// EXISTS so a group matching several rows is returned once.
func buildBlockGroupQuery(d dialect, f domain.BlockGroupFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	if f.ID != nil {
		where = append(where, "bg.id = ?")
		args = append(args, *f.ID)
	}
	if f.Slug != nil {
		where = append(where, "bg.slug = ?")
		args = append(args, *f.Slug)
	}
	if f.Visible != nil {
		where = append(where, "bg.visible = ?")
		args = append(args, *f.Visible)
	}
	if f.Title != nil {
		where = append(where, "EXISTS (SELECT 1 FROM block_group_i18n t WHERE t.id = bg.id AND t.title LIKE ?)")
		args = append(args, "%"+*f.Title+"%")
	}
	if f.ItemType != nil {
		cond := "EXISTS (SELECT 1 FROM item_block_group i WHERE i.block_group_id = bg.id AND i.item_type = ?"
		args = append(args, *f.ItemType)
		if f.ItemID != nil {
			cond += " AND i.item_id = ?"
			args = append(args, *f.ItemID)
		}
		where = append(where, cond+")")
	}

	var b strings.Builder
	b.WriteString("SELECT bg.id, bg.visible, bg.slug FROM block_group bg")
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	if f.Order.Descending() {
		b.WriteString(" ORDER BY bg.id DESC")
	} else {
		b.WriteString(" ORDER BY bg.id ASC")
	}
	if lim := d.limitClause(f.Limit, f.Offset); lim != "" {
		b.WriteString(" ")
		b.WriteString(lim)
	}
	return d.rebind(b.String()), args
}

func (s *BlockGroupStore) FindOne(ctx context.Context, f domain.BlockGroupFilter) (*domain.BlockGroup, error) {
	one := 1
	f.Limit = &one
	groups, err := s.Find(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, domain.ErrNotFound
	}
	return &groups[0], nil
}

func (s *BlockGroupStore) Find(ctx context.Context, f domain.BlockGroupFilter) ([]domain.BlockGroup, error) {
	query, args := buildBlockGroupQuery(s.db.dialect, f)
	rows, err := s.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find block groups: %w", err)
	}
	defer rows.Close()

	var groups []domain.BlockGroup
	for rows.Next() {
		var g domain.BlockGroup
		if err := rows.Scan(&g.ID, &g.Visible, &g.Slug); err != nil {
			return nil, fmt.Errorf("scan block group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (s *BlockGroupStore) GetI18n(ctx context.Context, id int64, locale string) (*domain.BlockGroupI18n, error) {
	row := &domain.BlockGroupI18n{}
	var content sql.NullString
	err := s.db.conn.QueryRowContext(ctx,
		s.db.dialect.rebind(`SELECT id, locale, title, json_content FROM block_group_i18n WHERE id = ? AND locale = ?`),
		id, locale,
	).Scan(&row.ID, &row.Locale, &row.Title, &content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get block group i18n: %w", err)
	}
	row.JSONContent = content.String
	return row, nil
}

func (s *BlockGroupStore) Locales(ctx context.Context, id int64) ([]string, error) {
	rows, err := s.db.conn.QueryContext(ctx,
		s.db.dialect.rebind(`SELECT locale FROM block_group_i18n WHERE id = ? ORDER BY locale ASC`), id,
	)
	if err != nil {
		return nil, fmt.Errorf("list locales: %w", err)
	}
	defer rows.Close()

	locales := []string{}
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, err
		}
		locales = append(locales, l)
	}
	return locales, rows.Err()
}

func (s *BlockGroupStore) Items(ctx context.Context, id int64) ([]domain.ItemBlockGroup, error) {
	rows, err := s.db.conn.QueryContext(ctx,
		s.db.dialect.rebind(`SELECT item_type, item_id FROM item_block_group WHERE block_group_id = ? ORDER BY position ASC, item_type ASC, item_id ASC`), id,
	)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := []domain.ItemBlockGroup{}
	for rows.Next() {
		var it domain.ItemBlockGroup
		if err := rows.Scan(&it.ItemType, &it.ItemID); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Upsert writes g keyed by slug and replaces its translations and item
// links. g.ID is set to the stored id.
func (s *BlockGroupStore) Upsert(ctx context.Context, g *domain.BlockGroup, i18n []domain.BlockGroupI18n) error {
	d := s.db.dialect
	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx, d.rebind(`SELECT id FROM block_group WHERE slug = ?`), g.Slug).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		id, err = d.insertID(ctx, tx, `INSERT INTO block_group (visible, slug) VALUES (?, ?)`, g.Visible, g.Slug)
		if err != nil {
			return fmt.Errorf("insert block group %s: %w", g.Slug, err)
		}
	case err != nil:
		return fmt.Errorf("lookup block group %s: %w", g.Slug, err)
	default:
		if _, err := tx.ExecContext(ctx,
			d.rebind(`UPDATE block_group SET visible = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`), g.Visible, id,
		); err != nil {
			return fmt.Errorf("update block group %s: %w", g.Slug, err)
		}
	}

	if _, err := tx.ExecContext(ctx, d.rebind(`DELETE FROM block_group_i18n WHERE id = ?`), id); err != nil {
		return fmt.Errorf("delete i18n: %w", err)
	}
	for _, row := range i18n {
		if _, err := tx.ExecContext(ctx, d.rebind(d.upsertI18n()), id, row.Locale, row.Title, row.JSONContent); err != nil {
			return fmt.Errorf("insert i18n %s/%s: %w", g.Slug, row.Locale, err)
		}
	}

	if _, err := tx.ExecContext(ctx, d.rebind(`DELETE FROM item_block_group WHERE block_group_id = ?`), id); err != nil {
		return fmt.Errorf("delete items: %w", err)
	}
	for pos, it := range g.ItemBlockGroups {
		if _, err := tx.ExecContext(ctx,
			d.rebind(`INSERT INTO item_block_group (block_group_id, item_type, item_id, position) VALUES (?, ?, ?, ?)`),
			id, it.ItemType, it.ItemID, pos,
		); err != nil {
			return fmt.Errorf("insert item %s/%d: %w", it.ItemType, it.ItemID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	g.ID = id
	return nil
}

// SaveI18n inserts or updates a single translation row.
func (s *BlockGroupStore) SaveI18n(ctx context.Context, row domain.BlockGroupI18n) error {
	d := s.db.dialect
	if _, err := s.db.conn.ExecContext(ctx, d.rebind(d.upsertI18n()), row.ID, row.Locale, row.Title, row.JSONContent); err != nil {
		return fmt.Errorf("save i18n %d/%s: %w", row.ID, row.Locale, err)
	}
	return nil
}
