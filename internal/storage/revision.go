package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"blocks/internal/domain"
)

// maxRevisions is how many snapshots are kept per block group locale.
const maxRevisions = 40

var _ domain.RevisionStore = (*RevisionStore)(nil)

// RevisionStore keeps a bounded undo stack of block group contents.
type RevisionStore struct {
	db *DB
}

func NewRevisionStore(db *DB) *RevisionStore {
	return &RevisionStore{db: db}
}

// Push records snapshot as the newest revision and prunes the oldest ones.
func (s *RevisionStore) Push(ctx context.Context, groupID int64, locale, label, snapshot string) error {
	d := s.db.dialect
	if _, err := s.db.conn.ExecContext(ctx,
		d.rebind(`INSERT INTO block_group_revision (block_group_id, locale, label, snapshot_json, created_at) VALUES (?, ?, ?, ?, ?)`),
		groupID, locale, label, snapshot, time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("insert revision: %w", err)
	}
	return s.prune(ctx, groupID, locale)
}

// Pop removes and returns the newest revision.
func (s *RevisionStore) Pop(ctx context.Context, groupID int64, locale string) (*domain.Revision, error) {
	d := s.db.dialect
	r := &domain.Revision{}
	err := s.db.conn.QueryRowContext(ctx,
		d.rebind(`SELECT id, block_group_id, locale, label, snapshot_json, created_at FROM block_group_revision
		 WHERE block_group_id = ? AND locale = ? ORDER BY id DESC LIMIT 1`),
		groupID, locale,
	).Scan(&r.ID, &r.BlockGroupID, &r.Locale, &r.Label, &r.SnapshotJSON, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load revision: %w", err)
	}
	if _, err := s.db.conn.ExecContext(ctx, d.rebind(`DELETE FROM block_group_revision WHERE id = ?`), r.ID); err != nil {
		return nil, fmt.Errorf("delete revision: %w", err)
	}
	return r, nil
}

// Count returns how many revisions are stored for a block group locale.
func (s *RevisionStore) Count(ctx context.Context, groupID int64, locale string) (int, error) {
	var n int
	err := s.db.conn.QueryRowContext(ctx,
		s.db.dialect.rebind(`SELECT COUNT(*) FROM block_group_revision WHERE block_group_id = ? AND locale = ?`),
		groupID, locale,
	).Scan(&n)
	return n, err
}

func (s *RevisionStore) prune(ctx context.Context, groupID int64, locale string) error {
	d := s.db.dialect
	// Find the id of the oldest revision to keep (ids before it go)
	var keepFrom int64
	err := s.db.conn.QueryRowContext(ctx,
		d.rebind(`SELECT id FROM block_group_revision WHERE block_group_id = ? AND locale = ?
		 ORDER BY id DESC `+d.limitClause(intPtr(1), intPtr(maxRevisions-1))),
		groupID, locale,
	).Scan(&keepFrom)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("prune revisions: %w", err)
	}
	_, err = s.db.conn.ExecContext(ctx,
		d.rebind(`DELETE FROM block_group_revision WHERE block_group_id = ? AND locale = ? AND id < ?`),
		groupID, locale, keepFrom,
	)
	return err
}

func intPtr(v int) *int { return &v }
