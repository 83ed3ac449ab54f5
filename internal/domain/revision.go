package domain

import (
	"context"
	"time"
)

// Revision is the content of a block group locale before an edit.
type Revision struct {
	ID           int64     `json:"id" bson:"_id"`
	BlockGroupID int64     `json:"blockGroupId" bson:"block_group_id"`
	Locale       string    `json:"locale" bson:"locale"`
	Label        string    `json:"label" bson:"label"`
	SnapshotJSON string    `json:"snapshotJson" bson:"snapshot_json"`
	CreatedAt    time.Time `json:"createdAt" bson:"created_at"`
}

// RevisionStore is a bounded undo stack per block group locale.
type RevisionStore interface {
	Push(ctx context.Context, groupID int64, locale, label, snapshot string) error
	// Pop removes and returns the newest revision, or ErrNotFound.
	Pop(ctx context.Context, groupID int64, locale string) (*Revision, error)
	Count(ctx context.Context, groupID int64, locale string) (int, error)
}
