package domain

import (
	"context"
	"strings"
)

// BlockGroup is a named, localized collection of blocks. Title and
// JSONContent hold the values of a single locale: the one the group was
// built for.
type BlockGroup struct {
	ID              int64            `json:"id"`
	Visible         bool             `json:"visible"`
	Slug            string           `json:"slug"`
	Title           string           `json:"title"`
	JSONContent     string           `json:"jsonContent"`
	Locales         []string         `json:"locales"`
	ItemBlockGroups []ItemBlockGroup `json:"itemBlockGroups"`
}

// HasContent reports whether the group carries non-blank JSON content.
func (g *BlockGroup) HasContent() bool {
	return strings.TrimSpace(g.JSONContent) != ""
}

// HasLocale reports whether locale is one of the group's stored locales.
func (g *BlockGroup) HasLocale(locale string) bool {
	for _, l := range g.Locales {
		if l == locale {
			return true
		}
	}
	return false
}

// BlockGroupI18n is the per-locale row of a block group.
type BlockGroupI18n struct {
	ID          int64  `json:"id"`
	Locale      string `json:"locale"`
	Title       string `json:"title"`
	JSONContent string `json:"jsonContent"`
}

// ItemBlockGroup links a block group to an entity of the host system.
type ItemBlockGroup struct {
	ItemType string `json:"itemType"`
	ItemID   int64  `json:"itemId"`
}

type Order string

const (
	OrderID        Order = "id"
	OrderIDReverse Order = "id_reverse"
)

// Descending reports whether rows are returned by descending id. Anything
// other than OrderID sorts descending.
func (o Order) Descending() bool {
	return o != OrderID
}

// BlockGroupFilter holds the optional criteria of a block group lookup.
// Nil fields are not applied.
type BlockGroupFilter struct {
	ID       *int64
	Slug     *string
	Visible  *bool
	Title    *string
	ItemType *string
	ItemID   *int64 // only applied together with ItemType
	Limit    *int
	Offset   *int
	Order    Order
}

type BlockGroupStore interface {
	FindOne(ctx context.Context, f BlockGroupFilter) (*BlockGroup, error)
	Find(ctx context.Context, f BlockGroupFilter) ([]BlockGroup, error)
	GetI18n(ctx context.Context, id int64, locale string) (*BlockGroupI18n, error)
	Locales(ctx context.Context, id int64) ([]string, error)
	Items(ctx context.Context, id int64) ([]ItemBlockGroup, error)
	Upsert(ctx context.Context, g *BlockGroup, i18n []BlockGroupI18n) error
	SaveI18n(ctx context.Context, row BlockGroupI18n) error
}
