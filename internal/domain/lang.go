package domain

import "context"

// Lang is a language configured on the host. Locale is the key block group
// translations are stored under (e.g. "en_US").
type Lang struct {
	ID        int64  `json:"id"`
	Code      string `json:"code"`
	Locale    string `json:"locale"`
	Title     string `json:"title"`
	ByDefault bool   `json:"byDefault"`
	Active    bool   `json:"active"`
}

type LangStore interface {
	DefaultLang(ctx context.Context) (*Lang, error)
	ListLangs(ctx context.Context) ([]Lang, error)
	// EnsureLang inserts l when its locale is unknown and fills l.ID.
	EnsureLang(ctx context.Context, l *Lang) error
}
