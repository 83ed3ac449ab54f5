package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"blocks/internal/domain"
)

// LangStore implements domain.LangStore over SQL.
type LangStore struct {
	db *DB
}

func NewLangStore(db *DB) *LangStore {
	return &LangStore{db: db}
}

var _ domain.LangStore = (*LangStore)(nil)

const langColumns = `id, code, locale, title, by_default, active`

func scanLang(sc interface{ Scan(...any) error }) (domain.Lang, error) {
	var l domain.Lang
	err := sc.Scan(&l.ID, &l.Code, &l.Locale, &l.Title, &l.ByDefault, &l.Active)
	return l, err
}

func (s *LangStore) DefaultLang(ctx context.Context) (*domain.Lang, error) {
	l, err := scanLang(s.db.conn.QueryRowContext(ctx,
		s.db.dialect.rebind(`SELECT `+langColumns+` FROM lang WHERE by_default = ? ORDER BY position ASC, id ASC LIMIT 1`), true,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get default lang: %w", err)
	}
	return &l, nil
}

func (s *LangStore) ListLangs(ctx context.Context) ([]domain.Lang, error) {
	rows, err := s.db.conn.QueryContext(ctx, `SELECT `+langColumns+` FROM lang ORDER BY position ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list langs: %w", err)
	}
	defer rows.Close()

	var langs []domain.Lang
	for rows.Next() {
		l, err := scanLang(rows)
		if err != nil {
			return nil, err
		}
		langs = append(langs, l)
	}
	return langs, rows.Err()
}

func (s *LangStore) EnsureLang(ctx context.Context, l *domain.Lang) error {
	d := s.db.dialect
	err := s.db.conn.QueryRowContext(ctx, d.rebind(`SELECT id FROM lang WHERE locale = ?`), l.Locale).Scan(&l.ID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("lookup lang %s: %w", l.Locale, err)
	}
	if l.Code == "" {
		l.Code = localeCode(l.Locale)
	}
	id, err := d.insertID(ctx, s.db.conn,
		`INSERT INTO lang (code, locale, title, by_default, active) VALUES (?, ?, ?, ?, ?)`,
		l.Code, l.Locale, l.Title, l.ByDefault, l.Active,
	)
	if err != nil {
		return fmt.Errorf("insert lang %s: %w", l.Locale, err)
	}
	l.ID = id
	return nil
}

// localeCode returns the language part of a locale ("fr_FR" -> "fr").
func localeCode(locale string) string {
	for i, r := range locale {
		if r == '_' || r == '-' {
			return locale[:i]
		}
	}
	return locale
}
