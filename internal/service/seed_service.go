package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"blocks/internal/cache"
	"blocks/internal/domain"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ErrImportRunning is returned when the directory is already being imported.
var ErrImportRunning = errors.New("import already running")

// SeedDocument is the on-disk description of one block group.
type SeedDocument struct {
	Slug    string                     `json:"slug"`
	Visible *bool                      `json:"visible"`
	Items   []domain.ItemBlockGroup    `json:"items"`
	I18n    map[string]SeedTranslation `json:"i18n"`
}

// SeedTranslation holds one locale of a seed document. JSONContent may be
// the block list itself or a string holding it.
type SeedTranslation struct {
	Title       string          `json:"title"`
	JSONContent json.RawMessage `json:"jsonContent"`
}

// ImportResult summarizes an import run.
type ImportResult struct {
	Files  int      `json:"files"`
	Groups []string `json:"groups"`
	Errors []string `json:"errors,omitempty"`
}

// ─────────────────────────────────────────────────────────────
// Seed Service: imports block groups from JSON documents
// ─────────────────────────────────────────────────────────────

// SeedService upserts block groups from a directory and keeps it in sync
// through a file watcher and an optional cron schedule.
type SeedService struct {
	groups        domain.BlockGroupStore
	langs         domain.LangStore
	cache         cache.Cache
	emitter       EventEmitter
	log           *zap.Logger
	defaultLocale string

	imports dirImports

	// watcher / cron lifecycle
	mu          sync.Mutex
	watchCancel context.CancelFunc
	watcher     *fsnotify.Watcher
	cronSched   *cron.Cron
}

// NewSeedService creates a SeedService. defaultLocale is flagged as the
// default language when the importer creates it.
func NewSeedService(groups domain.BlockGroupStore, langs domain.LangStore, c cache.Cache, emitter EventEmitter, log *zap.Logger, defaultLocale string) *SeedService {
	if log == nil {
		log = zap.NewNop()
	}
	return &SeedService{groups: groups, langs: langs, cache: c, emitter: emitter, log: log, defaultLocale: defaultLocale}
}

// ParseSeed decodes a file holding one seed document or an array of them.
func ParseSeed(data []byte) ([]SeedDocument, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var docs []SeedDocument
		if err := json.Unmarshal(data, &docs); err != nil {
			return nil, fmt.Errorf("parse seed: %w", err)
		}
		return docs, nil
	}
	var doc SeedDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return []SeedDocument{doc}, nil
}

// content returns the stored form of the translation's block list.
func (t SeedTranslation) content() (string, error) {
	raw := bytes.TrimSpace(t.JSONContent)
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	return string(raw), nil
}

// ImportDir imports every *.json file of dir. Errors of single files are
// collected in the result; the run continues with the next file. It returns
// ErrImportRunning when dir is being imported already.
func (s *SeedService) ImportDir(ctx context.Context, dir string) (*ImportResult, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve seed dir: %w", err)
	}
	if !s.imports.begin(absDir, false) {
		return nil, ErrImportRunning
	}
	return s.importClaimed(ctx, absDir)
}

// importQueued is the watcher and cron entry point: when dir is busy the
// running import picks the request up instead of it being dropped.
func (s *SeedService) importQueued(ctx context.Context, absDir string) (*ImportResult, error) {
	if !s.imports.begin(absDir, true) {
		s.log.Debug("seed: import queued behind running one", zap.String("dir", absDir))
		return nil, nil
	}
	return s.importClaimed(ctx, absDir)
}

// importClaimed runs imports of a claimed dir until no follow-up is queued.
func (s *SeedService) importClaimed(ctx context.Context, absDir string) (*ImportResult, error) {
	for {
		result, err := s.importOnce(ctx, absDir)
		retry := err == nil && ctx.Err() == nil
		if !s.imports.finish(absDir, retry) {
			return result, err
		}
		s.log.Info("seed: re-importing changes seen during import", zap.String("dir", absDir))
	}
}

func (s *SeedService) importOnce(ctx context.Context, absDir string) (*ImportResult, error) {
	files, err := filepath.Glob(filepath.Join(absDir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("list seed files: %w", err)
	}
	sort.Strings(files)

	result := &ImportResult{Groups: []string{}}
	for _, f := range files {
		result.Files++
		slugs, err := s.importFile(ctx, f)
		result.Groups = append(result.Groups, slugs...)
		if err != nil {
			s.log.Warn("seed: import failed", zap.String("file", f), zap.Error(err))
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", filepath.Base(f), err))
		}
	}

	if len(result.Groups) > 0 {
		if s.cache != nil {
			if err := s.cache.Cycle(ctx); err != nil {
				s.log.Warn("seed: cache cycle failed", zap.Error(err))
			}
		}
		if s.emitter != nil {
			s.emitter.Emit(ctx, EventImported, result)
		}
	}
	s.log.Info("seed: import done",
		zap.String("dir", absDir), zap.Int("files", result.Files),
		zap.Int("groups", len(result.Groups)), zap.Int("errors", len(result.Errors)))
	return result, nil
}

func (s *SeedService) importFile(ctx context.Context, path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	docs, err := ParseSeed(data)
	if err != nil {
		return nil, err
	}
	var slugs []string
	for _, doc := range docs {
		if err := s.importDocument(ctx, doc); err != nil {
			return slugs, err
		}
		slugs = append(slugs, doc.Slug)
	}
	return slugs, nil
}

func (s *SeedService) importDocument(ctx context.Context, doc SeedDocument) error {
	if strings.TrimSpace(doc.Slug) == "" {
		return errors.New("seed document without slug")
	}

	locales := make([]string, 0, len(doc.I18n))
	for locale := range doc.I18n {
		locales = append(locales, locale)
	}
	sort.Strings(locales)

	rows := make([]domain.BlockGroupI18n, 0, len(locales))
	for _, locale := range locales {
		t := doc.I18n[locale]
		content, err := t.content()
		if err != nil {
			return fmt.Errorf("%s/%s content: %w", doc.Slug, locale, err)
		}
		if err := s.langs.EnsureLang(ctx, &domain.Lang{
			Locale:    locale,
			ByDefault: locale == s.defaultLocale,
			Active:    true,
		}); err != nil {
			return fmt.Errorf("ensure lang %s: %w", locale, err)
		}
		rows = append(rows, domain.BlockGroupI18n{Locale: locale, Title: t.Title, JSONContent: content})
	}

	visible := true
	if doc.Visible != nil {
		visible = *doc.Visible
	}
	g := &domain.BlockGroup{Slug: doc.Slug, Visible: visible, ItemBlockGroups: doc.Items}
	if err := s.groups.Upsert(ctx, g, rows); err != nil {
		return fmt.Errorf("upsert %s: %w", doc.Slug, err)
	}
	s.log.Debug("seed: block group imported", zap.String("slug", doc.Slug), zap.Int64("id", g.ID))
	return nil
}

// ── Watchers (cron + fsnotify) ────────────────────────────

// Watch re-imports dir when one of its JSON files changes and, when
// schedule is set, on that cron schedule. A running watch is replaced.
func (s *SeedService) Watch(ctx context.Context, dir, schedule string) error {
	s.Stop()

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve seed dir: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	run := func(trigger string) {
		s.log.Info("seed: import triggered", zap.String("trigger", trigger), zap.String("dir", absDir))
		if _, err := s.importQueued(ctx, absDir); err != nil {
			s.log.Warn("seed: import run failed", zap.String("trigger", trigger), zap.Error(err))
		}
	}

	if schedule != "" {
		c := cron.New()
		if _, err := c.AddFunc(schedule, func() { run("cron") }); err != nil {
			return fmt.Errorf("invalid seed schedule %q: %w", schedule, err)
		}
		c.Start()
		s.cronSched = c
		s.log.Info("seed: cron scheduled", zap.String("schedule", schedule))
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		s.stopLocked()
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(absDir); err != nil {
		watcher.Close()
		s.stopLocked()
		return fmt.Errorf("watch %s: %w", absDir, err)
	}
	s.watcher = watcher

	watchCtx, cancel := context.WithCancel(ctx)
	s.watchCancel = cancel

	go func() {
		var timer *time.Timer
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()
		for {
			select {
			case <-watchCtx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Ext(event.Name) != ".json" {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
					!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
					continue
				}
				// Editors write in bursts, import once they settle
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(500*time.Millisecond, func() { run("file:" + filepath.Base(event.Name)) })
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.log.Warn("seed: watcher error", zap.Error(err))
			}
		}
	}()

	s.log.Info("seed: watching", zap.String("dir", absDir))
	return nil
}

// WaitRunning blocks until running imports finish or ctx is cancelled.
func (s *SeedService) WaitRunning(ctx context.Context) {
	s.imports.wait(ctx)
}

// Stop tears down the watcher and the scheduler.
func (s *SeedService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *SeedService) stopLocked() {
	if s.watchCancel != nil {
		s.watchCancel()
		s.watchCancel = nil
	}
	if s.watcher != nil {
		s.watcher.Close()
		s.watcher = nil
	}
	if s.cronSched != nil {
		s.cronSched.Stop()
		s.cronSched = nil
	}
}
