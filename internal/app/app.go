package app

import (
	"context"
	"fmt"
	"time"

	"blocks/internal/cache"
	"blocks/internal/config"
	"blocks/internal/domain"
	"blocks/internal/secret"
	"blocks/internal/service"
	"blocks/internal/storage"

	"go.uber.org/zap"
)

// App holds the stores and services shared by every command.
type App struct {
	cfg *config.Config
	log *zap.Logger

	groups    domain.BlockGroupStore
	langs     domain.LangStore
	revisions domain.RevisionStore
	cache     cache.Cache

	blocks *service.BlockGroupService
	editor *service.EditorService
	seeds  *service.SeedService

	closers []func() error
}

// New opens the content store and cache described by cfg and builds the
// services. emitter receives editor and seed events; nil logs them.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger, emitter service.EventEmitter) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if emitter == nil {
		emitter = service.LogEmitter{Log: log}
	}
	a := &App{cfg: cfg, log: log}

	if err := a.openStores(ctx, secret.NewEnvStore()); err != nil {
		a.Close()
		return nil, err
	}

	c, err := cache.New(cfg.CacheAddr, "blocks", cfg.CacheTTL)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open cache: %w", err)
	}
	a.cache = c
	a.closers = append(a.closers, func() error { c.Close(); return nil })

	a.blocks = service.NewBlockGroupService(a.groups, a.langs, c, log, cfg.DefaultLocale)
	a.editor = service.NewEditorService(a.groups, a.revisions, c, emitter, log)
	a.seeds = service.NewSeedService(a.groups, a.langs, c, emitter, log, cfg.DefaultLocale)

	log.Info("app: ready",
		zap.String("driver", string(cfg.Database.Driver)),
		zap.Bool("sharedCache", cfg.CacheAddr != ""),
		zap.String("defaultLocale", cfg.DefaultLocale))
	return a, nil
}

// openStores connects to the configured database. SQL drivers share one
// *storage.DB; mongodb gets its own client.
func (a *App) openStores(ctx context.Context, secrets secret.SecretStore) error {
	conn := a.cfg.Database

	if conn.Driver == domain.DatabaseDriverMongoDB {
		ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		m, err := storage.OpenMongo(ctx, conn.URI, conn.Database)
		if err != nil {
			return fmt.Errorf("open mongodb: %w", err)
		}
		a.closers = append(a.closers, m.Close)
		a.groups = storage.NewMongoBlockGroupStore(m)
		a.langs = storage.NewMongoLangStore(m)
		a.revisions = storage.NewMongoRevisionStore(m)
		return nil
	}

	var (
		db  *storage.DB
		err error
	)
	if conn.Driver == domain.DatabaseDriverSQLite {
		db, err = storage.New(conn.Host)
	} else {
		var password []byte
		password, err = secrets.Get(secret.DBPasswordKey)
		if err != nil {
			return fmt.Errorf("read db password: %w", err)
		}
		db, err = storage.Open(conn, string(password))
	}
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	a.closers = append(a.closers, db.Close)
	a.groups = storage.NewBlockGroupStore(db)
	a.langs = storage.NewLangStore(db)
	a.revisions = storage.NewRevisionStore(db)
	return nil
}

// Close stops the seed watcher and releases stores in reverse open order.
func (a *App) Close() {
	if a.seeds != nil {
		a.seeds.Stop()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("app: close failed", zap.Error(err))
		}
	}
	a.closers = nil
}

// Blocks returns the block group query service.
func (a *App) Blocks() *service.BlockGroupService { return a.blocks }

// Editor returns the block list editor.
func (a *App) Editor() *service.EditorService { return a.editor }

// Seeds returns the seed importer.
func (a *App) Seeds() *service.SeedService { return a.seeds }
