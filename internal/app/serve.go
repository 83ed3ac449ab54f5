package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"blocks/internal/api"
	mcpserver "blocks/internal/mcp"

	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// ServeHTTP runs the query API until ctx is cancelled, then drains
// in-flight requests. When a seed directory is configured it is imported
// once and watched for the lifetime of the server.
func (a *App) ServeHTTP(ctx context.Context) error {
	if err := a.startSeeds(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           api.NewRouter(api.NewHandler(a.blocks, a.log)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("http: listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("http: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.seeds.Stop()
	a.seeds.WaitRunning(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// ServeMCP runs the MCP server on stdin/stdout until the client disconnects.
// notifier is attached to the server so editor and seed events reach the
// client; pass the same one given to New.
func (a *App) ServeMCP(ctx context.Context, notifier *mcpserver.Notifier) error {
	if err := a.startSeeds(ctx); err != nil {
		return err
	}
	defer a.seeds.Stop()

	srv := mcpserver.New(mcpserver.Deps{
		Blocks:   a.blocks,
		Editor:   a.editor,
		Seeds:    a.seeds,
		SeedDir:  a.cfg.SeedDir,
		Notifier: notifier,
		Log:      a.log,
	})
	return srv.ServeStdio()
}

// ImportSeeds imports dir, or the configured seed directory when dir is empty.
func (a *App) ImportSeeds(ctx context.Context, dir string) error {
	if dir == "" {
		dir = a.cfg.SeedDir
	}
	if dir == "" {
		return errors.New("no seed directory given (argument or BLOCKS_SEED_DIR)")
	}
	result, err := a.seeds.ImportDir(ctx, dir)
	if err != nil {
		return err
	}
	if len(result.Errors) > 0 {
		return fmt.Errorf("%d of %d seed files failed: %v", len(result.Errors), result.Files, result.Errors)
	}
	return nil
}

func (a *App) startSeeds(ctx context.Context) error {
	if a.cfg.SeedDir == "" {
		return nil
	}
	if _, err := a.seeds.ImportDir(ctx, a.cfg.SeedDir); err != nil {
		return fmt.Errorf("initial seed import: %w", err)
	}
	return a.seeds.Watch(ctx, a.cfg.SeedDir, a.cfg.SeedSchedule)
}
