package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"blocks/internal/config"
	"blocks/internal/domain"
	"blocks/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		HTTPAddr: "127.0.0.1:0",
		Database: domain.DatabaseConnection{
			Driver: domain.DatabaseDriverSQLite,
			Host:   filepath.Join(dir, "data", "blocks.db"),
		},
		CacheTTL:      time.Minute,
		DefaultLocale: "en_US",
	}
}

func writeSeed(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestNew_SQLite(t *testing.T) {
	emitter := &service.MockEmitter{}
	a, err := New(context.Background(), testConfig(t), nil, emitter)
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, "en_US", a.Blocks().DefaultLocale(context.Background()))
	assert.NotNil(t, a.Editor())
	assert.NotNil(t, a.Seeds())
}

func TestNew_UnsupportedDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Driver = "oracle"
	_, err := New(context.Background(), cfg, nil, nil)
	assert.Error(t, err)
}

func TestImportSeeds(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.SeedDir = t.TempDir()
	writeSeed(t, cfg.SeedDir, "home.json",
		`{"slug":"home","i18n":{"en_US":{"title":"Home","jsonContent":"[{\"id\":\"a\"}]"}}}`)

	emitter := &service.MockEmitter{}
	a, err := New(ctx, cfg, nil, emitter)
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.ImportSeeds(ctx, ""))
	slug := "home"
	g, err := a.Blocks().GetBlockGroup(ctx, service.GetQuery{Slug: &slug, Locale: "en_US"})
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"a"}]`, g.JSONContent)
	assert.Equal(t, []string{service.EventImported}, emitter.Names())

	writeSeed(t, cfg.SeedDir, "broken.json", `{`)
	assert.Error(t, a.ImportSeeds(ctx, ""), "file errors are reported")
}

func TestImportSeeds_NoDir(t *testing.T) {
	a, err := New(context.Background(), testConfig(t), nil, nil)
	require.NoError(t, err)
	defer a.Close()

	assert.Error(t, a.ImportSeeds(context.Background(), ""))
}

func TestServeHTTP_Shutdown(t *testing.T) {
	a, err := New(context.Background(), testConfig(t), nil, nil)
	require.NoError(t, err)
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.ServeHTTP(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
