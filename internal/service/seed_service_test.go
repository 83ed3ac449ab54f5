package service_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"blocks/internal/domain"
	"blocks/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const homeSeed = `{
  "slug": "home",
  "items": [{"itemType": "product", "itemId": 12}],
  "i18n": {
    "en_US": {"title": "Home", "jsonContent": [{"id": "a", "type": "blockText", "data": {"value": "hi"}}]},
    "fr_FR": {"title": "Accueil", "jsonContent": "[]"}
  }
}`

const footerSeeds = `[
  {"slug": "footer", "visible": false, "i18n": {"en_US": {"title": "Footer"}}},
  {"slug": "banner", "i18n": {"en_US": {"title": "Banner", "jsonContent": null}}}
]`

func newSeedService(f *fixture) *service.SeedService {
	return service.NewSeedService(f.groups, f.langs, f.cache, f.emitter, nil, "en_US")
}

func writeSeed(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestParseSeed(t *testing.T) {
	docs, err := service.ParseSeed([]byte(homeSeed))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "home", docs[0].Slug)
	assert.Nil(t, docs[0].Visible)

	docs, err = service.ParseSeed([]byte(footerSeeds))
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	_, err = service.ParseSeed([]byte(`{"slug":`))
	assert.Error(t, err)
}

func TestSeedService_ImportDir(t *testing.T) {
	f := newFixture(t)
	svc := newSeedService(f)
	ctx := context.Background()
	dir := t.TempDir()

	writeSeed(t, dir, "01-home.json", homeSeed)
	writeSeed(t, dir, "02-footer.json", footerSeeds)
	writeSeed(t, dir, "03-broken.json", `{"slug":`)
	writeSeed(t, dir, "notes.txt", "ignored")

	result, err := svc.ImportDir(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Files)
	assert.Equal(t, []string{"home", "footer", "banner"}, result.Groups)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "03-broken.json")

	home, err := f.groups.FindOne(ctx, domain.BlockGroupFilter{Slug: ptr("home")})
	require.NoError(t, err)
	assert.True(t, home.Visible, "visible defaults to true")

	row, err := f.groups.GetI18n(ctx, home.ID, "en_US")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"a","type":"blockText","data":{"value":"hi"}}]`, row.JSONContent)
	row, err = f.groups.GetI18n(ctx, home.ID, "fr_FR")
	require.NoError(t, err)
	assert.Equal(t, "[]", row.JSONContent, "string content is stored unquoted")

	items, err := f.groups.Items(ctx, home.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.ItemBlockGroup{{ItemType: "product", ItemID: 12}}, items)

	footer, err := f.groups.FindOne(ctx, domain.BlockGroupFilter{Slug: ptr("footer")})
	require.NoError(t, err)
	assert.False(t, footer.Visible)

	def, err := f.langs.DefaultLang(ctx)
	require.NoError(t, err)
	assert.Equal(t, "en_US", def.Locale)
	langs, err := f.langs.ListLangs(ctx)
	require.NoError(t, err)
	assert.Len(t, langs, 2)

	assert.Equal(t, []string{service.EventImported}, f.emitter.Names())
	gen, _ := f.cache.Generation(ctx)
	assert.Equal(t, int64(1), gen)
}

func TestSeedService_ImportIsIdempotent(t *testing.T) {
	f := newFixture(t)
	svc := newSeedService(f)
	ctx := context.Background()
	dir := t.TempDir()
	writeSeed(t, dir, "home.json", homeSeed)

	_, err := svc.ImportDir(ctx, dir)
	require.NoError(t, err)
	first, err := f.groups.FindOne(ctx, domain.BlockGroupFilter{Slug: ptr("home")})
	require.NoError(t, err)

	_, err = svc.ImportDir(ctx, dir)
	require.NoError(t, err)

	all, err := f.groups.Find(ctx, domain.BlockGroupFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, first.ID, all[0].ID)
}

func TestSeedService_EmptyDir(t *testing.T) {
	f := newFixture(t)
	svc := newSeedService(f)

	result, err := svc.ImportDir(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Zero(t, result.Files)
	assert.Empty(t, f.emitter.Events, "nothing imported, nothing emitted")
}

func TestSeedService_Watch(t *testing.T) {
	f := newFixture(t)
	svc := newSeedService(f)
	ctx := context.Background()
	dir := t.TempDir()

	require.NoError(t, svc.Watch(ctx, dir, ""))
	defer svc.Stop()

	writeSeed(t, dir, "home.json", homeSeed)

	assert.Eventually(t, func() bool {
		_, err := f.groups.FindOne(ctx, domain.BlockGroupFilter{Slug: ptr("home")})
		return err == nil
	}, 3*time.Second, 50*time.Millisecond)
}

func TestSeedService_WatchInvalidSchedule(t *testing.T) {
	f := newFixture(t)
	svc := newSeedService(f)

	err := svc.Watch(context.Background(), t.TempDir(), "not a schedule")
	assert.Error(t, err)
	svc.Stop()
}

func TestSeedService_Stop_Idempotent(t *testing.T) {
	svc := service.NewSeedService(nil, nil, nil, nil, nil, "en_US")
	svc.Stop()
	svc.Stop()

	done := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		svc.WaitRunning(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("WaitRunning hung with no running imports")
	}
}
