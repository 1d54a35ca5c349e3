package staging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photocat/internal/sidecar"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestDiscoverPairsSidecars(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "DSC_0001.jpg"))
	touch(t, filepath.Join(dir, "DSC_0002.dng"))
	touch(t, filepath.Join(dir, "DSC_0002.dng.xmp"))
	touch(t, filepath.Join(dir, "sub", "DSC_0003.nef"))
	touch(t, filepath.Join(dir, "sub", "DSC_0003.xmp"))
	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, "orphan.xmp"))

	assets, err := Discover(dir)
	require.NoError(t, err)
	require.Len(t, assets, 3, "text files and orphan sidecars are not assets")

	assert.Equal(t, filepath.Join(dir, "DSC_0001.jpg"), assets[0].Path)
	assert.Nil(t, assets[0].Sidecar)

	assert.Equal(t, filepath.Join(dir, "DSC_0002.dng"), assets[1].Path)
	require.NotNil(t, assets[1].Sidecar)
	assert.Equal(t, filepath.Join(dir, "DSC_0002.dng.xmp"), assets[1].Sidecar.Path)

	assert.Equal(t, filepath.Join(dir, "sub", "DSC_0003.nef"), assets[2].Path)
	require.NotNil(t, assets[2].Sidecar)
	assert.Equal(t, filepath.Join(dir, "sub", "DSC_0003.xmp"), assets[2].Sidecar.Path)
}

func TestEffectiveModTime(t *testing.T) {
	dir := t.TempDir()
	asset := filepath.Join(dir, "a.dng")
	sc := asset + ".xmp"
	touch(t, asset)
	touch(t, sc)

	base := time.Date(2024, 6, 12, 12, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(asset, base, base))
	require.NoError(t, os.Chtimes(sc, base.Add(time.Hour), base.Add(time.Hour)))

	assets, err := Discover(dir)
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.True(t, assets[0].EffectiveModTime().Equal(base.Add(time.Hour)),
		"sidecar edit bumps the asset")
}

func TestFilterChanged(t *testing.T) {
	base := time.Date(2024, 6, 12, 12, 0, 0, 0, time.UTC)
	assets := []Asset{
		{Path: "/s/unchanged.jpg", ModTime: base},
		{Path: "/s/bumped.jpg", ModTime: base.Add(time.Minute)},
		{Path: "/s/new.jpg", ModTime: base},
	}
	known := map[string]time.Time{
		"/s/unchanged.jpg": base,
		"/s/bumped.jpg":    base,
	}

	got := FilterChanged(assets, known, false)
	require.Len(t, got, 2)
	assert.Equal(t, "/s/bumped.jpg", got[0].Path)
	assert.Equal(t, "/s/new.jpg", got[1].Path)

	got = FilterChanged(assets, known, true)
	assert.Len(t, got, 3, "refresh keeps everything")
}

func TestFilterChangedSidecarBump(t *testing.T) {
	base := time.Date(2024, 6, 12, 12, 0, 0, 0, time.UTC)
	a := Asset{Path: "/s/a.dng", ModTime: base}
	known := map[string]time.Time{"/s/a.dng": base}

	assert.Empty(t, FilterChanged([]Asset{a}, known, false))

	// A sidecar edited after the catalog run re-queues the asset.
	a.Sidecar = &sidecar.Info{Path: "/s/a.dng.xmp", ModTime: base.Add(time.Minute)}
	got := FilterChanged([]Asset{a}, known, false)
	require.Len(t, got, 1)
}

func TestResolveSidecarAsset(t *testing.T) {
	dir := t.TempDir()
	dng := filepath.Join(dir, "DSC_0002.dng")
	touch(t, dng)
	jpg := filepath.Join(dir, "DSC_0005.jpg")
	touch(t, jpg)

	assert.Equal(t, dng, ResolveSidecarAsset(dng+".xmp"))
	assert.Equal(t, jpg, ResolveSidecarAsset(filepath.Join(dir, "DSC_0005.xmp")))
	assert.Empty(t, ResolveSidecarAsset(filepath.Join(dir, "orphan.xmp")))
	assert.Empty(t, ResolveSidecarAsset(dng), "non-sidecar paths resolve to nothing")
}

func TestWatcherBatchesAssetAndSidecarEvents(t *testing.T) {
	dir := t.TempDir()
	dng := filepath.Join(dir, "DSC_0100.dng")
	touch(t, dng)

	w, err := NewWatcher(dir, 50*time.Millisecond, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	touch(t, filepath.Join(dir, "DSC_0101.jpg"))
	touch(t, dng+".xmp")
	touch(t, filepath.Join(dir, "README.md")) // never an asset

	select {
	case batch := <-w.Batches:
		assert.Contains(t, batch, filepath.Join(dir, "DSC_0101.jpg"))
		assert.Contains(t, batch, dng, "sidecar event maps to its asset")
		assert.NotContains(t, batch, filepath.Join(dir, "README.md"))
	case <-time.After(5 * time.Second):
		t.Fatal("no batch emitted")
	}
}
