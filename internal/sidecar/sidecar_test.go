package sidecar

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photocat/internal/record"
)

func TestCandidates(t *testing.T) {
	assert.Equal(t,
		[]string{"/staging/DSC_0042.xmp", "/staging/DSC_0042.dng.xmp"},
		Candidates("/staging/DSC_0042.dng"))

	// No extension: both conventions collapse to one path.
	assert.Equal(t, []string{"/staging/scan.xmp"}, Candidates("/staging/scan"))
}

func TestLocatePrefersReplacedExtension(t *testing.T) {
	dir := t.TempDir()
	asset := filepath.Join(dir, "DSC_0042.dng")
	require.NoError(t, os.WriteFile(asset, []byte("raw"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "DSC_0042.xmp"), []byte("<a/>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "DSC_0042.dng.xmp"), []byte("<b/>"), 0o644))

	info, err := Locate(asset)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, filepath.Join(dir, "DSC_0042.xmp"), info.Path)
}

func TestLocateAppendedConvention(t *testing.T) {
	dir := t.TempDir()
	asset := filepath.Join(dir, "DSC_0042.dng")
	require.NoError(t, os.WriteFile(asset, []byte("raw"), 0o644))
	require.NoError(t, os.WriteFile(asset+".xmp", []byte("<b/>"), 0o644))

	info, err := Locate(asset)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, asset+".xmp", info.Path)
	assert.False(t, info.ModTime.IsZero())
}

func TestLocateMissing(t *testing.T) {
	dir := t.TempDir()
	info, err := Locate(filepath.Join(dir, "nothing.jpg"))
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestWins(t *testing.T) {
	base := time.Date(2024, 6, 12, 12, 0, 0, 0, time.UTC)
	assert.True(t, Wins(base, base.Add(time.Second)))
	assert.False(t, Wins(base, base), "tie keeps embedded")
	assert.False(t, Wins(base, base.Add(-time.Hour)))
}

func TestOrder(t *testing.T) {
	exif := record.Fragment{Source: record.SourceEXIF}
	iptc := record.Fragment{Source: record.SourceIPTC}
	sc := record.Fragment{Source: record.SourceXMPSidecar}
	base := time.Date(2024, 6, 12, 12, 0, 0, 0, time.UTC)

	got := Order([]record.Fragment{exif, iptc}, &sc, base, base.Add(time.Minute))
	require.Len(t, got, 3)
	assert.Equal(t, record.SourceXMPSidecar, got[0].Source)

	// A tied sidecar is stale and does not participate at all.
	got = Order([]record.Fragment{exif, iptc}, &sc, base, base)
	require.Len(t, got, 2)
	assert.Equal(t, record.SourceEXIF, got[0].Source)
	assert.Equal(t, record.SourceIPTC, got[1].Source)

	// Same for an older sidecar.
	got = Order([]record.Fragment{exif, iptc}, &sc, base, base.Add(-time.Hour))
	require.Len(t, got, 2)

	got = Order([]record.Fragment{exif, iptc}, nil, base, base)
	assert.Len(t, got, 2)
}
