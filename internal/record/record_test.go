package record

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int             { return &v }
func floatp(v float64) *float64   { return &v }
func timep(v time.Time) *time.Time { return &v }

func TestAssembleGroupPrecedence(t *testing.T) {
	captured := time.Date(2024, 6, 12, 21, 14, 3, 0, time.UTC)

	exif := Fragment{
		Source: SourceEXIF,
		Record: Record{
			CameraMake:  "NIKON CORPORATION",
			CameraModel: "NIKON Z 6",
			Shutter:     "1/60",
			Aperture:    floatp(4.0),
			ISO:         intp(400),
			CaptureTime: timep(captured),
			GPS:         &GPSPosition{Latitude: 53.5449, Longitude: 9.9969},
		},
	}
	sidecar := Fragment{
		Source: SourceXMPSidecar,
		Record: Record{
			Keywords: []string{"harbour", "dusk"},
			Rating:   intp(4),
			GPS:      &GPSPosition{Latitude: 53.55, Longitude: 9.99},
		},
	}
	iptcFrag := Fragment{
		Source: SourceIPTC,
		Record: Record{
			City:        "Hamburg",
			Country:     "Germany",
			Headline:    "Evening light",
			Description: "Long exposure.",
			Keywords:    []string{"iptc-keyword"},
		},
	}

	// Sidecar listed first: it beat the embedded sources on recency.
	rec, err := Assemble(FileInfo{
		Path:     "/photos/staging/DSC_0042.jpg",
		Format:   "jpeg",
		Checksum: "abc123",
		Size:     2048,
	}, []Fragment{sidecar, exif, iptcFrag})
	require.NoError(t, err)

	assert.Equal(t, "NIKON Z 6", rec.CameraModel)
	assert.Equal(t, SourceEXIF, rec.Provenance[GroupCamera])

	assert.Equal(t, []string{"harbour", "dusk"}, rec.Keywords)
	assert.Equal(t, SourceXMPSidecar, rec.Provenance[GroupKeywords])

	require.NotNil(t, rec.GPS)
	assert.Equal(t, 53.55, rec.GPS.Latitude, "sidecar wins the whole gps group")
	assert.Equal(t, SourceXMPSidecar, rec.Provenance[GroupGPS])

	assert.Equal(t, "Hamburg", rec.City)
	assert.Equal(t, SourceIPTC, rec.Provenance[GroupLocation])
	assert.Equal(t, "Long exposure.", rec.Description)

	require.NotNil(t, rec.CaptureTime)
	assert.True(t, rec.CaptureTime.Equal(captured))
	assert.Equal(t, SourceEXIF, rec.Provenance[GroupCapture])

	assert.Equal(t, "/photos/staging/DSC_0042.jpg", rec.Path)
	assert.Equal(t, "abc123", rec.Checksum)
}

func TestAssembleGroupsNeverMixSources(t *testing.T) {
	first := Fragment{
		Source: SourceXMP,
		Record: Record{Aperture: floatp(2.8)},
	}
	second := Fragment{
		Source: SourceEXIF,
		Record: Record{Aperture: floatp(4.0), ISO: intp(800), Shutter: "1/250"},
	}

	rec, err := Assemble(FileInfo{Path: "a.dng", Checksum: "x"}, []Fragment{first, second})
	require.NoError(t, err)

	// The XMP fragment populated the exposure group, so its (partial)
	// view wins whole: no ISO or shutter bleed-through from EXIF.
	require.NotNil(t, rec.Aperture)
	assert.Equal(t, 2.8, *rec.Aperture)
	assert.Nil(t, rec.ISO)
	assert.Empty(t, rec.Shutter)
	assert.Equal(t, SourceXMP, rec.Provenance[GroupExposure])
}

func TestAssembleIncomplete(t *testing.T) {
	frag := Fragment{
		Source: SourceIPTC,
		Record: Record{City: "Hamburg"},
	}

	_, err := Assemble(FileInfo{Path: "broken.jpg"}, []Fragment{frag})
	require.ErrorIs(t, err, ErrIncomplete)

	// Either anchor alone is enough.
	_, err = Assemble(FileInfo{Path: "ok.jpg", Checksum: "abc"}, []Fragment{frag})
	require.NoError(t, err)

	withTime := Fragment{
		Source: SourceEXIF,
		Record: Record{CaptureTime: timep(time.Now())},
	}
	_, err = Assemble(FileInfo{Path: "ok2.jpg"}, []Fragment{withTime})
	require.NoError(t, err)
}

func TestAssembleExtrasUnion(t *testing.T) {
	a := Fragment{
		Source: SourceEXIF,
		Record: Record{Extras: map[string]string{"ifd0/0xc612": "1 2 3", "shared": "exif"}},
	}
	b := Fragment{
		Source: SourceXMP,
		Record: Record{Extras: map[string]string{"xmp/CreatorTool": "darktable", "shared": "xmp"}},
	}

	rec, err := Assemble(FileInfo{Path: "x.jpg", Checksum: "c"}, []Fragment{a, b})
	require.NoError(t, err)
	assert.Equal(t, "1 2 3", rec.Extras["ifd0/0xc612"])
	assert.Equal(t, "darktable", rec.Extras["xmp/CreatorTool"])
	assert.Equal(t, "exif", rec.Extras["shared"], "earlier fragment wins collisions")
}

func TestAssembleNoFragments(t *testing.T) {
	rec, err := Assemble(FileInfo{Path: "bare.jpg", Checksum: "c"}, nil)
	require.NoError(t, err)
	assert.Empty(t, rec.Provenance)
	assert.Nil(t, rec.CaptureTime)
}

func TestHasGroup(t *testing.T) {
	f := Fragment{Record: Record{Rating: intp(5)}}
	assert.True(t, f.HasGroup(GroupRating))
	assert.False(t, f.HasGroup(GroupGPS))
	assert.False(t, f.HasGroup(GroupKeywords))

	f = Fragment{Record: Record{Width: intp(6000), Height: intp(4000)}}
	assert.True(t, f.HasGroup(GroupDimensions))
}
