package catalog

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photocat/internal/record"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRecord(checksum, path string) *record.Record {
	captured := time.Date(2024, 6, 12, 21, 14, 3, 0, time.UTC)
	iso := 400
	rating := 4
	aperture := 4.0
	alt := -8.2
	return &record.Record{
		Path:        path,
		Format:      "jpeg",
		Checksum:    checksum,
		FileSize:    2048,
		FileModTime: time.Date(2024, 6, 12, 22, 0, 0, 0, time.UTC),
		CameraMake:  "NIKON CORPORATION",
		CameraModel: "NIKON Z 6",
		Shutter:     "1/60",
		Aperture:    &aperture,
		ISO:         &iso,
		CaptureTime: &captured,
		GPS:         &record.GPSPosition{Latitude: 53.5449, Longitude: 9.9969, Altitude: &alt},
		Keywords:    []string{"harbour", "dusk"},
		Rating:      &rating,
		City:        "Hamburg",
		Provenance: map[record.Group]record.Source{
			record.GroupCamera: record.SourceEXIF,
		},
	}
}

func TestUpsertIdempotent(t *testing.T) {
	s := openTestStore(t)
	rec := sampleRecord("sum-1", "/staging/a.jpg")

	require.NoError(t, s.Upsert(rec, "run-1"))
	require.NoError(t, s.Upsert(rec, "run-2"))

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n, "same checksum twice is one row")
}

func TestUpsertSameContentNewPath(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Upsert(sampleRecord("sum-1", "/staging/a.jpg"), "run-1"))
	require.NoError(t, s.Upsert(sampleRecord("sum-1", "/staging/renamed.jpg"), "run-2"))

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	entries, err := s.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "/staging/renamed.jpg", entries[0].Path)
}

func TestUpsertRequiresChecksum(t *testing.T) {
	s := openTestStore(t)
	err := s.Upsert(&record.Record{Path: "/x.jpg"}, "run-1")
	require.Error(t, err)
}

func TestKnownModTimes(t *testing.T) {
	s := openTestStore(t)
	a := sampleRecord("sum-a", "/staging/a.jpg")
	b := sampleRecord("sum-b", "/staging/b.dng")
	require.NoError(t, s.Upsert(a, "run-1"))
	require.NoError(t, s.Upsert(b, "run-1"))

	known, err := s.KnownModTimes()
	require.NoError(t, err)
	require.Len(t, known, 2)
	assert.True(t, known["/staging/a.jpg"].Equal(a.FileModTime))
}

func TestRecentOrderingAndFields(t *testing.T) {
	s := openTestStore(t)

	older := sampleRecord("sum-old", "/staging/old.jpg")
	early := older.CaptureTime.Add(-24 * time.Hour)
	older.CaptureTime = &early
	require.NoError(t, s.Upsert(older, "run-1"))
	require.NoError(t, s.Upsert(sampleRecord("sum-new", "/staging/new.jpg"), "run-1"))

	entries, err := s.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "sum-new", entries[0].Checksum)
	assert.Equal(t, "NIKON Z 6", entries[0].CameraModel)
	assert.Equal(t, "1/60", entries[0].Shutter)
	assert.Equal(t, []string{"harbour", "dusk"}, entries[0].Keywords)
	require.NotNil(t, entries[0].Rating)
	assert.Equal(t, 4, *entries[0].Rating)
	assert.Equal(t, "Hamburg", entries[0].City)
	assert.Equal(t, "sum-old", entries[1].Checksum)
}

func TestRecordRun(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.RecordRun("run-1", time.Now(), 1500*time.Millisecond, 10, 2))

	var succeeded, failed, durationMS int
	err := s.DB.QueryRow(`SELECT succeeded, failed, duration_ms FROM extraction_runs WHERE run_id = ?;`, "run-1").
		Scan(&succeeded, &failed, &durationMS)
	require.NoError(t, err)
	assert.Equal(t, 10, succeeded)
	assert.Equal(t, 2, failed)
	assert.Equal(t, 1500, durationMS)
}

func TestNullableColumnsRoundTrip(t *testing.T) {
	s := openTestStore(t)
	rec := &record.Record{
		Path:     "/staging/spare.jpg",
		Format:   "jpeg",
		Checksum: "sum-sparse",
	}
	require.NoError(t, s.Upsert(rec, "run-1"))

	entries, err := s.Recent(1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].CaptureTime)
	assert.Nil(t, entries[0].Rating)
	assert.Empty(t, entries[0].CameraModel)
}
