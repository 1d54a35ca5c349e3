// Package catalog persists extracted metadata records. Records are keyed
// by content checksum: re-staging the same bytes under a new name updates
// the existing row instead of duplicating it.
package catalog

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	_ "modernc.org/sqlite"

	"photocat/internal/record"
)

// Store wraps SQLite-backed persistence for the photo catalog.
type Store struct {
	DB *sql.DB
}

// New opens (or creates) the database at path and ensures schema.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &Store{DB: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS photos (
            checksum TEXT PRIMARY KEY,
            file_path TEXT NOT NULL,
            format TEXT,
            file_size INTEGER,
            file_mtime TIMESTAMP,
            camera_make TEXT,
            camera_model TEXT,
            lens_model TEXT,
            serial_number TEXT,
            software TEXT,
            shutter TEXT,
            aperture REAL,
            iso INTEGER,
            exposure_bias REAL,
            exposure_program TEXT,
            metering_mode TEXT,
            flash TEXT,
            white_balance TEXT,
            focal_length REAL,
            focal_length_35mm INTEGER,
            capture_time TIMESTAMP,
            timezone_naive BOOLEAN DEFAULT FALSE,
            gps_lat REAL,
            gps_lon REAL,
            gps_alt REAL,
            keywords_json TEXT,
            rating INTEGER,
            label TEXT,
            title TEXT,
            description TEXT,
            headline TEXT,
            city TEXT,
            sublocation TEXT,
            province_state TEXT,
            country TEXT,
            artist TEXT,
            copyright TEXT,
            width INTEGER,
            height INTEGER,
            extras_json TEXT,
            provenance_json TEXT,
            run_id TEXT,
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE INDEX IF NOT EXISTS idx_photos_file_path ON photos(file_path);`,
		`CREATE INDEX IF NOT EXISTS idx_photos_capture_time ON photos(capture_time);`,
		`CREATE TABLE IF NOT EXISTS extraction_runs (
            run_id TEXT PRIMARY KEY,
            started_at TIMESTAMP,
            duration_ms INTEGER,
            succeeded INTEGER,
            failed INTEGER
        );`,
	}
	for _, stmt := range stmts {
		if _, err := s.DB.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying DB.
func (s *Store) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// Upsert writes one record, replacing any previous row with the same
// checksum. runID tags the row with the batch that produced it.
func (s *Store) Upsert(rec *record.Record, runID string) error {
	if s == nil {
		return nil
	}
	if rec.Checksum == "" {
		return errors.New("record has no checksum")
	}

	keywordsJSON, _ := json.Marshal(rec.Keywords)
	extrasJSON, _ := json.Marshal(rec.Extras)
	provJSON, _ := json.Marshal(rec.Provenance)

	var gpsLat, gpsLon, gpsAlt *float64
	if rec.GPS != nil {
		gpsLat = &rec.GPS.Latitude
		gpsLon = &rec.GPS.Longitude
		gpsAlt = rec.GPS.Altitude
	}

	_, err := s.DB.Exec(`INSERT INTO photos (
            checksum, file_path, format, file_size, file_mtime,
            camera_make, camera_model, lens_model, serial_number, software,
            shutter, aperture, iso, exposure_bias, exposure_program,
            metering_mode, flash, white_balance, focal_length, focal_length_35mm,
            capture_time, timezone_naive, gps_lat, gps_lon, gps_alt,
            keywords_json, rating, label, title, description, headline,
            city, sublocation, province_state, country, artist, copyright,
            width, height, extras_json, provenance_json, run_id, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
        ON CONFLICT(checksum) DO UPDATE SET
            file_path=excluded.file_path,
            format=excluded.format,
            file_size=excluded.file_size,
            file_mtime=excluded.file_mtime,
            camera_make=excluded.camera_make,
            camera_model=excluded.camera_model,
            lens_model=excluded.lens_model,
            serial_number=excluded.serial_number,
            software=excluded.software,
            shutter=excluded.shutter,
            aperture=excluded.aperture,
            iso=excluded.iso,
            exposure_bias=excluded.exposure_bias,
            exposure_program=excluded.exposure_program,
            metering_mode=excluded.metering_mode,
            flash=excluded.flash,
            white_balance=excluded.white_balance,
            focal_length=excluded.focal_length,
            focal_length_35mm=excluded.focal_length_35mm,
            capture_time=excluded.capture_time,
            timezone_naive=excluded.timezone_naive,
            gps_lat=excluded.gps_lat,
            gps_lon=excluded.gps_lon,
            gps_alt=excluded.gps_alt,
            keywords_json=excluded.keywords_json,
            rating=excluded.rating,
            label=excluded.label,
            title=excluded.title,
            description=excluded.description,
            headline=excluded.headline,
            city=excluded.city,
            sublocation=excluded.sublocation,
            province_state=excluded.province_state,
            country=excluded.country,
            artist=excluded.artist,
            copyright=excluded.copyright,
            width=excluded.width,
            height=excluded.height,
            extras_json=excluded.extras_json,
            provenance_json=excluded.provenance_json,
            run_id=excluded.run_id,
            updated_at=CURRENT_TIMESTAMP;`,
		rec.Checksum, rec.Path, rec.Format, rec.FileSize, rec.FileModTime,
		rec.CameraMake, rec.CameraModel, rec.LensModel, rec.SerialNumber, rec.Software,
		rec.Shutter, rec.Aperture, rec.ISO, rec.ExposureBias, rec.ExposureProgram,
		rec.MeteringMode, rec.Flash, rec.WhiteBalance, rec.FocalLength, rec.FocalLength35,
		rec.CaptureTime, rec.TimezoneNaive, gpsLat, gpsLon, gpsAlt,
		string(keywordsJSON), rec.Rating, rec.Label, rec.Title, rec.Description, rec.Headline,
		rec.City, rec.Sublocation, rec.ProvinceState, rec.Country, rec.Artist, rec.Copyright,
		rec.Width, rec.Height, string(extrasJSON), string(provJSON), runID)
	return err
}

// KnownModTimes returns the last-seen file mtime per path, the input to
// staging change detection.
func (s *Store) KnownModTimes() (map[string]time.Time, error) {
	if s == nil {
		return nil, errors.New("store not initialized")
	}
	rows, err := s.DB.Query(`SELECT file_path, file_mtime FROM photos;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]time.Time)
	for rows.Next() {
		var path string
		var mtime sql.NullTime
		if err := rows.Scan(&path, &mtime); err != nil {
			return nil, err
		}
		if mtime.Valid {
			out[path] = mtime.Time
		}
	}
	return out, rows.Err()
}

// Count returns the number of cataloged photos.
func (s *Store) Count() (int, error) {
	if s == nil {
		return 0, errors.New("store not initialized")
	}
	var n int
	err := s.DB.QueryRow(`SELECT COUNT(*) FROM photos;`).Scan(&n)
	return n, err
}

// Entry is the listing projection of a cataloged photo.
type Entry struct {
	Checksum    string
	Path        string
	CameraModel string
	Shutter     string
	CaptureTime *time.Time
	Rating      *int
	City        string
	Keywords    []string
}

// Recent returns the latest photos by capture time, newest first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	if s == nil {
		return nil, errors.New("store not initialized")
	}
	rows, err := s.DB.Query(`SELECT checksum, file_path, camera_model, shutter,
            capture_time, rating, city, keywords_json
        FROM photos ORDER BY capture_time DESC LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var captured sql.NullTime
		var rating sql.NullInt64
		var model, shutter, city, keywordsJSON sql.NullString
		if err := rows.Scan(&e.Checksum, &e.Path, &model, &shutter, &captured, &rating, &city, &keywordsJSON); err != nil {
			return nil, err
		}
		e.CameraModel = model.String
		e.Shutter = shutter.String
		e.City = city.String
		if captured.Valid {
			e.CaptureTime = &captured.Time
		}
		if rating.Valid {
			n := int(rating.Int64)
			e.Rating = &n
		}
		if keywordsJSON.Valid && keywordsJSON.String != "" {
			_ = json.Unmarshal([]byte(keywordsJSON.String), &e.Keywords)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// RecordRun persists the summary line of a finished extraction batch.
func (s *Store) RecordRun(runID string, startedAt time.Time, duration time.Duration, succeeded, failed int) error {
	if s == nil {
		return nil
	}
	_, err := s.DB.Exec(`INSERT OR REPLACE INTO extraction_runs
            (run_id, started_at, duration_ms, succeeded, failed)
        VALUES (?, ?, ?, ?, ?);`,
		runID, startedAt, duration.Milliseconds(), succeeded, failed)
	return err
}
