// Package record defines the normalized metadata record and assembles it
// from the per-source fragments the extractors produce.
package record

import (
	"errors"
	"fmt"
	"time"
)

// ErrIncomplete marks a record lacking both of the identity anchors: a
// capture timestamp and a content checksum. Such a record cannot be
// keyed in the catalog and the asset fails as a whole.
var ErrIncomplete = errors.New("incomplete record")

// Source names where a field group came from.
type Source string

const (
	SourceEXIF       Source = "exif"
	SourceIPTC       Source = "iptc"
	SourceXMP        Source = "xmp"
	SourceXMPSidecar Source = "xmp-sidecar"
)

// Group is the unit of precedence between sources. A source wins or
// loses a whole group; fields within a group never mix sources.
type Group string

const (
	GroupCamera      Group = "camera"
	GroupExposure    Group = "exposure"
	GroupCapture     Group = "capture"
	GroupGPS         Group = "gps"
	GroupKeywords    Group = "keywords"
	GroupRating      Group = "rating"
	GroupDescription Group = "description"
	GroupLocation    Group = "location"
	GroupRights      Group = "rights"
	GroupDimensions  Group = "dimensions"
)

// Groups in stable order, for deterministic provenance output.
var AllGroups = []Group{
	GroupCamera, GroupExposure, GroupCapture, GroupGPS, GroupKeywords,
	GroupRating, GroupDescription, GroupLocation, GroupRights,
	GroupDimensions,
}

// GPSPosition is a resolved coordinate in signed decimal degrees.
type GPSPosition struct {
	Latitude  float64
	Longitude float64
	Altitude  *float64 // metres, negative below sea level
}

// Record is the flattened, normalized metadata for one asset. Optional
// numerics are pointers so absent stays distinct from zero.
type Record struct {
	// Identity and file facts, filled by the extractor, never merged.
	Path        string
	Format      string
	Checksum    string
	FileSize    int64
	FileModTime time.Time

	CameraMake   string
	CameraModel  string
	LensModel    string
	SerialNumber string
	Software     string

	Shutter         string
	Aperture        *float64
	ISO             *int
	ExposureBias    *float64
	ExposureProgram string
	MeteringMode    string
	Flash           string
	WhiteBalance    string
	FocalLength     *float64
	FocalLength35   *int

	CaptureTime   *time.Time
	TimezoneNaive bool

	GPS *GPSPosition

	Keywords []string
	Rating   *int
	Label    string

	Title       string
	Description string
	Headline    string

	City          string
	Sublocation   string
	ProvinceState string
	Country       string

	Artist    string
	Copyright string

	Width  *int
	Height *int

	// Extras carries unmapped tags as namespace-qualified strings when
	// the extractor is configured to keep them.
	Extras map[string]string

	// Provenance records which source won each populated group.
	Provenance map[Group]Source
}

// Fragment is one source's contribution: a sparse record plus the source
// it came from. Only groups the fragment actually populates take part in
// the merge.
type Fragment struct {
	Source Source
	Record Record
}

// HasGroup reports whether the fragment populates any field of g.
func (f *Fragment) HasGroup(g Group) bool {
	r := &f.Record
	switch g {
	case GroupCamera:
		return r.CameraMake != "" || r.CameraModel != "" || r.LensModel != "" ||
			r.SerialNumber != "" || r.Software != ""
	case GroupExposure:
		return r.Shutter != "" || r.Aperture != nil || r.ISO != nil ||
			r.ExposureBias != nil || r.ExposureProgram != "" || r.MeteringMode != "" ||
			r.Flash != "" || r.WhiteBalance != "" || r.FocalLength != nil ||
			r.FocalLength35 != nil
	case GroupCapture:
		return r.CaptureTime != nil
	case GroupGPS:
		return r.GPS != nil
	case GroupKeywords:
		return len(r.Keywords) > 0
	case GroupRating:
		return r.Rating != nil || r.Label != ""
	case GroupDescription:
		return r.Title != "" || r.Description != "" || r.Headline != ""
	case GroupLocation:
		return r.City != "" || r.Sublocation != "" || r.ProvinceState != "" ||
			r.Country != ""
	case GroupRights:
		return r.Artist != "" || r.Copyright != ""
	case GroupDimensions:
		return r.Width != nil || r.Height != nil
	}
	return false
}

// copyGroup moves every field of g from src into dst.
func copyGroup(dst, src *Record, g Group) {
	switch g {
	case GroupCamera:
		dst.CameraMake = src.CameraMake
		dst.CameraModel = src.CameraModel
		dst.LensModel = src.LensModel
		dst.SerialNumber = src.SerialNumber
		dst.Software = src.Software
	case GroupExposure:
		dst.Shutter = src.Shutter
		dst.Aperture = src.Aperture
		dst.ISO = src.ISO
		dst.ExposureBias = src.ExposureBias
		dst.ExposureProgram = src.ExposureProgram
		dst.MeteringMode = src.MeteringMode
		dst.Flash = src.Flash
		dst.WhiteBalance = src.WhiteBalance
		dst.FocalLength = src.FocalLength
		dst.FocalLength35 = src.FocalLength35
	case GroupCapture:
		dst.CaptureTime = src.CaptureTime
		dst.TimezoneNaive = src.TimezoneNaive
	case GroupGPS:
		dst.GPS = src.GPS
	case GroupKeywords:
		dst.Keywords = append([]string(nil), src.Keywords...)
	case GroupRating:
		dst.Rating = src.Rating
		dst.Label = src.Label
	case GroupDescription:
		dst.Title = src.Title
		dst.Description = src.Description
		dst.Headline = src.Headline
	case GroupLocation:
		dst.City = src.City
		dst.Sublocation = src.Sublocation
		dst.ProvinceState = src.ProvinceState
		dst.Country = src.Country
	case GroupRights:
		dst.Artist = src.Artist
		dst.Copyright = src.Copyright
	case GroupDimensions:
		dst.Width = src.Width
		dst.Height = src.Height
	}
}

// FileInfo is the extractor-supplied identity block of a record.
type FileInfo struct {
	Path     string
	Format   string
	Checksum string
	Size     int64
	ModTime  time.Time
}

// Assemble merges fragments in precedence order, highest first: for each
// group the first fragment populating it wins outright. Extras maps
// union, earlier fragments winning key collisions. The result must carry
// a capture timestamp or a checksum; otherwise assembly fails with
// ErrIncomplete.
func Assemble(info FileInfo, fragments []Fragment) (*Record, error) {
	out := &Record{
		Path:        info.Path,
		Format:      info.Format,
		Checksum:    info.Checksum,
		FileSize:    info.Size,
		FileModTime: info.ModTime,
		Provenance:  make(map[Group]Source),
	}

	for _, g := range AllGroups {
		for i := range fragments {
			f := &fragments[i]
			if !f.HasGroup(g) {
				continue
			}
			copyGroup(out, &f.Record, g)
			out.Provenance[g] = f.Source
			break
		}
	}

	for i := range fragments {
		for k, v := range fragments[i].Record.Extras {
			if out.Extras == nil {
				out.Extras = make(map[string]string)
			}
			if _, dup := out.Extras[k]; !dup {
				out.Extras[k] = v
			}
		}
	}

	if out.CaptureTime == nil && out.Checksum == "" {
		return nil, fmt.Errorf("%w: %s has neither capture time nor checksum", ErrIncomplete, info.Path)
	}
	return out, nil
}
