package extract

import (
	"log/slog"
	"strconv"
	"strings"

	"photocat/internal/iptc"
	"photocat/internal/normalize"
	"photocat/internal/record"
	"photocat/internal/xmp"
)

// xmpFragment maps a parsed XMP packet onto a record fragment. source
// distinguishes the embedded packet from a sidecar file.
func xmpFragment(p *xmp.Packet, source record.Source, log *slog.Logger) record.Fragment {
	frag := record.Fragment{Source: source}
	r := &frag.Record

	r.Title = p.Title
	r.Description = p.Description
	r.Artist = p.Creator
	r.Copyright = p.Rights
	r.Keywords = append([]string(nil), p.Keywords...)
	r.Rating = p.Rating
	r.Label = p.Label
	r.LensModel = p.Lens
	r.City = p.City
	r.ProvinceState = p.State
	r.Country = p.Country
	r.Sublocation = p.Location

	if p.CreateDate != "" {
		t, zoned, err := normalize.Timestamp(p.CreateDate)
		if err != nil {
			log.Debug("dropping unnormalizable field", "tag", "xmp:CreateDate", "error", err)
		} else {
			r.CaptureTime = &t
			r.TimezoneNaive = !zoned
		}
	}

	if p.HasGPS() {
		lat, latErr := normalize.XMPCoord(p.Latitude)
		lon, lonErr := normalize.XMPCoord(p.Longitude)
		if latErr != nil || lonErr != nil {
			err := latErr
			if err == nil {
				err = lonErr
			}
			log.Debug("dropping unnormalizable field", "tag", "exif:GPSLatitude", "error", err)
		} else {
			pos := &record.GPSPosition{Latitude: lat, Longitude: lon}
			if alt, ok := parseXMPAltitude(p.Altitude); ok {
				below := strings.TrimSpace(p.AltitudeRef) == "1"
				a := normalize.Altitude(alt, below)
				pos.Altitude = &a
			}
			r.GPS = pos
		}
	}

	return frag
}

// parseXMPAltitude reads the rational form "82/10" XMP uses, accepting a
// plain decimal as well.
func parseXMPAltitude(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err1 := strconv.ParseFloat(num, 64)
		d, err2 := strconv.ParseFloat(den, 64)
		if err1 != nil || err2 != nil || d == 0 {
			return 0, false
		}
		return n / d, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// iptcFragment maps record-2 datasets onto a record fragment.
func iptcFragment(rec *iptc.Record, log *slog.Logger) record.Fragment {
	frag := record.Fragment{Source: record.SourceIPTC}
	r := &frag.Record

	r.Title = rec.ObjectName
	r.Description = rec.Caption
	r.Headline = rec.Headline
	r.Keywords = append([]string(nil), rec.Keywords...)
	r.Artist = rec.ByLine
	r.Copyright = rec.Copyright
	r.City = rec.City
	r.Sublocation = rec.Sublocation
	r.ProvinceState = rec.ProvinceState
	r.Country = rec.CountryName

	if rec.DateCreated != "" {
		t, zoned, err := normalize.Timestamp(rec.DateCreated)
		if err != nil {
			log.Debug("dropping unnormalizable field", "tag", "iptc:DateCreated", "error", err)
		} else {
			r.CaptureTime = &t
			r.TimezoneNaive = !zoned
		}
	}

	return frag
}
