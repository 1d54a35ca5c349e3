package extract

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"photocat/internal/normalize"
	"photocat/internal/record"
	"photocat/internal/tiff"
)

// exifFragment maps a walked IFD tree onto a record fragment. Values
// that fail normalization are dropped one at a time and logged; they
// never fail the asset from here.
func exifFragment(root *tiff.Dir, keepUnknown bool, log *slog.Logger) record.Fragment {
	frag := record.Fragment{Source: record.SourceEXIF}
	r := &frag.Record
	consumed := map[*tiff.Dir]map[uint16]bool{}
	mark := func(d *tiff.Dir, tag uint16) {
		if consumed[d] == nil {
			consumed[d] = map[uint16]bool{}
		}
		consumed[d][tag] = true
	}

	drop := func(tag string, err error) {
		log.Debug("dropping unnormalizable field", "tag", tag, "error", err)
	}

	takeASCII := func(d *tiff.Dir, tag uint16, dst *string) {
		v, ok := d.Find(tag)
		if !ok {
			return
		}
		mark(d, tag)
		s, err := v.ASCII()
		if err != nil {
			drop(tiff.TagName(d.Kind, tag), err)
			return
		}
		*dst = s
	}

	takeASCII(root, tiff.TagMake, &r.CameraMake)
	takeASCII(root, tiff.TagModel, &r.CameraModel)
	takeASCII(root, tiff.TagSoftware, &r.Software)
	takeASCII(root, tiff.TagArtist, &r.Artist)
	takeASCII(root, tiff.TagCopyright, &r.Copyright)

	if v, ok := root.Find(tiff.TagRating); ok {
		mark(root, tiff.TagRating)
		if u, err := v.Uint(0); err == nil {
			n := int(u)
			r.Rating = &n
		} else {
			drop("Rating", err)
		}
	}

	takeDim := func(d *tiff.Dir, tag uint16, dst **int) {
		v, ok := d.Find(tag)
		if !ok {
			return
		}
		mark(d, tag)
		if u, err := v.Uint(0); err == nil && u > 0 {
			n := int(u)
			*dst = &n
		} else if err != nil {
			drop(tiff.TagName(d.Kind, tag), err)
		}
	}
	takeDim(root, tiff.TagImageWidth, &r.Width)
	takeDim(root, tiff.TagImageLength, &r.Height)

	var rawTime, rawOffset string
	takeASCII(root, tiff.TagDateTime, &rawTime)

	if exifDir, ok := root.Child(tiff.KindExif); ok {
		takeASCII(exifDir, tiff.TagLensModel, &r.LensModel)
		takeASCII(exifDir, tiff.TagBodySerialNumber, &r.SerialNumber)

		if v, ok := exifDir.Find(tiff.TagExposureTime); ok {
			mark(exifDir, tiff.TagExposureTime)
			shutter, err := shutterFromValue(v)
			if err != nil {
				drop("ExposureTime", err)
			} else {
				r.Shutter = shutter
			}
		}

		takeFloat := func(tag uint16, f func(float64) (float64, error), dst **float64) {
			v, ok := exifDir.Find(tag)
			if !ok {
				return
			}
			mark(exifDir, tag)
			raw, err := v.Float(0)
			if err != nil {
				drop(tiff.TagName(tiff.KindExif, tag), err)
				return
			}
			norm, err := f(raw)
			if err != nil {
				drop(tiff.TagName(tiff.KindExif, tag), err)
				return
			}
			*dst = &norm
		}
		takeFloat(tiff.TagFNumber, normalize.Aperture, &r.Aperture)
		takeFloat(tiff.TagFocalLength, normalize.FocalLength, &r.FocalLength)

		if v, ok := exifDir.Find(tiff.TagISOSpeed); ok {
			mark(exifDir, tiff.TagISOSpeed)
			if raw, err := v.Float(0); err != nil {
				drop("ISOSpeedRatings", err)
			} else if iso, err := normalize.ISO(raw); err != nil {
				drop("ISOSpeedRatings", err)
			} else {
				r.ISO = &iso
			}
		}

		if v, ok := exifDir.Find(tiff.TagFocalLength35mm); ok {
			mark(exifDir, tiff.TagFocalLength35mm)
			if u, err := v.Uint(0); err == nil && u > 0 {
				n := int(u)
				r.FocalLength35 = &n
			} else if err != nil {
				drop("FocalLengthIn35mmFilm", err)
			}
		}

		if v, ok := exifDir.Find(tiff.TagExposureBias); ok {
			mark(exifDir, tiff.TagExposureBias)
			if raw, err := v.Float(0); err != nil {
				drop("ExposureBiasValue", err)
			} else {
				ev := normalize.ExposureBias(raw)
				r.ExposureBias = &ev
			}
		}

		takeEnum := func(tag uint16, f func(uint32) (string, error), dst *string) {
			v, ok := exifDir.Find(tag)
			if !ok {
				return
			}
			mark(exifDir, tag)
			code, err := v.Uint(0)
			if err != nil {
				drop(tiff.TagName(tiff.KindExif, tag), err)
				return
			}
			name, err := f(code)
			if err != nil {
				drop(tiff.TagName(tiff.KindExif, tag), err)
				return
			}
			*dst = name
		}
		takeEnum(tiff.TagExposureProgram, normalize.ExposureProgram, &r.ExposureProgram)
		takeEnum(tiff.TagMeteringMode, normalize.MeteringMode, &r.MeteringMode)
		takeEnum(tiff.TagWhiteBalance, normalize.WhiteBalance, &r.WhiteBalance)

		if v, ok := exifDir.Find(tiff.TagFlash); ok {
			mark(exifDir, tiff.TagFlash)
			if code, err := v.Uint(0); err == nil {
				r.Flash = normalize.Flash(code)
			} else {
				drop("Flash", err)
			}
		}

		takeDim(exifDir, tiff.TagPixelXDimension, &r.Width)
		takeDim(exifDir, tiff.TagPixelYDimension, &r.Height)

		// DateTimeOriginal beats IFD0's file-save DateTime.
		var origTime, origOffset string
		takeASCII(exifDir, tiff.TagDateTimeOriginal, &origTime)
		takeASCII(exifDir, tiff.TagOffsetTimeOriginal, &origOffset)
		takeASCII(exifDir, tiff.TagOffsetTime, &rawOffset)
		if origTime != "" {
			rawTime, rawOffset = origTime, origOffset
		}

		if v, ok := exifDir.Find(tiff.TagMakerNote); ok {
			mark(exifDir, tiff.TagMakerNote)
			if keepUnknown {
				setExtra(r, "exif/MakerNote", fmt.Sprintf("(%d bytes)", len(v.Data)))
			}
		}
		// Digitized time and user comment stay in extras only.
		if v, ok := exifDir.Find(tiff.TagDateTimeDigitized); ok {
			mark(exifDir, tiff.TagDateTimeDigitized)
			if keepUnknown {
				if s, err := v.ASCII(); err == nil {
					setExtra(r, "exif/DateTimeDigitized", s)
				}
			}
		}
	}

	if rawTime != "" {
		t, zoned, err := normalize.TimestampWithOffset(rawTime, rawOffset)
		if err != nil {
			drop("DateTimeOriginal", err)
		} else {
			r.CaptureTime = &t
			r.TimezoneNaive = !zoned
		}
	}

	if gpsDir, ok := root.Child(tiff.KindGPS); ok {
		gpsFromDir(gpsDir, r, mark, drop)
	}

	if keepUnknown {
		root.WalkDirs(func(d *tiff.Dir) {
			for _, e := range d.Entries {
				if consumed[d][e.Tag] {
					continue
				}
				key := d.Kind.String() + "/" + tiff.TagName(d.Kind, e.Tag)
				setExtra(r, key, renderValue(e.Value))
			}
		})
	}

	return frag
}

func gpsFromDir(d *tiff.Dir, r *record.Record, mark func(*tiff.Dir, uint16), drop func(string, error)) {
	coord := func(valueTag, refTag uint16) (float64, bool) {
		v, ok := d.Find(valueTag)
		if !ok {
			return 0, false
		}
		mark(d, valueTag)
		ref := ""
		if rv, ok := d.Find(refTag); ok {
			mark(d, refTag)
			ref, _ = rv.ASCII()
		}
		if v.Count < 3 {
			drop(tiff.TagName(tiff.KindGPS, valueTag), fmt.Errorf("%d components", v.Count))
			return 0, false
		}
		var dms [3]float64
		for i := range dms {
			f, err := v.Float(i)
			if err != nil {
				drop(tiff.TagName(tiff.KindGPS, valueTag), err)
				return 0, false
			}
			dms[i] = f
		}
		dec, err := normalize.GPSCoord(dms[0], dms[1], dms[2], ref)
		if err != nil {
			drop(tiff.TagName(tiff.KindGPS, valueTag), err)
			return 0, false
		}
		return dec, true
	}

	lat, okLat := coord(tiff.TagGPSLatitude, tiff.TagGPSLatitudeRef)
	lon, okLon := coord(tiff.TagGPSLongitude, tiff.TagGPSLongitudeRef)
	if !okLat || !okLon {
		return
	}
	pos := &record.GPSPosition{Latitude: lat, Longitude: lon}

	if v, ok := d.Find(tiff.TagGPSAltitude); ok {
		mark(d, tiff.TagGPSAltitude)
		below := false
		if rv, ok := d.Find(tiff.TagGPSAltitudeRef); ok {
			mark(d, tiff.TagGPSAltitudeRef)
			if u, err := rv.Uint(0); err == nil {
				below = u == 1
			}
		}
		if raw, err := v.Float(0); err == nil {
			alt := normalize.Altitude(raw, below)
			pos.Altitude = &alt
		} else {
			drop("GPSAltitude", err)
		}
	}
	r.GPS = pos
}

// shutterFromValue prefers the exact rational; typed-wrong writers get
// the float path.
func shutterFromValue(v tiff.RawValue) (string, error) {
	if v.Type == tiff.TypeRational {
		rat, err := v.Rational(0)
		if err != nil {
			return "", err
		}
		return normalize.ShutterRational(rat.Num, rat.Den)
	}
	f, err := v.Float(0)
	if err != nil {
		return "", err
	}
	return normalize.Shutter(f)
}

func setExtra(r *record.Record, key, val string) {
	if val == "" {
		return
	}
	if r.Extras == nil {
		r.Extras = make(map[string]string)
	}
	if _, dup := r.Extras[key]; !dup {
		r.Extras[key] = val
	}
}

// renderValue flattens a raw tag value into a short display string for
// the extras bucket.
func renderValue(v tiff.RawValue) string {
	switch v.Type {
	case tiff.TypeASCII:
		s, err := v.ASCII()
		if err != nil {
			return ""
		}
		return s
	case tiff.TypeByte, tiff.TypeShort, tiff.TypeLong, tiff.TypeSShort, tiff.TypeSLong:
		n := int(v.Count)
		if n > 8 {
			n = 8
		}
		parts := make([]string, 0, n)
		for i := 0; i < n; i++ {
			f, err := v.Float(i)
			if err != nil {
				return ""
			}
			parts = append(parts, strconv.FormatFloat(f, 'f', -1, 64))
		}
		return strings.Join(parts, " ")
	case tiff.TypeRational:
		rat, err := v.Rational(0)
		if err != nil {
			return ""
		}
		return fmt.Sprintf("%d/%d", rat.Num, rat.Den)
	case tiff.TypeSRational:
		rat, err := v.SRational(0)
		if err != nil {
			return ""
		}
		return fmt.Sprintf("%d/%d", rat.Num, rat.Den)
	}
	return fmt.Sprintf("(%d bytes)", len(v.Data))
}
