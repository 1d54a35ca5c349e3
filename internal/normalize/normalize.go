// Package normalize converts raw metadata values into the canonical
// display and storage forms the catalog uses. Every function returns an
// error instead of guessing when a value cannot be interpreted; callers
// drop the single field and keep the record.
package normalize

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrUnnormalizable marks a raw value that exists but cannot be brought
// into canonical form. It is always scoped to one field.
var ErrUnnormalizable = errors.New("unnormalizable value")

// standardSpeeds is the photographic shutter scale. Raw exposure times
// are decimal approximations of one of these stops far more often than
// they are arbitrary fractions.
var standardSpeeds = []float64{
	1.0 / 8000, 1.0 / 6400, 1.0 / 5000, 1.0 / 4000, 1.0 / 3200,
	1.0 / 2500, 1.0 / 2000, 1.0 / 1600, 1.0 / 1250, 1.0 / 1000,
	1.0 / 800, 1.0 / 640, 1.0 / 500, 1.0 / 400, 1.0 / 320,
	1.0 / 250, 1.0 / 200, 1.0 / 160, 1.0 / 125, 1.0 / 100,
	1.0 / 80, 1.0 / 60, 1.0 / 50, 1.0 / 40, 1.0 / 30,
	1.0 / 25, 1.0 / 20, 1.0 / 15, 1.0 / 13, 1.0 / 10,
	1.0 / 8, 1.0 / 6, 1.0 / 5, 1.0 / 4, 0.3, 0.4, 0.5, 0.6, 0.8,
	1, 1.3, 1.6, 2, 2.5, 3, 4, 5, 6, 8, 10, 13, 15, 20, 25, 30,
}

// shutterTolerance is the relative distance within which a raw exposure
// time snaps to the nearest standard stop.
const shutterTolerance = 0.10

// Shutter renders an exposure time in seconds as the photographic form:
// "1/60" below one second, "2s" (or "2.5s") at one second and above.
// Values near a standard stop snap to it; anything else keeps its exact
// reduced fraction.
func Shutter(seconds float64) (string, error) {
	if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return "", fmt.Errorf("%w: exposure time %v", ErrUnnormalizable, seconds)
	}

	if best, ok := snapToStandard(seconds); ok {
		return formatSpeed(best), nil
	}
	if seconds >= 1 {
		return formatSpeed(seconds), nil
	}
	num, den := asFraction(seconds)
	return fmt.Sprintf("%d/%d", num, den), nil
}

// ShutterRational is Shutter for an exact EXIF rational. A fraction that
// misses the standard scale keeps its GCD-reduced form instead of being
// re-approximated from the quotient.
func ShutterRational(num, den uint32) (string, error) {
	if den == 0 || num == 0 {
		return "", fmt.Errorf("%w: exposure time %d/%d", ErrUnnormalizable, num, den)
	}
	seconds := float64(num) / float64(den)
	if best, ok := snapToStandard(seconds); ok {
		return formatSpeed(best), nil
	}
	if seconds >= 1 {
		return formatSpeed(seconds), nil
	}
	g := gcd(uint64(num), uint64(den))
	return fmt.Sprintf("%d/%d", uint64(num)/g, uint64(den)/g), nil
}

func snapToStandard(seconds float64) (float64, bool) {
	best := standardSpeeds[0]
	bestDiff := math.Inf(1)
	for _, s := range standardSpeeds {
		if d := math.Abs(seconds-s) / s; d < bestDiff {
			bestDiff = d
			best = s
		}
	}
	return best, bestDiff <= shutterTolerance
}

func formatSpeed(s float64) string {
	if s < 1 {
		return fmt.Sprintf("1/%d", int(math.Round(1/s)))
	}
	return strconv.FormatFloat(s, 'f', -1, 64) + "s"
}

// asFraction approximates a sub-second duration as 1-over-denominator
// first and falls back to a reduced fixed-point fraction.
func asFraction(seconds float64) (uint64, uint64) {
	inv := 1 / seconds
	if math.Abs(inv-math.Round(inv)) < 1e-6 {
		return 1, uint64(math.Round(inv))
	}
	num := uint64(math.Round(seconds * 1e6))
	den := uint64(1e6)
	g := gcd(num, den)
	return num / g, den / g
}

func gcd(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

// GPSCoord converts a degrees/minutes/seconds triple and hemisphere
// reference into signed decimal degrees. South and west are negative.
func GPSCoord(deg, min, sec float64, ref string) (float64, error) {
	dec := deg + min/60 + sec/3600
	switch strings.ToUpper(strings.TrimSpace(ref)) {
	case "N", "E", "":
	case "S", "W":
		dec = -dec
	default:
		return 0, fmt.Errorf("%w: gps reference %q", ErrUnnormalizable, ref)
	}
	if math.Abs(dec) > 180 {
		return 0, fmt.Errorf("%w: coordinate %v out of range", ErrUnnormalizable, dec)
	}
	return dec, nil
}

// XMPCoord parses the XMP coordinate form "53,32.6964N" (degrees,
// decimal minutes, trailing hemisphere) or "53,32,41.78N".
func XMPCoord(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty coordinate", ErrUnnormalizable)
	}
	ref := s[len(s)-1:]
	body := s
	switch strings.ToUpper(ref) {
	case "N", "S", "E", "W":
		body = s[:len(s)-1]
	default:
		ref = ""
	}

	parts := strings.Split(body, ",")
	var deg, min, sec float64
	var err error
	switch len(parts) {
	case 3:
		if sec, err = strconv.ParseFloat(strings.TrimSpace(parts[2]), 64); err != nil {
			return 0, fmt.Errorf("%w: coordinate %q", ErrUnnormalizable, s)
		}
		fallthrough
	case 2:
		if min, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64); err != nil {
			return 0, fmt.Errorf("%w: coordinate %q", ErrUnnormalizable, s)
		}
		if deg, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64); err != nil {
			return 0, fmt.Errorf("%w: coordinate %q", ErrUnnormalizable, s)
		}
	case 1:
		if deg, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64); err != nil {
			return 0, fmt.Errorf("%w: coordinate %q", ErrUnnormalizable, s)
		}
	default:
		return 0, fmt.Errorf("%w: coordinate %q", ErrUnnormalizable, s)
	}
	return GPSCoord(deg, min, sec, ref)
}

// Altitude applies the below-sea-level reference byte to a raw altitude
// in metres.
func Altitude(metres float64, belowSeaLevel bool) float64 {
	if belowSeaLevel {
		return -metres
	}
	return metres
}

// Aperture rounds an f-number to one decimal.
func Aperture(f float64) (float64, error) {
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: f-number %v", ErrUnnormalizable, f)
	}
	return math.Round(f*10) / 10, nil
}

// ISO coerces a sensitivity value to a positive integer.
func ISO(v float64) (int, error) {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: iso %v", ErrUnnormalizable, v)
	}
	return int(math.Round(v)), nil
}

// FocalLength rounds millimetres to one decimal.
func FocalLength(mm float64) (float64, error) {
	if mm <= 0 || math.IsNaN(mm) || math.IsInf(mm, 0) {
		return 0, fmt.Errorf("%w: focal length %v", ErrUnnormalizable, mm)
	}
	return math.Round(mm*10) / 10, nil
}

// timestampLayouts are tried in order against raw capture-time strings.
// The colon-separated date is EXIF's own form; the rest cover XMP and
// sidecar writers.
var timestampLayouts = []string{
	"2006:01:02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006:01:02",
	"2006-01-02",
	"20060102",
}

// Timestamp parses a raw capture-time string. zoned reports whether the
// source carried its own UTC offset; naive values are returned as-is in
// UTC and the caller records them as timezone-unaware.
func Timestamp(raw string) (t time.Time, zoned bool, err error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false, fmt.Errorf("%w: empty timestamp", ErrUnnormalizable)
	}
	for _, layout := range timestampLayouts {
		t, perr := time.Parse(layout, s)
		if perr != nil {
			continue
		}
		return t, layout == time.RFC3339, nil
	}
	return time.Time{}, false, fmt.Errorf("%w: timestamp %q", ErrUnnormalizable, raw)
}

// TimestampWithOffset parses a naive EXIF timestamp together with the
// OffsetTime tag value ("+02:00").
func TimestampWithOffset(raw, offset string) (time.Time, bool, error) {
	t, zoned, err := Timestamp(raw)
	if err != nil || zoned {
		return t, zoned, err
	}
	offset = strings.TrimSpace(offset)
	if offset == "" {
		return t, false, nil
	}
	loc, perr := parseUTCOffset(offset)
	if perr != nil {
		return t, false, nil
	}
	t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
	return t, true, nil
}

func parseUTCOffset(s string) (*time.Location, error) {
	if len(s) != 6 || (s[0] != '+' && s[0] != '-') || s[3] != ':' {
		return nil, fmt.Errorf("bad offset %q", s)
	}
	h, err := strconv.Atoi(s[1:3])
	if err != nil {
		return nil, err
	}
	m, err := strconv.Atoi(s[4:6])
	if err != nil {
		return nil, err
	}
	sec := h*3600 + m*60
	if s[0] == '-' {
		sec = -sec
	}
	return time.FixedZone("UTC"+s, sec), nil
}

// ExposureBias rounds an EV correction to one decimal, keeping sign.
func ExposureBias(ev float64) float64 {
	return math.Round(ev*10) / 10
}

var exposurePrograms = map[uint32]string{
	1: "Manual",
	2: "Program AE",
	3: "Aperture priority",
	4: "Shutter priority",
	5: "Creative",
	6: "Action",
	7: "Portrait",
	8: "Landscape",
}

var meteringModes = map[uint32]string{
	1: "Average",
	2: "Center-weighted average",
	3: "Spot",
	4: "Multi-spot",
	5: "Pattern",
	6: "Partial",
}

// ExposureProgram names an EXIF exposure-program code.
func ExposureProgram(code uint32) (string, error) {
	if name, ok := exposurePrograms[code]; ok {
		return name, nil
	}
	return "", fmt.Errorf("%w: exposure program %d", ErrUnnormalizable, code)
}

// MeteringMode names an EXIF metering-mode code.
func MeteringMode(code uint32) (string, error) {
	if name, ok := meteringModes[code]; ok {
		return name, nil
	}
	return "", fmt.Errorf("%w: metering mode %d", ErrUnnormalizable, code)
}

// WhiteBalance names an EXIF white-balance code.
func WhiteBalance(code uint32) (string, error) {
	switch code {
	case 0:
		return "Auto", nil
	case 1:
		return "Manual", nil
	}
	return "", fmt.Errorf("%w: white balance %d", ErrUnnormalizable, code)
}

// Flash reduces the EXIF flash bit field to fired / did-not-fire.
func Flash(code uint32) string {
	if code&0x1 != 0 {
		return "Fired"
	}
	return "Did not fire"
}
