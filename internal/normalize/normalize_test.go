package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutterSnapsToStandardScale(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0.01666, "1/60"},
		{1.0 / 60, "1/60"},
		{0.0005, "1/2000"},
		{0.000125, "1/8000"},
		{0.3, "1/3"}, // 0.3 sits within tolerance of the 1/3 stop
		{0.5, "1/2"},
		{1.0, "1s"},
		{2.0, "2s"},
		{2.5, "2.5s"},
		{30.0, "30s"},
		{1.31, "1.3s"},
	}
	for _, tc := range cases {
		got, err := Shutter(tc.in)
		require.NoError(t, err, "input %v", tc.in)
		assert.Equal(t, tc.want, got, "input %v", tc.in)
	}
}

func TestShutterOffScaleFallsBackToFraction(t *testing.T) {
	got, err := Shutter(1.0 / 90)
	require.NoError(t, err)
	assert.Equal(t, "1/90", got)

	got, err = Shutter(42.0)
	require.NoError(t, err)
	assert.Equal(t, "42s", got)
}

func TestShutterRejectsNonPositive(t *testing.T) {
	for _, in := range []float64{0, -1} {
		_, err := Shutter(in)
		require.ErrorIs(t, err, ErrUnnormalizable)
	}
}

func TestShutterRationalReducesByGCD(t *testing.T) {
	got, err := ShutterRational(10, 900)
	require.NoError(t, err)
	assert.Equal(t, "1/90", got)

	got, err = ShutterRational(1, 60)
	require.NoError(t, err)
	assert.Equal(t, "1/60", got)

	got, err = ShutterRational(2, 1)
	require.NoError(t, err)
	assert.Equal(t, "2s", got)

	_, err = ShutterRational(1, 0)
	require.ErrorIs(t, err, ErrUnnormalizable)
	_, err = ShutterRational(0, 10)
	require.ErrorIs(t, err, ErrUnnormalizable)
}

func TestGPSCoord(t *testing.T) {
	dec, err := GPSCoord(53, 32, 41.78, "N")
	require.NoError(t, err)
	assert.InDelta(t, 53.544939, dec, 1e-5)

	dec, err = GPSCoord(33, 52, 4.0, "S")
	require.NoError(t, err)
	assert.InDelta(t, -33.867778, dec, 1e-5)

	dec, err = GPSCoord(122, 25, 0, "W")
	require.NoError(t, err)
	assert.InDelta(t, -122.416667, dec, 1e-5)

	_, err = GPSCoord(53, 32, 41.78, "Q")
	require.ErrorIs(t, err, ErrUnnormalizable)

	_, err = GPSCoord(999, 0, 0, "N")
	require.ErrorIs(t, err, ErrUnnormalizable)
}

func TestXMPCoord(t *testing.T) {
	dec, err := XMPCoord("53,32.6964N")
	require.NoError(t, err)
	assert.InDelta(t, 53.54494, dec, 1e-5)

	dec, err = XMPCoord("9,59.8152E")
	require.NoError(t, err)
	assert.InDelta(t, 9.99692, dec, 1e-5)

	dec, err = XMPCoord("33,52,4.0S")
	require.NoError(t, err)
	assert.InDelta(t, -33.867778, dec, 1e-5)

	dec, err = XMPCoord("-71.25")
	require.NoError(t, err)
	assert.InDelta(t, -71.25, dec, 1e-9)

	for _, in := range []string{"", "abcN", "1,2,3,4N"} {
		_, err = XMPCoord(in)
		require.ErrorIs(t, err, ErrUnnormalizable, "input %q", in)
	}
}

func TestAltitude(t *testing.T) {
	assert.Equal(t, 8.2, Altitude(8.2, false))
	assert.Equal(t, -8.2, Altitude(8.2, true))
}

func TestAperture(t *testing.T) {
	got, err := Aperture(5.6568)
	require.NoError(t, err)
	assert.Equal(t, 5.7, got)

	got, err = Aperture(4.0)
	require.NoError(t, err)
	assert.Equal(t, 4.0, got)

	_, err = Aperture(0)
	require.ErrorIs(t, err, ErrUnnormalizable)
}

func TestISO(t *testing.T) {
	got, err := ISO(400)
	require.NoError(t, err)
	assert.Equal(t, 400, got)

	got, err = ISO(159.9)
	require.NoError(t, err)
	assert.Equal(t, 160, got)

	_, err = ISO(-100)
	require.ErrorIs(t, err, ErrUnnormalizable)
}

func TestFocalLength(t *testing.T) {
	got, err := FocalLength(70.0)
	require.NoError(t, err)
	assert.Equal(t, 70.0, got)

	got, err = FocalLength(23.99)
	require.NoError(t, err)
	assert.Equal(t, 24.0, got)

	_, err = FocalLength(0)
	require.ErrorIs(t, err, ErrUnnormalizable)
}

func TestTimestampLayouts(t *testing.T) {
	ts, zoned, err := Timestamp("2024:06:12 21:14:03")
	require.NoError(t, err)
	assert.False(t, zoned)
	assert.Equal(t, time.Date(2024, 6, 12, 21, 14, 3, 0, time.UTC), ts)

	ts, zoned, err = Timestamp("2024-06-12T21:14:03+02:00")
	require.NoError(t, err)
	assert.True(t, zoned)
	_, off := ts.Zone()
	assert.Equal(t, 2*3600, off)

	ts, zoned, err = Timestamp("2024-06-12T21:14:03")
	require.NoError(t, err)
	assert.False(t, zoned)
	assert.Equal(t, 21, ts.Hour())

	ts, _, err = Timestamp("20240612")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC), ts)

	_, _, err = Timestamp("")
	require.ErrorIs(t, err, ErrUnnormalizable)
	_, _, err = Timestamp("last tuesday")
	require.ErrorIs(t, err, ErrUnnormalizable)
}

func TestTimestampWithOffset(t *testing.T) {
	ts, zoned, err := TimestampWithOffset("2024:06:12 21:14:03", "+02:00")
	require.NoError(t, err)
	assert.True(t, zoned)
	_, off := ts.Zone()
	assert.Equal(t, 2*3600, off)
	assert.Equal(t, 21, ts.Hour(), "wall clock preserved")

	ts, zoned, err = TimestampWithOffset("2024:06:12 21:14:03", "-05:00")
	require.NoError(t, err)
	assert.True(t, zoned)
	_, off = ts.Zone()
	assert.Equal(t, -5*3600, off)

	// Bad or missing offsets degrade to a naive timestamp.
	_, zoned, err = TimestampWithOffset("2024:06:12 21:14:03", "")
	require.NoError(t, err)
	assert.False(t, zoned)
	_, zoned, err = TimestampWithOffset("2024:06:12 21:14:03", "junk")
	require.NoError(t, err)
	assert.False(t, zoned)
}

func TestEnumNames(t *testing.T) {
	name, err := ExposureProgram(3)
	require.NoError(t, err)
	assert.Equal(t, "Aperture priority", name)
	_, err = ExposureProgram(77)
	require.ErrorIs(t, err, ErrUnnormalizable)

	name, err = MeteringMode(5)
	require.NoError(t, err)
	assert.Equal(t, "Pattern", name)
	_, err = MeteringMode(200)
	require.ErrorIs(t, err, ErrUnnormalizable)

	name, err = WhiteBalance(0)
	require.NoError(t, err)
	assert.Equal(t, "Auto", name)
	_, err = WhiteBalance(9)
	require.ErrorIs(t, err, ErrUnnormalizable)

	assert.Equal(t, "Fired", Flash(0x09))
	assert.Equal(t, "Did not fire", Flash(0x10))
}

func TestExposureBias(t *testing.T) {
	assert.Equal(t, 0.3, ExposureBias(1.0/3))
	assert.Equal(t, -0.7, ExposureBias(-2.0/3))
	assert.Equal(t, 0.0, ExposureBias(0))
}
