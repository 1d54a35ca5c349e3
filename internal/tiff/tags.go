package tiff

import "fmt"

// Tags the extraction layer reads by number. Grouped by the directory
// kind they are defined in; GPS tag numbers overlap IFD0's space.
const (
	// IFD0 / sub-image directories.
	TagImageWidth  = 0x0100
	TagImageLength = 0x0101
	TagMake        = 0x010F
	TagModel       = 0x0110
	TagOrientation = 0x0112
	TagSoftware    = 0x0131
	TagDateTime    = 0x0132
	TagArtist      = 0x013B
	TagCopyright   = 0x8298
	TagRating      = 0x4746

	// Exif directory.
	TagExposureTime       = 0x829A
	TagFNumber            = 0x829D
	TagExposureProgram    = 0x8822
	TagISOSpeed           = 0x8827
	TagDateTimeOriginal   = 0x9003
	TagDateTimeDigitized  = 0x9004
	TagOffsetTime         = 0x9010
	TagOffsetTimeOriginal = 0x9011
	TagShutterSpeedValue  = 0x9201
	TagApertureValue      = 0x9202
	TagExposureBias       = 0x9204
	TagMeteringMode       = 0x9207
	TagFlash              = 0x9209
	TagFocalLength        = 0x920A
	TagMakerNote          = 0x927C
	TagUserComment        = 0x9286
	TagPixelXDimension    = 0xA002
	TagPixelYDimension    = 0xA003
	TagWhiteBalance       = 0xA403
	TagFocalLength35mm    = 0xA405
	TagBodySerialNumber   = 0xA431
	TagLensModel          = 0xA434

	// GPS directory.
	TagGPSLatitudeRef  = 0x0001
	TagGPSLatitude     = 0x0002
	TagGPSLongitudeRef = 0x0003
	TagGPSLongitude    = 0x0004
	TagGPSAltitudeRef  = 0x0005
	TagGPSAltitude     = 0x0006
	TagGPSTimeStamp    = 0x0007
	TagGPSDateStamp    = 0x001D
)

var ifdTagNames = map[uint16]string{
	TagImageWidth:         "ImageWidth",
	TagImageLength:        "ImageLength",
	TagMake:               "Make",
	TagModel:              "Model",
	TagOrientation:        "Orientation",
	TagSoftware:           "Software",
	TagDateTime:           "DateTime",
	TagArtist:             "Artist",
	TagCopyright:          "Copyright",
	TagRating:             "Rating",
	TagExposureTime:       "ExposureTime",
	TagFNumber:            "FNumber",
	TagExposureProgram:    "ExposureProgram",
	TagISOSpeed:           "ISOSpeedRatings",
	TagDateTimeOriginal:   "DateTimeOriginal",
	TagDateTimeDigitized:  "DateTimeDigitized",
	TagOffsetTime:         "OffsetTime",
	TagOffsetTimeOriginal: "OffsetTimeOriginal",
	TagShutterSpeedValue:  "ShutterSpeedValue",
	TagApertureValue:      "ApertureValue",
	TagExposureBias:       "ExposureBiasValue",
	TagMeteringMode:       "MeteringMode",
	TagFlash:              "Flash",
	TagFocalLength:        "FocalLength",
	TagMakerNote:          "MakerNote",
	TagUserComment:        "UserComment",
	TagPixelXDimension:    "PixelXDimension",
	TagPixelYDimension:    "PixelYDimension",
	TagWhiteBalance:       "WhiteBalance",
	TagFocalLength35mm:    "FocalLengthIn35mmFilm",
	TagBodySerialNumber:   "BodySerialNumber",
	TagLensModel:          "LensModel",
}

var gpsTagNames = map[uint16]string{
	TagGPSLatitudeRef:  "GPSLatitudeRef",
	TagGPSLatitude:     "GPSLatitude",
	TagGPSLongitudeRef: "GPSLongitudeRef",
	TagGPSLongitude:    "GPSLongitude",
	TagGPSAltitudeRef:  "GPSAltitudeRef",
	TagGPSAltitude:     "GPSAltitude",
	TagGPSTimeStamp:    "GPSTimeStamp",
	TagGPSDateStamp:    "GPSDateStamp",
}

// TagName resolves a tag number to its EXIF name within a directory
// kind, falling back to the hex form for tags outside the table.
func TagName(kind DirKind, tag uint16) string {
	var name string
	if kind == KindGPS {
		name = gpsTagNames[tag]
	} else {
		name = ifdTagNames[tag]
	}
	if name == "" {
		return fmt.Sprintf("0x%04x", tag)
	}
	return name
}
