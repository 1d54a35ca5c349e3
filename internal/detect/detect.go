// Package detect identifies the container format of a staged asset and
// locates the metadata-bearing regions inside it without reading the
// image payload.
package detect

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// ErrUnsupported marks files whose content signature is neither JPEG nor
// a TIFF container. Extension lies are caught here: detection trusts the
// leading bytes, not the file name.
var ErrUnsupported = errors.New("unsupported format")

// Format is the detected container family.
type Format int

const (
	FormatUnknown Format = iota
	FormatJPEG
	FormatTIFF // bare TIFF containers, DNG included
)

func (f Format) String() string {
	switch f {
	case FormatJPEG:
		return "jpeg"
	case FormatTIFF:
		return "tiff"
	}
	return "unknown"
}

// Region is a byte range within the asset file.
type Region struct {
	Offset int64
	Length int64
}

// Layout reports where each metadata block lives. Nil regions mean the
// block is absent. For TIFF containers Exif spans the whole file, since
// the IFD tree is the file's own structure.
type Layout struct {
	Format Format
	Exif   *Region // TIFF block (APP1 Exif payload, or the whole TIFF file)
	XMP    *Region // embedded XMP packet
	IPTC   *Region // APP13 Photoshop block
}

// JPEG markers and APP payload signatures.
const (
	markerSOI  = 0xD8
	markerEOI  = 0xD9
	markerSOS  = 0xDA
	markerAPP1 = 0xE1
	markerAPP13 = 0xED
)

var (
	exifHeader      = []byte("Exif\x00\x00")
	xmpHeader       = []byte("http://ns.adobe.com/xap/1.0/\x00")
	photoshopHeader = []byte("Photoshop 3.0\x00")
)

// Sniff reads the signature of r and, for JPEGs, scans the segment list
// for the APP1/APP13 metadata blocks. Only headers and segment prefixes
// are read; image data is seeked over, never loaded.
func Sniff(r io.ReadSeeker, size int64) (*Layout, error) {
	var sig [4]byte
	if _, err := io.ReadFull(r, sig[:2]); err != nil {
		return nil, fmt.Errorf("%w: short read: %v", ErrUnsupported, err)
	}

	switch {
	case sig[0] == 0xFF && sig[1] == markerSOI:
		return scanJPEG(r, size)
	case (sig[0] == 'I' && sig[1] == 'I') || (sig[0] == 'M' && sig[1] == 'M'):
		if _, err := io.ReadFull(r, sig[2:4]); err != nil {
			return nil, fmt.Errorf("%w: short read: %v", ErrUnsupported, err)
		}
		var magic uint16
		if sig[0] == 'I' {
			magic = uint16(sig[2]) | uint16(sig[3])<<8
		} else {
			magic = uint16(sig[2])<<8 | uint16(sig[3])
		}
		if magic != 42 {
			return nil, fmt.Errorf("%w: tiff magic %d", ErrUnsupported, magic)
		}
		return &Layout{
			Format: FormatTIFF,
			Exif:   &Region{Offset: 0, Length: size},
		}, nil
	}
	return nil, fmt.Errorf("%w: signature %02x%02x", ErrUnsupported, sig[0], sig[1])
}

// scanJPEG walks the marker list from just past SOI. Each APPn segment's
// payload prefix is inspected; everything else is skipped by length.
// Scanning stops at SOS: metadata segments precede the entropy-coded
// stream.
func scanJPEG(r io.ReadSeeker, size int64) (*Layout, error) {
	layout := &Layout{Format: FormatJPEG}
	pos := int64(2)

	for {
		var mk [2]byte
		if _, err := r.Seek(pos, io.SeekStart); err != nil {
			return layout, nil
		}
		if _, err := io.ReadFull(r, mk[:]); err != nil {
			return layout, nil
		}
		if mk[0] != 0xFF {
			return layout, nil
		}
		marker := mk[1]
		if marker == markerSOS || marker == markerEOI {
			return layout, nil
		}
		// Standalone markers carry no length field.
		if marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7) {
			pos += 2
			continue
		}

		var lb [2]byte
		if _, err := io.ReadFull(r, lb[:]); err != nil {
			return layout, nil
		}
		segLen := int64(lb[0])<<8 | int64(lb[1])
		if segLen < 2 {
			return layout, nil
		}
		payloadOff := pos + 4
		payloadLen := segLen - 2
		if payloadOff+payloadLen > size {
			return layout, nil
		}

		switch marker {
		case markerAPP1:
			head := make([]byte, min64(payloadLen, int64(len(xmpHeader))))
			if _, err := io.ReadFull(r, head); err != nil {
				return layout, nil
			}
			if layout.Exif == nil && bytes.HasPrefix(head, exifHeader) {
				layout.Exif = &Region{
					Offset: payloadOff + int64(len(exifHeader)),
					Length: payloadLen - int64(len(exifHeader)),
				}
			} else if layout.XMP == nil && bytes.HasPrefix(head, xmpHeader) {
				layout.XMP = &Region{
					Offset: payloadOff + int64(len(xmpHeader)),
					Length: payloadLen - int64(len(xmpHeader)),
				}
			}
		case markerAPP13:
			head := make([]byte, min64(payloadLen, int64(len(photoshopHeader))))
			if _, err := io.ReadFull(r, head); err != nil {
				return layout, nil
			}
			if layout.IPTC == nil && bytes.HasPrefix(head, photoshopHeader) {
				layout.IPTC = &Region{
					Offset: payloadOff + int64(len(photoshopHeader)),
					Length: payloadLen - int64(len(photoshopHeader)),
				}
			}
		}

		pos = payloadOff + payloadLen
	}
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// ReadRegion materializes a located region. Callers use it for the small
// APP payloads; TIFF containers are walked in place instead.
func ReadRegion(r io.ReaderAt, reg *Region) ([]byte, error) {
	buf := make([]byte, reg.Length)
	if _, err := r.ReadAt(buf, reg.Offset); err != nil {
		return nil, err
	}
	return buf, nil
}
