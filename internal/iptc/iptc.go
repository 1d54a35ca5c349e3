// Package iptc decodes IPTC-IIM datasets out of the JPEG APP13 Photoshop
// resource block. Only record 2 (application datasets) carries editorial
// fields; everything else is skipped.
package iptc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrMalformed marks a structurally damaged resource block.
var ErrMalformed = errors.New("malformed iptc block")

// resourceIPTC is the Photoshop image-resource ID holding IIM data.
const resourceIPTC = 0x0404

var irbSignature = []byte("8BIM")

// Dataset is a single IIM dataset: record number, dataset number and the
// raw payload bytes.
type Dataset struct {
	Record byte
	Tag    byte
	Data   []byte
}

// Record 2 dataset numbers used by the cataloger.
const (
	tagObjectName    = 5
	tagKeywords      = 25
	tagDateCreated   = 55
	tagByLine        = 80
	tagCity          = 90
	tagSublocation   = 92
	tagProvinceState = 95
	tagCountryName   = 101
	tagHeadline      = 105
	tagCopyright     = 116
	tagCaption       = 120
)

// Parse walks the Photoshop resource blocks in data (the APP13 payload
// after the "Photoshop 3.0\x00" header) and returns the IIM datasets of
// every IPTC resource found.
func Parse(data []byte) ([]Dataset, error) {
	var out []Dataset
	pos := 0
	for pos+12 <= len(data) {
		if !bytes.Equal(data[pos:pos+4], irbSignature) {
			return nil, fmt.Errorf("%w: bad resource signature at %d", ErrMalformed, pos)
		}
		id := binary.BigEndian.Uint16(data[pos+4 : pos+6])
		pos += 6

		// Pascal name, padded to an even byte count.
		if pos >= len(data) {
			return nil, fmt.Errorf("%w: truncated resource name", ErrMalformed)
		}
		nameLen := int(data[pos])
		nameSpan := 1 + nameLen
		if nameSpan%2 != 0 {
			nameSpan++
		}
		pos += nameSpan
		if pos+4 > len(data) {
			return nil, fmt.Errorf("%w: truncated resource size", ErrMalformed)
		}

		size := int(binary.BigEndian.Uint32(data[pos : pos+4]))
		pos += 4
		if pos+size > len(data) {
			return nil, fmt.Errorf("%w: resource %#04x overruns block", ErrMalformed, id)
		}

		if id == resourceIPTC {
			ds, err := parseDatasets(data[pos : pos+size])
			if err != nil {
				return nil, err
			}
			out = append(out, ds...)
		}

		pos += size
		if size%2 != 0 {
			pos++
		}
	}
	return out, nil
}

// parseDatasets decodes the IIM dataset stream. Extended-length datasets
// (high bit of the length set) carry the length of the real length field
// in the low 15 bits.
func parseDatasets(data []byte) ([]Dataset, error) {
	var out []Dataset
	pos := 0
	for pos+5 <= len(data) {
		if data[pos] != 0x1C {
			return nil, fmt.Errorf("%w: dataset marker %#02x at %d", ErrMalformed, data[pos], pos)
		}
		record := data[pos+1]
		tag := data[pos+2]
		length := int(binary.BigEndian.Uint16(data[pos+3 : pos+5]))
		pos += 5

		if length&0x8000 != 0 {
			lenOfLen := length & 0x7FFF
			if lenOfLen > 4 || pos+lenOfLen > len(data) {
				return nil, fmt.Errorf("%w: extended dataset length", ErrMalformed)
			}
			length = 0
			for _, b := range data[pos : pos+lenOfLen] {
				length = length<<8 | int(b)
			}
			pos += lenOfLen
		}

		if pos+length > len(data) {
			return nil, fmt.Errorf("%w: dataset (%d,%d) overruns block", ErrMalformed, record, tag)
		}
		out = append(out, Dataset{Record: record, Tag: tag, Data: data[pos : pos+length]})
		pos += length
	}
	return out, nil
}

// Record holds the record-2 editorial fields the cataloger consumes.
// Repeatable datasets (keywords) accumulate; single-value datasets keep
// the first occurrence.
type Record struct {
	ObjectName    string
	Keywords      []string
	DateCreated   string
	ByLine        string
	City          string
	Sublocation   string
	ProvinceState string
	CountryName   string
	Headline      string
	Copyright     string
	Caption       string
}

// Empty reports whether no field was populated.
func (r *Record) Empty() bool {
	return r.ObjectName == "" && len(r.Keywords) == 0 && r.DateCreated == "" &&
		r.ByLine == "" && r.City == "" && r.Sublocation == "" &&
		r.ProvinceState == "" && r.CountryName == "" && r.Headline == "" &&
		r.Copyright == "" && r.Caption == ""
}

// Decode parses the APP13 payload and maps record-2 datasets onto a
// Record.
func Decode(data []byte) (*Record, error) {
	datasets, err := Parse(data)
	if err != nil {
		return nil, err
	}

	rec := &Record{}
	set := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	for _, ds := range datasets {
		if ds.Record != 2 {
			continue
		}
		v := string(ds.Data)
		switch ds.Tag {
		case tagObjectName:
			set(&rec.ObjectName, v)
		case tagKeywords:
			if v != "" {
				rec.Keywords = append(rec.Keywords, v)
			}
		case tagDateCreated:
			set(&rec.DateCreated, v)
		case tagByLine:
			set(&rec.ByLine, v)
		case tagCity:
			set(&rec.City, v)
		case tagSublocation:
			set(&rec.Sublocation, v)
		case tagProvinceState:
			set(&rec.ProvinceState, v)
		case tagCountryName:
			set(&rec.CountryName, v)
		case tagHeadline:
			set(&rec.Headline, v)
		case tagCopyright:
			set(&rec.Copyright, v)
		case tagCaption:
			set(&rec.Caption, v)
		}
	}
	return rec, nil
}
