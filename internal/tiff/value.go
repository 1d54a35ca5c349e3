package tiff

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// FieldType is a TIFF 6.0 field type code.
type FieldType uint16

const (
	TypeByte      FieldType = 1
	TypeASCII     FieldType = 2
	TypeShort     FieldType = 3
	TypeLong      FieldType = 4
	TypeRational  FieldType = 5
	TypeSByte     FieldType = 6
	TypeUndefined FieldType = 7
	TypeSShort    FieldType = 8
	TypeSLong     FieldType = 9
	TypeSRational FieldType = 10
)

var typeSizes = map[FieldType]uint32{
	TypeByte:      1,
	TypeASCII:     1,
	TypeShort:     2,
	TypeLong:      4,
	TypeRational:  8,
	TypeSByte:     1,
	TypeUndefined: 1,
	TypeSShort:    2,
	TypeSLong:     4,
	TypeSRational: 8,
}

// Size returns the per-component byte size, or 0 for unknown types.
func (t FieldType) Size() uint32 {
	return typeSizes[t]
}

func (t FieldType) String() string {
	switch t {
	case TypeByte:
		return "byte"
	case TypeASCII:
		return "ascii"
	case TypeShort:
		return "short"
	case TypeLong:
		return "long"
	case TypeRational:
		return "rational"
	case TypeSByte:
		return "sbyte"
	case TypeUndefined:
		return "undefined"
	case TypeSShort:
		return "sshort"
	case TypeSLong:
		return "slong"
	case TypeSRational:
		return "srational"
	}
	return fmt.Sprintf("type(%d)", uint16(t))
}

// ErrValueType is returned when a value is read with an accessor that does
// not match its declared field type.
var ErrValueType = errors.New("value type mismatch")

// Rational is an unsigned TIFF rational.
type Rational struct {
	Num uint32
	Den uint32
}

// SRational is a signed TIFF rational.
type SRational struct {
	Num int32
	Den int32
}

// RawValue is an undecoded tag value exactly as stored in the container.
// It carries the declared type, the component count, and the raw bytes in
// the container's byte order.
type RawValue struct {
	Type  FieldType
	Count uint32
	Data  []byte

	order binary.ByteOrder
}

// NewRawValue constructs a RawValue with an explicit byte order. Intended
// for tests and for synthesizing values outside a parsed container.
func NewRawValue(t FieldType, count uint32, data []byte, order binary.ByteOrder) RawValue {
	return RawValue{Type: t, Count: count, Data: data, order: order}
}

// ASCII decodes the value as a NUL-terminated string, trimming the
// terminator and surrounding whitespace.
func (v RawValue) ASCII() (string, error) {
	if v.Type != TypeASCII && v.Type != TypeUndefined {
		return "", fmt.Errorf("%w: want ascii, have %s", ErrValueType, v.Type)
	}
	s := strings.TrimRight(string(v.Data), "\x00")
	return strings.TrimSpace(s), nil
}

// Uint decodes component i as an unsigned integer. Valid for byte, short
// and long values.
func (v RawValue) Uint(i int) (uint32, error) {
	if uint32(i) >= v.Count {
		return 0, fmt.Errorf("component %d out of range (count %d)", i, v.Count)
	}
	switch v.Type {
	case TypeByte:
		return uint32(v.Data[i]), nil
	case TypeShort:
		return uint32(v.order.Uint16(v.Data[i*2:])), nil
	case TypeLong:
		return v.order.Uint32(v.Data[i*4:]), nil
	}
	return 0, fmt.Errorf("%w: want integer, have %s", ErrValueType, v.Type)
}

// Rational decodes component i as an unsigned rational.
func (v RawValue) Rational(i int) (Rational, error) {
	if v.Type != TypeRational {
		return Rational{}, fmt.Errorf("%w: want rational, have %s", ErrValueType, v.Type)
	}
	if uint32(i) >= v.Count {
		return Rational{}, fmt.Errorf("component %d out of range (count %d)", i, v.Count)
	}
	off := i * 8
	return Rational{
		Num: v.order.Uint32(v.Data[off:]),
		Den: v.order.Uint32(v.Data[off+4:]),
	}, nil
}

// SRational decodes component i as a signed rational.
func (v RawValue) SRational(i int) (SRational, error) {
	if v.Type != TypeSRational {
		return SRational{}, fmt.Errorf("%w: want srational, have %s", ErrValueType, v.Type)
	}
	if uint32(i) >= v.Count {
		return SRational{}, fmt.Errorf("component %d out of range (count %d)", i, v.Count)
	}
	off := i * 8
	return SRational{
		Num: int32(v.order.Uint32(v.Data[off:])),
		Den: int32(v.order.Uint32(v.Data[off+4:])),
	}, nil
}

// Float decodes component i as a float64, accepting integer, rational and
// signed-rational types. A zero denominator is an error: the value exists
// but cannot be interpreted.
func (v RawValue) Float(i int) (float64, error) {
	switch v.Type {
	case TypeByte, TypeShort, TypeLong:
		u, err := v.Uint(i)
		if err != nil {
			return 0, err
		}
		return float64(u), nil
	case TypeSShort:
		if uint32(i) >= v.Count {
			return 0, fmt.Errorf("component %d out of range (count %d)", i, v.Count)
		}
		return float64(int16(v.order.Uint16(v.Data[i*2:]))), nil
	case TypeSLong:
		if uint32(i) >= v.Count {
			return 0, fmt.Errorf("component %d out of range (count %d)", i, v.Count)
		}
		return float64(int32(v.order.Uint32(v.Data[i*4:]))), nil
	case TypeRational:
		r, err := v.Rational(i)
		if err != nil {
			return 0, err
		}
		if r.Den == 0 {
			return 0, fmt.Errorf("rational with zero denominator")
		}
		return float64(r.Num) / float64(r.Den), nil
	case TypeSRational:
		r, err := v.SRational(i)
		if err != nil {
			return 0, err
		}
		if r.Den == 0 {
			return 0, fmt.Errorf("rational with zero denominator")
		}
		return float64(r.Num) / float64(r.Den), nil
	}
	return 0, fmt.Errorf("%w: want numeric, have %s", ErrValueType, v.Type)
}
