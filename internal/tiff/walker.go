package tiff

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrMalformed marks structural damage in a TIFF container: bad header,
// out-of-bounds offsets, truncated entries, directory cycles, or nesting
// past the configured depth bound.
var ErrMalformed = errors.New("malformed directory")

// DirKind identifies the role of a directory within the IFD tree.
type DirKind int

const (
	KindPrimary DirKind = iota
	KindExif
	KindGPS
	KindInterop
	KindSubImage
	KindThumbnail
)

func (k DirKind) String() string {
	switch k {
	case KindPrimary:
		return "ifd0"
	case KindExif:
		return "exif"
	case KindGPS:
		return "gps"
	case KindInterop:
		return "interop"
	case KindSubImage:
		return "subifd"
	case KindThumbnail:
		return "ifd1"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Pointer tags whose LONG values are offsets of nested directories.
const (
	tagExifIFD  = 0x8769
	tagGPSIFD   = 0x8825
	tagInterop  = 0xA005
	tagSubIFDs  = 0x014A
)

// Entry is one decoded directory entry: the tag number and its raw value.
type Entry struct {
	Tag   uint16
	Value RawValue
}

// Dir is a single image file directory plus the directories reachable
// from it. Pointer-tag entries are consumed during the walk and surface
// as Children instead of Entries.
type Dir struct {
	Kind     DirKind
	Offset   uint32
	Entries  []Entry
	Children []*Dir
}

// Find returns the entry with the given tag in this directory only.
func (d *Dir) Find(tag uint16) (RawValue, bool) {
	for _, e := range d.Entries {
		if e.Tag == tag {
			return e.Value, true
		}
	}
	return RawValue{}, false
}

// Child returns the first child directory of the given kind.
func (d *Dir) Child(kind DirKind) (*Dir, bool) {
	for _, c := range d.Children {
		if c.Kind == kind {
			return c, true
		}
	}
	return nil, false
}

// WalkDirs visits d and every reachable directory depth-first.
func (d *Dir) WalkDirs(fn func(*Dir)) {
	fn(d)
	for _, c := range d.Children {
		c.WalkDirs(fn)
	}
}

// Options bounds the walk. The zero value gets sane defaults.
type Options struct {
	// MaxDepth is the deepest nesting level the walker will follow.
	// IFD0 is depth 0; the Exif IFD below it is depth 1.
	MaxDepth int
}

// DefaultMaxDepth covers every structure seen in practice: primary,
// sub-image chains, Exif, Interop is the deepest at three levels.
const DefaultMaxDepth = 6

// Walker decodes the IFD tree of a TIFF container. The container may be
// a bare TIFF/DNG file or the TIFF block embedded in a JPEG APP1 segment;
// all offsets are relative to the start of r.
type Walker struct {
	r        io.ReaderAt
	size     int64
	order    binary.ByteOrder
	maxDepth int
	visited  map[uint32]struct{}
}

// NewWalker validates the TIFF header of r and prepares a walker. It
// fails with ErrMalformed when the byte-order mark or the magic number
// is wrong, or when the first directory offset points outside r.
func NewWalker(r io.ReaderAt, size int64, opts Options) (*Walker, uint32, error) {
	var hdr [8]byte
	if _, err := r.ReadAt(hdr[:], 0); err != nil {
		return nil, 0, fmt.Errorf("%w: header: %v", ErrMalformed, err)
	}

	var order binary.ByteOrder
	switch {
	case hdr[0] == 'I' && hdr[1] == 'I':
		order = binary.LittleEndian
	case hdr[0] == 'M' && hdr[1] == 'M':
		order = binary.BigEndian
	default:
		return nil, 0, fmt.Errorf("%w: byte order mark %02x%02x", ErrMalformed, hdr[0], hdr[1])
	}

	if magic := order.Uint16(hdr[2:4]); magic != 42 {
		return nil, 0, fmt.Errorf("%w: magic %d", ErrMalformed, magic)
	}

	first := order.Uint32(hdr[4:8])
	if first < 8 || int64(first) >= size {
		return nil, 0, fmt.Errorf("%w: first directory offset %d", ErrMalformed, first)
	}

	depth := opts.MaxDepth
	if depth <= 0 {
		depth = DefaultMaxDepth
	}

	return &Walker{
		r:        r,
		size:     size,
		order:    order,
		maxDepth: depth,
		visited:  make(map[uint32]struct{}),
	}, first, nil
}

// Order reports the container byte order.
func (w *Walker) Order() binary.ByteOrder { return w.order }

// Walk decodes the full directory tree starting at offset. Each directory
// offset is visited at most once; a pointer back into an already visited
// directory fails the walk rather than looping.
func (w *Walker) Walk(offset uint32) (*Dir, error) {
	return w.walkDir(offset, KindPrimary, 0, true)
}

func (w *Walker) walkDir(offset uint32, kind DirKind, depth int, followNext bool) (*Dir, error) {
	if depth > w.maxDepth {
		return nil, fmt.Errorf("%w: directory nesting exceeds %d at offset %d", ErrMalformed, w.maxDepth, offset)
	}
	if _, seen := w.visited[offset]; seen {
		return nil, fmt.Errorf("%w: directory cycle at offset %d", ErrMalformed, offset)
	}
	w.visited[offset] = struct{}{}

	count, err := w.readU16(int64(offset))
	if err != nil {
		return nil, fmt.Errorf("%w: entry count at %d: %v", ErrMalformed, offset, err)
	}

	end := int64(offset) + 2 + int64(count)*12 + 4
	if end > w.size {
		return nil, fmt.Errorf("%w: directory at %d overruns container (%d entries)", ErrMalformed, offset, count)
	}

	dir := &Dir{Kind: kind, Offset: offset}

	for i := 0; i < int(count); i++ {
		entryOff := int64(offset) + 2 + int64(i)*12
		tag, typ, n, err := w.readEntryHeader(entryOff)
		if err != nil {
			return nil, err
		}

		switch tag {
		case tagExifIFD, tagGPSIFD, tagInterop, tagSubIFDs:
			kids, err := w.walkPointer(tag, typ, n, entryOff+8, depth)
			if err != nil {
				return nil, err
			}
			dir.Children = append(dir.Children, kids...)
			continue
		}

		val, err := w.readValue(typ, n, entryOff+8)
		if err != nil {
			return nil, fmt.Errorf("%w: tag 0x%04x: %v", ErrMalformed, tag, err)
		}
		dir.Entries = append(dir.Entries, Entry{Tag: tag, Value: val})
	}

	if followNext {
		next, err := w.readU32(end - 4)
		if err != nil {
			return nil, fmt.Errorf("%w: next-directory link at %d: %v", ErrMalformed, end-4, err)
		}
		if next != 0 {
			if int64(next) >= w.size {
				return nil, fmt.Errorf("%w: next-directory offset %d out of bounds", ErrMalformed, next)
			}
			thumb, err := w.walkDir(next, KindThumbnail, depth, false)
			if err != nil {
				return nil, err
			}
			dir.Children = append(dir.Children, thumb)
		}
	}

	return dir, nil
}

// walkPointer resolves a nested-directory pointer entry. SubIFDs may hold
// several offsets; the Exif, GPS and Interop pointers hold exactly one.
func (w *Walker) walkPointer(tag uint16, typ FieldType, count uint32, valueOff int64, depth int) ([]*Dir, error) {
	if typ != TypeLong && typ != TypeUndefined {
		return nil, fmt.Errorf("%w: pointer tag 0x%04x has type %s", ErrMalformed, tag, typ)
	}
	if typ == TypeUndefined {
		// UNDEFINED counts bytes, not components; each offset is four.
		if count%4 != 0 {
			return nil, fmt.Errorf("%w: pointer tag 0x%04x has undefined value of %d bytes", ErrMalformed, tag, count)
		}
		count /= 4
	}

	val, err := w.readValue(TypeLong, count, valueOff)
	if err != nil {
		return nil, fmt.Errorf("%w: pointer tag 0x%04x: %v", ErrMalformed, tag, err)
	}

	kind := KindSubImage
	switch tag {
	case tagExifIFD:
		kind = KindExif
	case tagGPSIFD:
		kind = KindGPS
	case tagInterop:
		kind = KindInterop
	}

	var kids []*Dir
	for i := 0; i < int(count); i++ {
		target, err := val.Uint(i)
		if err != nil {
			return nil, fmt.Errorf("%w: pointer tag 0x%04x: %v", ErrMalformed, tag, err)
		}
		if target == 0 {
			continue
		}
		if int64(target) >= w.size {
			return nil, fmt.Errorf("%w: pointer tag 0x%04x targets offset %d out of bounds", ErrMalformed, tag, target)
		}
		child, err := w.walkDir(target, kind, depth+1, false)
		if err != nil {
			return nil, err
		}
		kids = append(kids, child)
	}
	return kids, nil
}

func (w *Walker) readEntryHeader(off int64) (tag uint16, typ FieldType, count uint32, err error) {
	var buf [8]byte
	if _, err = w.r.ReadAt(buf[:], off); err != nil {
		return 0, 0, 0, fmt.Errorf("%w: entry at %d: %v", ErrMalformed, off, err)
	}
	tag = w.order.Uint16(buf[0:2])
	typ = FieldType(w.order.Uint16(buf[2:4]))
	count = w.order.Uint32(buf[4:8])
	return tag, typ, count, nil
}

// readValue materializes an entry value. Values up to four bytes live in
// the entry itself; larger values live at the offset stored there.
func (w *Walker) readValue(typ FieldType, count uint32, valueOff int64) (RawValue, error) {
	compSize := typ.Size()
	if compSize == 0 {
		// Unknown type: keep the inline four bytes opaque rather than
		// guessing at an offset.
		inline := make([]byte, 4)
		if _, err := w.r.ReadAt(inline, valueOff); err != nil {
			return RawValue{}, err
		}
		return RawValue{Type: typ, Count: count, Data: inline, order: w.order}, nil
	}

	total := uint64(compSize) * uint64(count)
	if total > uint64(w.size) {
		return RawValue{}, fmt.Errorf("value size %d exceeds container", total)
	}

	data := make([]byte, total)
	if total <= 4 {
		if _, err := w.r.ReadAt(data, valueOff); err != nil {
			return RawValue{}, err
		}
	} else {
		off, err := w.readU32(valueOff)
		if err != nil {
			return RawValue{}, err
		}
		if uint64(off)+total > uint64(w.size) {
			return RawValue{}, fmt.Errorf("value at %d..%d out of bounds", off, uint64(off)+total)
		}
		if _, err := w.r.ReadAt(data, int64(off)); err != nil {
			return RawValue{}, err
		}
	}

	return RawValue{Type: typ, Count: count, Data: data, order: w.order}, nil
}

func (w *Walker) readU16(off int64) (uint16, error) {
	var buf [2]byte
	if _, err := w.r.ReadAt(buf[:], off); err != nil {
		return 0, err
	}
	return w.order.Uint16(buf[:]), nil
}

func (w *Walker) readU32(off int64) (uint32, error) {
	var buf [4]byte
	if _, err := w.r.ReadAt(buf[:], off); err != nil {
		return 0, err
	}
	return w.order.Uint32(buf[:]), nil
}

// Parse is the one-shot form: header check plus full tree walk.
func Parse(r io.ReaderAt, size int64, opts Options) (*Dir, error) {
	w, first, err := NewWalker(r, size, opts)
	if err != nil {
		return nil, err
	}
	return w.Walk(first)
}
