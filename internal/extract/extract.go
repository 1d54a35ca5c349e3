// Package extract turns one staged asset into a normalized metadata
// record. It composes format detection, the IFD walk, the IPTC and XMP
// parsers, sidecar resolution and record assembly, and owns the failure
// taxonomy for the whole step.
package extract

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"os"

	"photocat/internal/detect"
	"photocat/internal/iptc"
	"photocat/internal/record"
	"photocat/internal/sidecar"
	"photocat/internal/tiff"
	"photocat/internal/xmp"
)

// Options tunes one extractor instance.
type Options struct {
	// MaxIFDDepth bounds nested-directory traversal; zero means the
	// walker default.
	MaxIFDDepth int
	// KeepUnknownTags retains unmapped tags in the record's extras
	// bucket.
	KeepUnknownTags bool
}

// Extractor produces records from asset files. It is stateless and safe
// for concurrent use.
type Extractor struct {
	opts Options
	log  *slog.Logger
}

// New builds an extractor. A nil logger falls back to slog.Default.
func New(opts Options, log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{opts: opts, log: log}
}

// Extract reads the asset at path and assembles its metadata record.
// Failures come back as *Error carrying the taxonomy kind; a damaged
// sidecar or embedded XMP packet degrades to the remaining sources
// instead of failing the asset.
func (e *Extractor) Extract(ctx context.Context, path string) (*record.Record, error) {
	log := e.log.With("asset", path)

	f, err := os.Open(path)
	if err != nil {
		return nil, wrap(path, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, wrap(path, err)
	}

	sum, err := checksum(f)
	if err != nil {
		return nil, wrap(path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, wrap(path, err)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, wrap(path, err)
	}
	layout, err := detect.Sniff(f, st.Size())
	if err != nil {
		return nil, wrap(path, err)
	}

	var embedded []record.Fragment

	if layout.Exif != nil {
		root, err := e.walkExif(f, st.Size(), layout)
		if err != nil {
			return nil, wrap(path, err)
		}
		embedded = append(embedded, exifFragment(root, e.opts.KeepUnknownTags, log))
	}
	if err := ctx.Err(); err != nil {
		return nil, wrap(path, err)
	}

	if layout.XMP != nil {
		blob, err := detect.ReadRegion(f, layout.XMP)
		if err != nil {
			return nil, wrap(path, err)
		}
		if p, perr := xmp.Parse(blob); perr != nil {
			log.Warn("skipping malformed embedded xmp packet", "error", perr)
		} else {
			embedded = append(embedded, xmpFragment(p, record.SourceXMP, log))
		}
	}

	if layout.IPTC != nil {
		blob, err := detect.ReadRegion(f, layout.IPTC)
		if err != nil {
			return nil, wrap(path, err)
		}
		rec, derr := iptc.Decode(blob)
		if derr != nil {
			return nil, wrap(path, derr)
		}
		if !rec.Empty() {
			embedded = append(embedded, iptcFragment(rec, log))
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, wrap(path, err)
	}

	scInfo, err := sidecar.Locate(path)
	if err != nil {
		return nil, wrap(path, err)
	}
	var scFrag *record.Fragment
	fragments := embedded
	if scInfo != nil {
		if p, perr := xmp.ParseFile(scInfo.Path); perr != nil {
			log.Warn("skipping unreadable sidecar", "sidecar", scInfo.Path, "error", perr)
		} else {
			fr := xmpFragment(p, record.SourceXMPSidecar, log)
			scFrag = &fr
		}
		fragments = sidecar.Order(embedded, scFrag, st.ModTime(), scInfo.ModTime)
	}

	rec, err := record.Assemble(record.FileInfo{
		Path:     path,
		Format:   layout.Format.String(),
		Checksum: sum,
		Size:     st.Size(),
		ModTime:  st.ModTime(),
	}, fragments)
	if err != nil {
		return nil, wrap(path, err)
	}
	return rec, nil
}

// walkExif parses the IFD tree either in place (TIFF/DNG containers) or
// from the extracted APP1 payload (JPEG).
func (e *Extractor) walkExif(f *os.File, size int64, layout *detect.Layout) (*tiff.Dir, error) {
	opts := tiff.Options{MaxDepth: e.opts.MaxIFDDepth}
	if layout.Format == detect.FormatTIFF {
		return tiff.Parse(f, size, opts)
	}
	blob, err := detect.ReadRegion(f, layout.Exif)
	if err != nil {
		return nil, err
	}
	return tiff.Parse(bytes.NewReader(blob), int64(len(blob)), opts)
}

func checksum(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
