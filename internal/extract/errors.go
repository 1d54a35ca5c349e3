package extract

import (
	"context"
	"errors"
	"fmt"

	"photocat/internal/detect"
	"photocat/internal/iptc"
	"photocat/internal/normalize"
	"photocat/internal/record"
	"photocat/internal/tiff"
)

// Kind classifies an extraction failure.
type Kind int

const (
	// KindUnsupportedFormat: the file content is neither JPEG nor a
	// TIFF container, whatever its extension claims.
	KindUnsupportedFormat Kind = iota
	// KindMalformedDirectory: structural damage in an embedded metadata
	// block (IFD cycle, out-of-bounds offset, truncated resource).
	KindMalformedDirectory
	// KindUnnormalizableValue: a raw value could not be brought into
	// canonical form. Field-scoped and recoverable; it surfaces as an
	// asset failure only if something re-raises it wholesale.
	KindUnnormalizableValue
	// KindIncompleteRecord: the assembled record has neither a capture
	// timestamp nor a checksum to key on.
	KindIncompleteRecord
	// KindTimeout: the per-asset deadline expired or the run was
	// cancelled mid-extraction.
	KindTimeout
	// KindIO: the file itself could not be read.
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindUnsupportedFormat:
		return "unsupported-format"
	case KindMalformedDirectory:
		return "malformed-directory"
	case KindUnnormalizableValue:
		return "unnormalizable-value"
	case KindIncompleteRecord:
		return "incomplete-record"
	case KindTimeout:
		return "timeout"
	case KindIO:
		return "io"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is an asset-scoped extraction failure.
type Error struct {
	Kind  Kind
	Asset string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("extract %s: %s: %v", e.Asset, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// wrap classifies err against the sentinel errors of the parsing layers
// and attaches the asset path.
func wrap(asset string, err error) *Error {
	return &Error{Kind: classify(err), Asset: asset, Err: err}
}

func classify(err error) Kind {
	switch {
	case errors.Is(err, detect.ErrUnsupported):
		return KindUnsupportedFormat
	case errors.Is(err, tiff.ErrMalformed), errors.Is(err, iptc.ErrMalformed):
		return KindMalformedDirectory
	case errors.Is(err, normalize.ErrUnnormalizable):
		return KindUnnormalizableValue
	case errors.Is(err, record.ErrIncomplete):
		return KindIncompleteRecord
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return KindTimeout
	}
	return KindIO
}
