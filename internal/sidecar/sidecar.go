// Package sidecar locates XMP sidecar files next to an asset and decides
// whether the sidecar or the embedded metadata takes precedence.
package sidecar

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"photocat/internal/record"
)

// Info describes a located sidecar file.
type Info struct {
	Path    string
	ModTime time.Time
	Size    int64
}

// Candidates returns the sidecar paths probed for an asset, in order:
// the extension-replaced form ("img.xmp") first, then the appended form
// ("img.dng.xmp"). Editors disagree on the convention; both exist in
// real staging directories.
func Candidates(assetPath string) []string {
	ext := filepath.Ext(assetPath)
	replaced := strings.TrimSuffix(assetPath, ext) + ".xmp"
	appended := assetPath + ".xmp"
	if replaced == appended {
		return []string{appended}
	}
	return []string{replaced, appended}
}

// Locate stats the candidate paths and returns the first sidecar that
// exists. A missing sidecar is not an error.
func Locate(assetPath string) (*Info, error) {
	for _, p := range Candidates(assetPath) {
		st, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		if st.IsDir() {
			continue
		}
		return &Info{Path: p, ModTime: st.ModTime(), Size: st.Size()}, nil
	}
	return nil, nil
}

// Wins reports whether the sidecar takes precedence over embedded
// metadata: only when its modification time is strictly newer than the
// asset's. A tie keeps the embedded values, the conservative reading
// when clocks are coarse or copies preserved timestamps.
func Wins(assetModTime, sidecarModTime time.Time) bool {
	return sidecarModTime.After(assetModTime)
}

// Order arranges fragments for assembly. Embedded fragments arrive in
// their own precedence order; the sidecar fragment is placed ahead of
// them only when it wins on recency. A sidecar that is not strictly
// newer is stale (pre-edit) and takes no part in the merge at all, not
// even for groups no embedded source populated.
func Order(embedded []record.Fragment, sc *record.Fragment, assetModTime, sidecarModTime time.Time) []record.Fragment {
	if sc == nil || !Wins(assetModTime, sidecarModTime) {
		return embedded
	}
	out := make([]record.Fragment, 0, len(embedded)+1)
	out = append(out, *sc)
	return append(out, embedded...)
}
