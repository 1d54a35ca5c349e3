// Package staging discovers extractable assets in the staging directory,
// pairs them with their sidecars, and decides which of them changed
// since the catalog last saw them.
package staging

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"photocat/internal/fsutil"
	"photocat/internal/sidecar"
)

// Asset is one staged file plus its paired sidecar, if any.
type Asset struct {
	Path    string
	Size    int64
	ModTime time.Time
	Sidecar *sidecar.Info
}

// EffectiveModTime is the later of the asset's and the sidecar's mtime.
// Editing only the sidecar must count as a change to the asset.
func (a *Asset) EffectiveModTime() time.Time {
	if a.Sidecar != nil && a.Sidecar.ModTime.After(a.ModTime) {
		return a.Sidecar.ModTime
	}
	return a.ModTime
}

// Discover walks root and returns the staged assets sorted by path.
// Sidecar files are paired with their asset, never listed on their own.
func Discover(root string) ([]Asset, error) {
	paths, err := fsutil.ListAssets(root)
	if err != nil {
		return nil, err
	}

	assets := make([]Asset, 0, len(paths))
	for _, p := range paths {
		st, err := os.Stat(p)
		if err != nil {
			// Raced with a delete mid-walk; skip it.
			continue
		}
		sc, err := sidecar.Locate(p)
		if err != nil {
			return nil, err
		}
		assets = append(assets, Asset{
			Path:    p,
			Size:    st.Size(),
			ModTime: st.ModTime(),
			Sidecar: sc,
		})
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].Path < assets[j].Path })
	return assets, nil
}

// FilterChanged drops assets whose effective mtime is not newer than the
// catalog's recorded mtime. refresh keeps everything.
func FilterChanged(assets []Asset, known map[string]time.Time, refresh bool) []Asset {
	if refresh {
		return assets
	}
	out := make([]Asset, 0, len(assets))
	for _, a := range assets {
		prev, ok := known[a.Path]
		if ok && !a.EffectiveModTime().After(prev) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Paths projects assets onto their file paths.
func Paths(assets []Asset) []string {
	out := make([]string, len(assets))
	for i, a := range assets {
		out[i] = a.Path
	}
	return out
}

// ResolveSidecarAsset maps a sidecar path back to the asset it annotates,
// handling both naming conventions. Returns "" when no asset exists.
func ResolveSidecarAsset(scPath string) string {
	if !fsutil.IsSidecar(scPath) {
		return ""
	}
	base := scPath[:len(scPath)-len(filepath.Ext(scPath))]
	// Appended convention: img.dng.xmp trims straight to the asset.
	if fsutil.IsAssetFile(base) {
		if _, err := os.Stat(base); err == nil {
			return base
		}
	}
	// Replaced convention: probe the known extensions.
	stem := base[:len(base)-len(filepath.Ext(base))]
	if stem == "" {
		stem = base
	}
	for _, ext := range []string{".jpg", ".jpeg", ".dng", ".nef", ".cr2", ".arw", ".tif", ".tiff", ".pef", ".srw"} {
		if p := fsutil.FirstExisting(stem + ext); p != "" {
			return p
		}
	}
	return ""
}
