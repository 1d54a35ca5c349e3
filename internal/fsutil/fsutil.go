package fsutil

import (
	"os"
	"path/filepath"
	"strings"
)

// Extensions the extraction pipeline accepts. Raw formats are limited to
// TIFF-based containers; content sniffing still has the final word.
var assetExts = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".tif":  {},
	".tiff": {},
	".dng":  {},
	".nef":  {},
	".cr2":  {},
	".arw":  {},
	".pef":  {},
	".srw":  {},
}

var rawExts = map[string]struct{}{
	".dng": {},
	".nef": {},
	".cr2": {},
	".arw": {},
	".pef": {},
	".srw": {},
}

// ListAssets returns every extractable file under root.
func ListAssets(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if IsAssetFile(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// FirstExisting returns the first path that exists.
func FirstExisting(paths ...string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// IsRAWFile checks if a file is a supported raw camera format.
func IsRAWFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	_, isRaw := rawExts[ext]
	return isRaw
}

// IsAssetFile checks if a file is any supported image format.
func IsAssetFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	_, ok := assetExts[ext]
	return ok
}

// IsSidecar checks if a file is an XMP sidecar.
func IsSidecar(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".xmp")
}
