package bundle

import (
	"archive/zip"
	"bytes"
	"fmt"
	"sort"
)

// Files maps bundle paths to their contents.
type Files map[string][]byte

func (f Files) Paths() []string {
	paths := make([]string, 0, len(f))
	for p := range f {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Zip packs the files in path order with zeroed timestamps so equal inputs
// produce identical archives.
func (f Files) Zip() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, p := range f.Paths() {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: p, Method: zip.Deflate})
		if err != nil {
			return nil, fmt.Errorf("zip %s: %w", p, err)
		}
		if _, err := w.Write(f[p]); err != nil {
			return nil, fmt.Errorf("zip %s: %w", p, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip: %w", err)
	}
	return buf.Bytes(), nil
}
