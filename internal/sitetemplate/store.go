// Package sitetemplate holds the static site skeleton that every published
// bundle is built from.
package sitetemplate

import (
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed all:files
var embedded embed.FS

// FunctionsDir holds the function handlers. Files under it are copied
// without placeholder substitution.
const FunctionsDir = "functions"

// File is one template file, addressed by its path inside the bundle.
type File struct {
	Path string
	Body []byte
}

// Verbatim reports whether the file must be shipped byte-for-byte.
func (f File) Verbatim() bool {
	return strings.HasPrefix(f.Path, FunctionsDir+"/")
}

type Store struct {
	fsys fs.FS
}

func Default() *Store {
	sub, err := fs.Sub(embedded, "files")
	if err != nil {
		panic(err)
	}
	return &Store{fsys: sub}
}

// New builds a store over an arbitrary tree, mostly for tests.
func New(fsys fs.FS) *Store {
	return &Store{fsys: fsys}
}

// Files returns every template file sorted by path.
func (s *Store) Files() ([]File, error) {
	var files []File
	err := fs.WalkDir(s.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		body, err := fs.ReadFile(s.fsys, p)
		if err != nil {
			return err
		}
		files = append(files, File{Path: path.Clean(p), Body: body})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// Read returns a single file by bundle path.
func (s *Store) Read(name string) ([]byte, error) {
	return fs.ReadFile(s.fsys, name)
}
