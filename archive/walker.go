// Package archive walks documents packed into zip archives.
package archive

import (
	"archive/zip"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/maruel/natural"
)

// WalkFunc is called for each selected file in archive. The archive argument
// contains path to archive passed to Walk. If an error is returned,
// processing stops.
type WalkFunc func(archive string, file *zip.File) error

// Walk calls walkFn for every regular file under prefix with one of the
// requested extensions (any extension when exts is empty). Files are visited
// in natural name order, so "issue-2.html" comes before "issue-10.html".
// Archives with absolute entries or ".." components are rejected as a whole.
func Walk(archive, prefix string, exts []string, walkFn WalkFunc) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	files, err := selectFiles(r.File, prefix, exts)
	if err != nil {
		return err
	}
	for _, f := range files {
		if err := walkFn(archive, f); err != nil {
			return err
		}
	}
	return nil
}

// Entries returns names Walk would visit, in the same order.
func Entries(archive, prefix string, exts []string) ([]string, error) {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	files, err := selectFiles(r.File, prefix, exts)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
	}
	return names, nil
}

// HasExt reports if name ends with one of exts, ignoring case.
func HasExt(name string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	ext := strings.ToLower(path.Ext(name))
	return slices.ContainsFunc(exts, func(e string) bool {
		return strings.ToLower(e) == ext
	})
}

func selectFiles(all []*zip.File, prefix string, exts []string) ([]*zip.File, error) {
	var files []*zip.File
	for _, f := range all {
		if !isSafePath(f.Name) {
			return nil, fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", f.Name)
		}
		if f.FileInfo().IsDir() || !strings.HasPrefix(f.Name, prefix) || !HasExt(f.Name, exts) {
			continue
		}
		files = append(files, f)
	}
	slices.SortStableFunc(files, func(a, b *zip.File) int {
		switch {
		case natural.Less(a.Name, b.Name):
			return -1
		case natural.Less(b.Name, a.Name):
			return 1
		}
		return 0
	})
	return files, nil
}

// isSafePath returns false for absolute paths and those containing ".."
// components.
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, `\`) {
		return false
	}
	return !slices.Contains(strings.Split(name, "/"), "..")
}
