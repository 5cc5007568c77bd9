// Package file discovers input tables on the local filesystem.
package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Extensions lists the supported input extensions, lowercase with the dot.
var Extensions = []string{".csv", ".xlsx"}

// NotFoundError reports a scan root that does not exist or is not a directory.
type NotFoundError struct {
	Root string
	Err  error
}

func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("scan root %q not found: %v", e.Root, e.Err)
	}
	return fmt.Sprintf("scan root %q is not a directory", e.Root)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// Entry is one discovered file.
type Entry struct {
	// Path is absolute.
	Path string
	// Rel is Path relative to the scan root, for display.
	Rel     string
	Size    int64
	ModTime time.Time
}

// Scan walks root recursively and returns every .csv and .xlsx file, sorted
// by path. Extension matching is case-insensitive. Excel lock files
// ("~$name.xlsx") are skipped.
//
// Unreadable subdirectories are skipped; only a missing root is an error.
func Scan(root string) ([]Entry, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, &NotFoundError{Root: root, Err: err}
	}
	st, err := os.Stat(abs)
	if err != nil {
		return nil, &NotFoundError{Root: root, Err: err}
	}
	if !st.IsDir() {
		return nil, &NotFoundError{Root: root}
	}

	var out []Entry
	walkErr := filepath.WalkDir(abs, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == abs {
				return err
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !Supported(p) || strings.HasPrefix(d.Name(), "~$") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(abs, p)
		if err != nil {
			rel = d.Name()
		}
		out = append(out, Entry{Path: p, Rel: rel, Size: info.Size(), ModTime: info.ModTime()})
		return nil
	})
	if walkErr != nil {
		if errors.Is(walkErr, fs.ErrNotExist) {
			return nil, &NotFoundError{Root: root, Err: walkErr}
		}
		return nil, fmt.Errorf("scan %s: %w", root, walkErr)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// Supported reports whether path has one of the supported extensions.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Paths projects entries to their absolute paths.
func Paths(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Path
	}
	return out
}
