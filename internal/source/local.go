package source

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Local reads report files from a directory tree.
type Local struct {
	root string
}

var _ Source = (*Local)(nil)

// NewLocal creates a source over the given directory.
func NewLocal(root string) *Local {
	return &Local{root: root}
}

// List walks the tree and returns the relative paths of ingestable files,
// sorted for deterministic processing order.
func (l *Local) List(ctx context.Context) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !ingestableExts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		rel, err := filepath.Rel(l.root, path)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", l.root, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// Fetch reads one file.
func (l *Local) Fetch(ctx context.Context, path string) (*RawDoc, error) {
	content, err := os.ReadFile(filepath.Join(l.root, filepath.FromSlash(path)))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return &RawDoc{Path: path, Content: content}, nil
}
