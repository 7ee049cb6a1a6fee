// Package source provides document sources: places raw report binaries are
// listed and fetched from before they enter the pipeline.
package source

import "context"

// Report file extensions a source considers ingestable.
var ingestableExts = map[string]bool{
	".pdf":      true,
	".md":       true,
	".markdown": true,
}

// RawDoc is one raw binary document with its source-relative path.
type RawDoc struct {
	Path    string
	Content []byte
}

// Source lists and fetches raw documents.
type Source interface {
	List(ctx context.Context) ([]string, error)
	Fetch(ctx context.Context, path string) (*RawDoc, error)
}
