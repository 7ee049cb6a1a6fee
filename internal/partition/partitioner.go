// Package partition splits raw binary documents into ordered text elements
// through format-specific partitioner capabilities.
package partition

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/incidentlabs/hybrid-index/internal/data"
)

// Options toggle structure extraction features. Partitioners are free to
// ignore options they cannot honor.
type Options struct {
	ExtractImages         bool
	ExtractTableStructure bool
}

// Partitioner is the external partitioning capability: raw bytes in, an
// ordered list of text elements out. A failure applies to the single document
// being partitioned, never to the batch.
type Partitioner interface {
	Partition(ctx context.Context, content []byte, opts Options) ([]*data.Element, error)
}

// ForPath selects a partitioner by file extension.
func ForPath(path string) (Partitioner, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return NewPDF(), nil
	case ".md", ".markdown":
		return NewMarkdown(), nil
	default:
		return nil, fmt.Errorf("unsupported document format %q", filepath.Ext(path))
	}
}
