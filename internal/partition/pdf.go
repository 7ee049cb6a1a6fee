package partition

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/incidentlabs/hybrid-index/internal/data"
)

// PDF partitions PDF binaries into one element per page using pdfcpu's
// content extraction. Geometry beyond the page number is not preserved.
type PDF struct {
	conf *model.Configuration
}

var _ Partitioner = (*PDF)(nil)

// NewPDF creates a PDF partitioner with the default pdfcpu configuration.
func NewPDF() *PDF {
	return &PDF{conf: model.NewDefaultConfiguration()}
}

// Partition extracts per-page text. A binary that does not decode as PDF
// fails this document only.
func (p *PDF) Partition(ctx context.Context, content []byte, opts Options) ([]*data.Element, error) {
	tmpDir, err := os.MkdirTemp("", "pdf_partition_")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	inFile := filepath.Join(tmpDir, "input.pdf")
	if err := os.WriteFile(inFile, content, 0o600); err != nil {
		return nil, fmt.Errorf("write temp pdf: %w", err)
	}

	outDir := filepath.Join(tmpDir, "pages")
	if err := os.MkdirAll(outDir, 0o700); err != nil {
		return nil, fmt.Errorf("create extraction dir: %w", err)
	}
	if err := api.ExtractContentFile(inFile, outDir, nil, p.conf); err != nil {
		return nil, fmt.Errorf("binary does not decode as PDF: %w", err)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return nil, fmt.Errorf("read extraction dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}

	var elements []*data.Element
	for _, pf := range orderPageFiles(names) {
		raw, err := os.ReadFile(filepath.Join(outDir, pf.name))
		if err != nil {
			continue
		}
		text := strings.TrimSpace(string(raw))
		if text == "" {
			continue
		}
		elements = append(elements, &data.Element{
			Text: text,
			Properties: data.Properties{
				data.KeyPageNumber: pf.page,
			},
		})
	}
	if len(elements) == 0 {
		return nil, fmt.Errorf("no text content found in PDF")
	}
	return elements, nil
}

var pageFilePattern = regexp.MustCompile(`_page_(\d+)\.txt$`)

type pageFile struct {
	name string
	page int
}

// orderPageFiles pairs extraction output files with their page numbers and
// sorts them numerically. pdfcpu writes unpadded page numbers into the file
// names, so a lexical sort would put page 10 between pages 1 and 2.
func orderPageFiles(names []string) []pageFile {
	files := make([]pageFile, 0, len(names))
	for _, name := range names {
		m := pageFilePattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		page, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		files = append(files, pageFile{name: name, page: page})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].page < files[j].page })
	return files
}
