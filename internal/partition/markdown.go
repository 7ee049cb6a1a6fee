package partition

import (
	"context"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/toc"

	"github.com/incidentlabs/hybrid-index/internal/data"
)

// Markdown partitions markdown documents into one element per H1/H2 section.
// Each element carries its header hierarchy and a break marker on top-level
// sections, which the merge stage uses as group boundaries.
type Markdown struct {
	parser goldmark.Markdown
}

var _ Partitioner = (*Markdown)(nil)

// NewMarkdown creates a markdown partitioner.
func NewMarkdown() *Markdown {
	return &Markdown{
		parser: goldmark.New(
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
		),
	}
}

type section struct {
	headerPath string
	depth      int
	id         string
}

// Partition splits the source at H1 and H2 boundaries. Content before the
// first heading becomes its own element; a document with no headings becomes
// a single element.
func (m *Markdown) Partition(ctx context.Context, content []byte, opts Options) ([]*data.Element, error) {
	doc := m.parser.Parser().Parse(text.NewReader(content))

	tree, err := toc.Inspect(doc, content,
		toc.MinDepth(1),
		toc.MaxDepth(2),
		toc.Compact(true),
	)
	if err != nil {
		return nil, fmt.Errorf("inspect headings: %w", err)
	}

	sections := flatten(tree.Items, nil)
	if len(sections) == 0 {
		body := strings.TrimSpace(string(content))
		if body == "" {
			return nil, fmt.Errorf("empty markdown document")
		}
		return []*data.Element{{
			Text:       body,
			Properties: data.Properties{data.KeyMarkBreak: true},
		}}, nil
	}

	starts := headingStarts(doc, content, sections)

	var elements []*data.Element
	if preamble := strings.TrimSpace(string(content[:starts[0]])); preamble != "" {
		elements = append(elements, &data.Element{
			Text:       preamble,
			Properties: data.Properties{data.KeyMarkBreak: true},
		})
	}
	for i, sec := range sections {
		end := len(content)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		body := strings.TrimSpace(string(content[starts[i]:end]))
		if body == "" {
			continue
		}
		props := data.Properties{data.KeyHeaderPath: sec.headerPath}
		if sec.depth == 1 {
			props[data.KeyMarkBreak] = true
		}
		elements = append(elements, &data.Element{Text: body, Properties: props})
	}
	return elements, nil
}

// flatten walks the heading hierarchy in document order, building the header
// path of each section ("# Report > ## Findings").
func flatten(items toc.Items, ancestors []string) []section {
	var out []section
	for _, item := range items {
		path := append(append([]string(nil), ancestors...), string(item.Title))
		out = append(out, section{
			headerPath: formatHeaderPath(path),
			depth:      len(path),
			id:         string(item.ID),
		})
		out = append(out, flatten(item.Items, path)...)
	}
	return out
}

func formatHeaderPath(path []string) string {
	parts := make([]string, len(path))
	for i, title := range path {
		parts[i] = fmt.Sprintf("%s %s", strings.Repeat("#", i+1), title)
	}
	return strings.Join(parts, " > ")
}

// headingStarts returns the source offset of each section's heading, in the
// same order as sections. Headings are matched by their auto-generated ID.
func headingStarts(doc ast.Node, source []byte, sections []section) []int {
	byID := make(map[string]int, len(sections))
	starts := make([]int, len(sections))
	for i := range sections {
		byID[sections[i].id] = i
		starts[i] = len(source)
	}
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || n.Kind() != ast.KindHeading {
			return ast.WalkContinue, nil
		}
		idAttr, ok := n.AttributeString("id")
		if !ok {
			return ast.WalkContinue, nil
		}
		if i, ok := byID[string(idAttr.([]byte))]; ok && n.Lines().Len() > 0 {
			line := n.Lines().At(0)
			// Back up over the "#"-prefix so the heading markup is kept.
			start := line.Start
			for start > 0 && source[start-1] != '\n' {
				start--
			}
			starts[i] = start
		}
		return ast.WalkContinue, nil
	})
	return starts
}
