package loader

import (
	"context"
	"fmt"
	"os"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/levitang/llm-practice/rag"
)

// MarkdownLoader renders a markdown file and keeps its text.
type MarkdownLoader struct {
	path     string
	metadata []Option
}

func NewMarkdownLoader(path string, opts ...Option) *MarkdownLoader {
	return &MarkdownLoader{path: path, metadata: opts}
}

func (l *MarkdownLoader) Load(ctx context.Context) ([]rag.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", l.path, err)
	}
	meta := applyOptions(map[string]any{"source": l.path}, l.metadata)
	return []rag.Document{{PageContent: MarkdownToText(data), Metadata: meta}}, nil
}

// MarkdownToText converts markdown source into plain text.
func MarkdownToText(md []byte) string {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return htmlToText(string(markdown.Render(p.Parse(md), renderer)))
}
