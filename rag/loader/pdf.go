package loader

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/levitang/llm-practice/rag"
)

// PDFLoader returns one document per page. Page numbers start at 0.
type PDFLoader struct {
	path     string
	metadata []Option
}

func NewPDFLoader(path string, opts ...Option) *PDFLoader {
	return &PDFLoader{path: path, metadata: opts}
}

func (l *PDFLoader) Load(ctx context.Context) ([]rag.Document, error) {
	f, r, err := pdf.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", l.path, err)
	}
	defer f.Close()

	var docs []rag.Document
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("read page %d of %s: %w", i, l.path, err)
		}
		meta := applyOptions(map[string]any{"source": l.path, "page": i - 1}, l.metadata)
		docs = append(docs, rag.Document{PageContent: strings.TrimSpace(text), Metadata: meta})
	}
	return docs, nil
}
