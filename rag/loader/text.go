// Package loader turns files, web pages and wiki spaces into documents.
package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/levitang/llm-practice/rag"
)

// Option adds metadata to every document a loader returns.
type Option func(map[string]any)

// WithMetadata merges extra metadata into loaded documents.
func WithMetadata(metadata map[string]any) Option {
	return func(m map[string]any) {
		for k, v := range metadata {
			m[k] = v
		}
	}
}

func applyOptions(base map[string]any, opts []Option) map[string]any {
	for _, opt := range opts {
		opt(base)
	}
	return base
}

// TextLoader reads one file as one document.
type TextLoader struct {
	path     string
	metadata map[string]any
}

func NewTextLoader(path string, opts ...Option) *TextLoader {
	return &TextLoader{
		path:     path,
		metadata: applyOptions(map[string]any{"source": path}, opts),
	}
}

func (l *TextLoader) Load(ctx context.Context) ([]rag.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", l.path, err)
	}
	return []rag.Document{{
		ID:          "text_" + filepath.Base(l.path),
		PageContent: string(data),
		Metadata:    rag.CloneMetadata(l.metadata),
	}}, nil
}
