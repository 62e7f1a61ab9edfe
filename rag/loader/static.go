package loader

import (
	"context"

	"github.com/levitang/llm-practice/rag"
)

// StaticLoader returns a fixed list of documents.
type StaticLoader struct {
	docs []rag.Document
}

func NewStaticLoader(docs ...rag.Document) *StaticLoader {
	return &StaticLoader{docs: docs}
}

func (l *StaticLoader) Load(context.Context) ([]rag.Document, error) {
	out := make([]rag.Document, len(l.docs))
	for i, d := range l.docs {
		d.Metadata = rag.CloneMetadata(d.Metadata)
		out[i] = d
	}
	return out, nil
}
