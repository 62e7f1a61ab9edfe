package rag

import (
	"context"

	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/textsplitter"
)

// LangChainLoader adapts a langchaingo document loader.
type LangChainLoader struct {
	loader documentloaders.Loader
}

func NewLangChainLoader(loader documentloaders.Loader) *LangChainLoader {
	return &LangChainLoader{loader: loader}
}

func (l *LangChainLoader) Load(ctx context.Context) ([]Document, error) {
	docs, err := l.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	return FromSchema(docs), nil
}

// LangChainSplitter adapts a langchaingo text splitter. Chunks inherit the
// metadata of their parent document.
type LangChainSplitter struct {
	splitter textsplitter.TextSplitter
}

func NewLangChainSplitter(splitter textsplitter.TextSplitter) *LangChainSplitter {
	return &LangChainSplitter{splitter: splitter}
}

func (s *LangChainSplitter) SplitDocuments(docs []Document) ([]Document, error) {
	split, err := textsplitter.SplitDocuments(s.splitter, ToSchema(docs))
	if err != nil {
		return nil, err
	}
	return FromSchema(split), nil
}

// FromSchema converts langchaingo documents.
func FromSchema(docs []schema.Document) []Document {
	out := make([]Document, len(docs))
	for i, d := range docs {
		out[i] = Document{PageContent: d.PageContent, Metadata: CloneMetadata(d.Metadata)}
	}
	return out
}

// ToSchema converts to langchaingo documents.
func ToSchema(docs []Document) []schema.Document {
	out := make([]schema.Document, len(docs))
	for i, d := range docs {
		out[i] = schema.Document{PageContent: d.PageContent, Metadata: CloneMetadata(d.Metadata)}
	}
	return out
}
