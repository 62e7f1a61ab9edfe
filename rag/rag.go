// Package rag contains the document types and the retrieval augmented
// generation pipelines built on top of the graph package.
//
// The usual flow is loader -> splitter -> embedder -> vector store ->
// retriever -> prompt -> chat model:
//
//	n, err := rag.Index(ctx, loader.NewTextLoader("main.go"), splitter.NewLanguage(splitter.Go), vs)
//	p, err := rag.NewPipeline(retriever.NewVectorRetriever(vs), model)
//	answer, err := p.Query(ctx, "What does generate do?")
package rag

import (
	"context"
	"strings"
)

// Document is a piece of text plus free form metadata.
type Document struct {
	ID          string         `json:"id,omitempty"`
	PageContent string         `json:"page_content"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// SearchResult is a document with its similarity to the query.
type SearchResult struct {
	Document Document `json:"document"`
	Score    float64  `json:"score"`
}

// Loader produces documents from some source.
type Loader interface {
	Load(ctx context.Context) ([]Document, error)
}

// Splitter breaks documents into chunks.
type Splitter interface {
	SplitDocuments(docs []Document) ([]Document, error)
}

// Embedder turns text into vectors. langchaingo embedders satisfy it.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorStore stores documents and searches them by similarity.
type VectorStore interface {
	AddDocuments(ctx context.Context, docs []Document) ([]string, error)
	SimilaritySearchWithScore(ctx context.Context, query string, k int) ([]SearchResult, error)
}

// MMRSearcher is implemented by stores that support maximal marginal
// relevance search.
type MMRSearcher interface {
	MaxMarginalRelevanceSearch(ctx context.Context, query string, k, fetchK int, lambda float64) ([]Document, error)
}

// Retriever returns the documents relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]Document, error)
}

// RetrieverFunc adapts a function to a Retriever.
type RetrieverFunc func(ctx context.Context, query string) ([]Document, error)

func (f RetrieverFunc) Retrieve(ctx context.Context, query string) ([]Document, error) {
	return f(ctx, query)
}

// CloneMetadata returns a shallow copy of m that is never nil.
func CloneMetadata(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// FormatDocuments joins page contents with blank lines.
func FormatDocuments(docs []Document) string {
	parts := make([]string, len(docs))
	for i, d := range docs {
		parts[i] = d.PageContent
	}
	return strings.Join(parts, "\n\n")
}

// LoaderFunc adapts a function to a Loader.
type LoaderFunc func(ctx context.Context) ([]Document, error)

func (f LoaderFunc) Load(ctx context.Context) ([]Document, error) {
	return f(ctx)
}
