// Package retriever turns vector stores into rag.Retrievers.
package retriever

import (
	"context"
	"fmt"

	"github.com/levitang/llm-practice/rag"
)

// SearchType selects how candidates are ranked.
type SearchType string

const (
	SearchSimilarity SearchType = "similarity"
	SearchMMR        SearchType = "mmr"
)

// VectorRetriever retrieves from a rag.VectorStore.
type VectorRetriever struct {
	store          rag.VectorStore
	k              int
	searchType     SearchType
	fetchK         int
	lambda         float64
	scoreThreshold float64
}

var _ rag.Retriever = (*VectorRetriever)(nil)

// Option configures a VectorRetriever.
type Option func(*VectorRetriever)

// K sets the number of documents returned. Default 4.
func K(k int) Option {
	return func(r *VectorRetriever) { r.k = k }
}

// WithSearchType switches between similarity and mmr.
func WithSearchType(t SearchType) Option {
	return func(r *VectorRetriever) { r.searchType = t }
}

// FetchK sets how many candidates mmr considers. Default 20.
func FetchK(n int) Option {
	return func(r *VectorRetriever) { r.fetchK = n }
}

// Lambda sets the mmr diversity trade-off. Default 0.5.
func Lambda(l float64) Option {
	return func(r *VectorRetriever) { r.lambda = l }
}

// ScoreThreshold drops similarity results scoring below min.
func ScoreThreshold(min float64) Option {
	return func(r *VectorRetriever) { r.scoreThreshold = min }
}

func NewVectorRetriever(store rag.VectorStore, opts ...Option) *VectorRetriever {
	r := &VectorRetriever{
		store:      store,
		k:          4,
		searchType: SearchSimilarity,
		fetchK:     20,
		lambda:     0.5,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *VectorRetriever) Retrieve(ctx context.Context, query string) ([]rag.Document, error) {
	if r.searchType == SearchMMR {
		mmr, ok := r.store.(rag.MMRSearcher)
		if !ok {
			return nil, fmt.Errorf("vector store %T does not support mmr search", r.store)
		}
		return mmr.MaxMarginalRelevanceSearch(ctx, query, r.k, r.fetchK, r.lambda)
	}

	results, err := r.store.SimilaritySearchWithScore(ctx, query, r.k)
	if err != nil {
		return nil, err
	}
	docs := make([]rag.Document, 0, len(results))
	for _, res := range results {
		if r.scoreThreshold > 0 && res.Score < r.scoreThreshold {
			continue
		}
		docs = append(docs, res.Document)
	}
	return docs, nil
}
