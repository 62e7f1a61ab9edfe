// Package store holds vector stores for rag documents.
package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/levitang/llm-practice/rag"
)

type entry struct {
	doc    rag.Document
	vector []float32
}

// InMemoryVectorStore keeps embedded documents in memory and ranks them by
// cosine similarity.
type InMemoryVectorStore struct {
	mu       sync.RWMutex
	embedder rag.Embedder
	entries  []entry
}

var (
	_ rag.VectorStore = (*InMemoryVectorStore)(nil)
	_ rag.MMRSearcher = (*InMemoryVectorStore)(nil)
)

func NewInMemoryVectorStore(embedder rag.Embedder) *InMemoryVectorStore {
	return &InMemoryVectorStore{embedder: embedder}
}

// AddDocuments embeds and stores docs. Documents without an ID get one.
func (s *InMemoryVectorStore) AddDocuments(ctx context.Context, docs []rag.Document) ([]string, error) {
	if s.embedder == nil {
		return nil, errors.New("no embedder configured")
	}
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.PageContent
	}
	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed documents: %w", err)
	}
	if len(vectors) != len(docs) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(docs))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, len(docs))
	for i, d := range docs {
		if d.ID == "" {
			d.ID = uuid.NewString()
		}
		d.Metadata = rag.CloneMetadata(d.Metadata)
		ids[i] = d.ID
		s.entries = append(s.entries, entry{doc: d, vector: vectors[i]})
	}
	return ids, nil
}

// Delete removes the documents with the given IDs.
func (s *InMemoryVectorStore) Delete(_ context.Context, ids ...string) error {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.entries[:0]
	for _, e := range s.entries {
		if !drop[e.doc.ID] {
			kept = append(kept, e)
		}
	}
	s.entries = kept
	return nil
}

// Len returns the number of stored documents.
func (s *InMemoryVectorStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *InMemoryVectorStore) SimilaritySearch(ctx context.Context, query string, k int) ([]rag.Document, error) {
	results, err := s.SimilaritySearchWithScore(ctx, query, k)
	if err != nil {
		return nil, err
	}
	return documents(results), nil
}

func (s *InMemoryVectorStore) SimilaritySearchWithScore(ctx context.Context, query string, k int) ([]rag.SearchResult, error) {
	vec, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.SimilaritySearchByVector(vec, k), nil
}

// SimilaritySearchByVector returns the k closest documents, best first.
// Ties keep insertion order.
func (s *InMemoryVectorStore) SimilaritySearchByVector(vec []float32, k int) []rag.SearchResult {
	ranked := s.rank(vec)
	if k > 0 && k < len(ranked) {
		ranked = ranked[:k]
	}
	out := make([]rag.SearchResult, len(ranked))
	for i, r := range ranked {
		out[i] = rag.SearchResult{Document: r.entry.doc, Score: r.score}
	}
	return out
}

// MaxMarginalRelevanceSearch fetches fetchK candidates and picks k of them,
// trading similarity to the query against similarity to documents already
// picked. lambda 1 is plain similarity, 0 is maximum diversity.
func (s *InMemoryVectorStore) MaxMarginalRelevanceSearch(ctx context.Context, query string, k, fetchK int, lambda float64) ([]rag.Document, error) {
	if k <= 0 {
		return nil, nil
	}
	if fetchK < k {
		fetchK = k
	}
	vec, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	candidates := s.rank(vec)
	if len(candidates) > fetchK {
		candidates = candidates[:fetchK]
	}

	var picked []scored
	used := make([]bool, len(candidates))
	for len(picked) < k && len(picked) < len(candidates) {
		best, bestScore := -1, math.Inf(-1)
		for i, c := range candidates {
			if used[i] {
				continue
			}
			redundancy := 0.0
			for _, p := range picked {
				redundancy = math.Max(redundancy, cosine(c.entry.vector, p.entry.vector))
			}
			score := lambda*c.score - (1-lambda)*redundancy
			if score > bestScore {
				best, bestScore = i, score
			}
		}
		used[best] = true
		picked = append(picked, candidates[best])
	}

	out := make([]rag.Document, len(picked))
	for i, p := range picked {
		out[i] = p.entry.doc
	}
	return out, nil
}

type scored struct {
	entry entry
	score float64
}

func (s *InMemoryVectorStore) rank(vec []float32) []scored {
	s.mu.RLock()
	ranked := make([]scored, len(s.entries))
	for i, e := range s.entries {
		ranked[i] = scored{entry: e, score: cosine(vec, e.vector)}
	}
	s.mu.RUnlock()
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	return ranked
}

func (s *InMemoryVectorStore) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if s.embedder == nil {
		return nil, errors.New("no embedder configured")
	}
	vec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return vec, nil
}

func documents(results []rag.SearchResult) []rag.Document {
	out := make([]rag.Document, len(results))
	for i, r := range results {
		out[i] = r.Document
	}
	return out
}

// cosine returns 0 when either vector is zero or the lengths differ.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
