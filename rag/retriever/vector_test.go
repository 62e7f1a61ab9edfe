package retriever

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/levitang/llm-practice/rag"
	"github.com/levitang/llm-practice/rag/store"
)

func newStore(t *testing.T) *store.InMemoryVectorStore {
	t.Helper()
	s := store.NewInMemoryVectorStore(store.NewMockEmbedder(256))
	_, err := s.AddDocuments(context.Background(), []rag.Document{
		{ID: "1", PageContent: "generate code with templates"},
		{ID: "2", PageContent: "generate code with templates"},
		{ID: "3", PageContent: "generate method writes files"},
		{ID: "4", PageContent: "unrelated gardening notes"},
	})
	require.NoError(t, err)
	return s
}

func ids(docs []rag.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}

func TestVectorRetriever_Similarity(t *testing.T) {
	docs, err := NewVectorRetriever(newStore(t), K(2)).Retrieve(context.Background(), "generate code")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, ids(docs))
}

func TestVectorRetriever_ScoreThreshold(t *testing.T) {
	docs, err := NewVectorRetriever(newStore(t), K(10), ScoreThreshold(0.3)).Retrieve(context.Background(), "generate code")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, ids(docs))
}

func TestVectorRetriever_MMR(t *testing.T) {
	r := NewVectorRetriever(newStore(t), K(2), WithSearchType(SearchMMR), FetchK(4), Lambda(0.5))
	docs, err := r.Retrieve(context.Background(), "generate code")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3"}, ids(docs))
}

type plainStore struct{ rag.VectorStore }

func TestVectorRetriever_MMRUnsupported(t *testing.T) {
	r := NewVectorRetriever(plainStore{newStore(t)}, WithSearchType(SearchMMR))
	_, err := r.Retrieve(context.Background(), "x")
	assert.ErrorContains(t, err, "does not support mmr")
}
