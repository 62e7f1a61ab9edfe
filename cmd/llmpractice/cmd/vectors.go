package cmd

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/levitang/llm-practice/rag"
	"github.com/levitang/llm-practice/rag/store"
)

// vectorFlags selects the embedder and vector store of the RAG commands.
type vectorFlags struct {
	pgvectorDSN string
	table       string
	mockDim     int
}

func (v *vectorFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&v.pgvectorDSN, "pgvector-dsn", "", "PostgreSQL connection string; keeps vectors in memory when empty")
	cmd.Flags().StringVar(&v.table, "table", "rag_documents", "pgvector table name")
	cmd.Flags().IntVar(&v.mockDim, "mock-embeddings", 0, "Use deterministic hash embeddings of this dimension instead of the API")
}

func (v *vectorFlags) embedder() (rag.Embedder, int, error) {
	if v.mockDim > 0 {
		return store.NewMockEmbedder(v.mockDim), v.mockDim, nil
	}
	e, err := newEmbedder()
	if err != nil {
		return nil, 0, err
	}
	return e, 0, nil
}

// open returns the vector store and a function releasing it.
func (v *vectorFlags) open(ctx context.Context) (rag.VectorStore, func(), error) {
	e, dim, err := v.embedder()
	if err != nil {
		return nil, nil, err
	}
	if v.pgvectorDSN == "" {
		return store.NewInMemoryVectorStore(e), func() {}, nil
	}

	pool, err := pgxpool.New(ctx, v.pgvectorDSN)
	if err != nil {
		return nil, nil, err
	}
	vs := store.NewPGVectorStore(pool, e, store.PGVectorOptions{TableName: v.table, Dimension: dim})
	if err := vs.InitSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	logger.Info("using pgvector table %s", v.table)
	return vs, pool.Close, nil
}
