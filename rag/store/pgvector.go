package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"

	"github.com/levitang/llm-practice/rag"
)

// DBPool is the subset of *pgxpool.Pool used by PGVectorStore.
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PGVectorOptions configures PGVectorStore.
type PGVectorOptions struct {
	TableName string // default "rag_documents"
	Dimension int    // default 1536
}

// PGVectorStore stores documents in PostgreSQL with the pgvector extension
// and orders matches by cosine distance.
type PGVectorStore struct {
	pool      DBPool
	embedder  rag.Embedder
	tableName string
	dimension int
}

var _ rag.VectorStore = (*PGVectorStore)(nil)

func NewPGVectorStore(pool DBPool, embedder rag.Embedder, opts PGVectorOptions) *PGVectorStore {
	if opts.TableName == "" {
		opts.TableName = "rag_documents"
	}
	if opts.Dimension <= 0 {
		opts.Dimension = 1536
	}
	return &PGVectorStore{pool: pool, embedder: embedder, tableName: opts.TableName, dimension: opts.Dimension}
}

// InitSchema enables the extension and creates the table.
func (s *PGVectorStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE EXTENSION IF NOT EXISTS vector;
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			metadata JSONB,
			embedding vector(%d) NOT NULL
		);
	`, s.tableName, s.dimension)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (s *PGVectorStore) AddDocuments(ctx context.Context, docs []rag.Document) ([]string, error) {
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

	query := fmt.Sprintf(`
		INSERT INTO %s (id, content, metadata, embedding)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			metadata = EXCLUDED.metadata,
			embedding = EXCLUDED.embedding
	`, s.tableName)

	ids := make([]string, len(docs))
	for i, d := range docs {
		id := d.ID
		if id == "" {
			id = uuid.NewString()
		}
		meta, err := json.Marshal(d.Metadata)
		if err != nil {
			return nil, fmt.Errorf("marshal metadata: %w", err)
		}
		if _, err := s.pool.Exec(ctx, query, id, d.PageContent, meta, pgvector.NewVector(vectors[i])); err != nil {
			return nil, fmt.Errorf("insert document %s: %w", id, err)
		}
		ids[i] = id
	}
	return ids, nil
}

func (s *PGVectorStore) SimilaritySearchWithScore(ctx context.Context, query string, k int) ([]rag.SearchResult, error) {
	if s.embedder == nil {
		return nil, errors.New("no embedder configured")
	}
	vec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if k <= 0 {
		k = 4
	}

	sql := fmt.Sprintf(`
		SELECT id, content, metadata, 1 - (embedding <=> $1) AS score
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT $2
	`, s.tableName)
	rows, err := s.pool.Query(ctx, sql, pgvector.NewVector(vec), k)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	defer rows.Close()

	var results []rag.SearchResult
	for rows.Next() {
		var (
			doc  rag.Document
			meta []byte
			sc   float64
		)
		if err := rows.Scan(&doc.ID, &doc.PageContent, &meta, &sc); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &doc.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata: %w", err)
			}
		}
		results = append(results, rag.SearchResult{Document: doc, Score: sc})
	}
	return results, rows.Err()
}

// Delete removes documents by ID.
func (s *PGVectorStore) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ANY($1)", s.tableName), ids)
	return err
}
