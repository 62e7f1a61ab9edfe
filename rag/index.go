package rag

import (
	"context"
	"fmt"

	"github.com/levitang/llm-practice/log"
)

// Index loads documents, splits them when a splitter is given and adds the
// chunks to store. It returns the number of stored chunks.
func Index(ctx context.Context, loader Loader, splitter Splitter, store VectorStore) (int, error) {
	docs, err := loader.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load documents: %w", err)
	}
	if splitter != nil {
		docs, err = splitter.SplitDocuments(docs)
		if err != nil {
			return 0, fmt.Errorf("split documents: %w", err)
		}
	}
	if len(docs) == 0 {
		return 0, nil
	}
	ids, err := store.AddDocuments(ctx, docs)
	if err != nil {
		return 0, fmt.Errorf("add documents: %w", err)
	}
	log.Debug("indexed %d chunks", len(ids))
	return len(ids), nil
}
