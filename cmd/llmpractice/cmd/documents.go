package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/levitang/llm-practice/rag"
	"github.com/levitang/llm-practice/rag/loader"
	"github.com/levitang/llm-practice/rag/splitter"
)

var (
	documentsQuery string
	documentsK     int
	documentsVec   vectorFlags
)

var documentsCmd = &cobra.Command{
	Use:   "documents <pdf>",
	Short: "Index a PDF and run a similarity search over it",
	Long: `Load a PDF, split it into overlapping chunks, embed them and print the
chunks closest to the query with their scores.

Examples:
  llmpractice documents manual.pdf
  llmpractice documents manual.pdf --query "如何生成短链数据库" --pgvector-dsn postgres://localhost/rag`,
	Args: cobra.ExactArgs(1),
	RunE: runDocuments,
}

func init() {
	documentsCmd.Flags().StringVarP(&documentsQuery, "query", "q", "如何生成短链数据库", "Search query")
	documentsCmd.Flags().IntVar(&documentsK, "k", 4, "Number of results")
	documentsVec.register(documentsCmd)
	rootCmd.AddCommand(documentsCmd)
}

func runDocuments(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	vs, closeStore, err := documentsVec.open(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	split := splitter.NewRecursiveCharacter(
		splitter.WithChunkSize(1000),
		splitter.WithChunkOverlap(200),
		splitter.AddStartIndex(),
	)
	n, err := rag.Index(ctx, loader.NewPDFLoader(args[0]), split, vs)
	if err != nil {
		return err
	}
	logger.Info("indexed %d chunks from %s", n, args[0])

	results, err := vs.SimilaritySearchWithScore(ctx, documentsQuery, documentsK)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for i, r := range results {
		fmt.Fprintf(out, "[%d] score=%.4f page=%v start=%v\n%s\n\n", i+1, r.Score,
			r.Document.Metadata["page"], r.Document.Metadata["start_index"], r.Document.PageContent)
	}
	return nil
}
