package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/levitang/llm-practice/graph"
	"github.com/levitang/llm-practice/rag"
	"github.com/levitang/llm-practice/rag/loader"
	"github.com/levitang/llm-practice/rag/retriever"
	"github.com/levitang/llm-practice/rag/splitter"
)

var ragCmd = &cobra.Command{
	Use:   "rag",
	Short: "Retrieval augmented question answering",
	Long: `Index a source, then answer questions through a retrieve -> generate graph.

Examples:
  llmpractice rag web --question "What is Task Decomposition?"
  llmpractice rag confluence --space YYX
  llmpractice rag code internal/service.go --language go`,
}

var (
	ragWebURL      string
	ragWebClasses  []string
	ragWebQuestion string
	ragWebStream   bool
	ragWebVec      vectorFlags
)

var ragWebCmd = &cobra.Command{
	Use:   "web",
	Short: "Answer a question about a blog post",
	RunE: func(cmd *cobra.Command, _ []string) error {
		web := loader.NewWebLoader([]string{ragWebURL}, loader.WithClasses(ragWebClasses...))
		split := splitter.NewRecursiveCharacter(splitter.WithChunkSize(1000), splitter.WithChunkOverlap(200))
		return answerOver(cmd, web, split, &ragWebVec, ragWebQuestion, ragWebStream)
	},
}

var (
	ragConfluenceSpace    string
	ragConfluenceCQL      string
	ragConfluenceLimit    int
	ragConfluenceMaxPages int
	ragConfluenceQuestion string
	ragConfluenceVec      vectorFlags
)

var ragConfluenceCmd = &cobra.Command{
	Use:   "confluence",
	Short: "Answer a question over the pages of a Confluence space",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cc := cfg.Confluence
		if ragConfluenceSpace != "" {
			cc.SpaceKey = ragConfluenceSpace
		}
		wiki, err := loader.NewConfluenceLoader(cc,
			loader.WithCQL(ragConfluenceCQL),
			loader.WithLimit(ragConfluenceLimit),
			loader.WithMaxPages(ragConfluenceMaxPages),
		)
		if err != nil {
			return err
		}
		split := splitter.NewRecursiveCharacter(splitter.WithChunkSize(1000), splitter.WithChunkOverlap(200))
		return answerOver(cmd, wiki, split, &ragConfluenceVec, ragConfluenceQuestion, false)
	},
}

var (
	ragCodeLanguage  string
	ragCodeQuestions []string
	ragCodeVec       vectorFlags
)

var ragCodeCmd = &cobra.Command{
	Use:   "code <file>",
	Short: "Hold a conversation about a source file",
	Args:  cobra.ExactArgs(1),
	RunE:  runRagCode,
}

func init() {
	ragWebCmd.Flags().StringVar(&ragWebURL, "url", "https://lilianweng.github.io/posts/2023-06-23-agent/", "Page to index")
	ragWebCmd.Flags().StringSliceVar(&ragWebClasses, "classes", []string{"post-content", "post-title", "post-header"}, "Keep only elements with these classes")
	ragWebCmd.Flags().StringVarP(&ragWebQuestion, "question", "q", "What is Task Decomposition?", "Question to answer")
	ragWebCmd.Flags().BoolVar(&ragWebStream, "stream", false, "Print each node update as it completes")
	ragWebVec.register(ragWebCmd)

	ragConfluenceCmd.Flags().StringVar(&ragConfluenceSpace, "space", "YYX", "Space key (overrides $CONFLUENCE_SPACE_KEY)")
	ragConfluenceCmd.Flags().StringVar(&ragConfluenceCQL, "cql", `creator="levi.tang"`, "Additional CQL filter")
	ragConfluenceCmd.Flags().IntVar(&ragConfluenceLimit, "limit", 50, "Page size of the content search")
	ragConfluenceCmd.Flags().IntVar(&ragConfluenceMaxPages, "max-pages", 100, "Maximum number of pages to load")
	ragConfluenceCmd.Flags().StringVarP(&ragConfluenceQuestion, "question", "q", "什么是云游戏？", "Question to answer")
	ragConfluenceVec.register(ragConfluenceCmd)

	ragCodeCmd.Flags().StringVar(&ragCodeLanguage, "language", "", "Split by language separators (go, python, markdown); plain character split when empty")
	ragCodeCmd.Flags().StringArrayVarP(&ragCodeQuestions, "question", "q", []string{"解释这段代码", "generate方法是做什么的?"}, "Questions asked in order")
	ragCodeVec.register(ragCodeCmd)

	ragCmd.AddCommand(ragWebCmd, ragConfluenceCmd, ragCodeCmd)
	rootCmd.AddCommand(ragCmd)
}

func answerOver(cmd *cobra.Command, src rag.Loader, split rag.Splitter, vec *vectorFlags, question string, stream bool) error {
	ctx := cmd.Context()

	vs, closeStore, err := vec.open(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	n, err := rag.Index(ctx, src, split, vs)
	if err != nil {
		return err
	}
	logger.Info("indexed %d chunks", n)

	model, err := newModel()
	if err != nil {
		return err
	}
	p, err := rag.NewPipeline(retriever.NewVectorRetriever(vs), model, rag.WithListeners(listeners()...))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if stream {
		return printUpdates(ctx, out, p, question)
	}
	state, err := p.Query(ctx, question)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, state.Answer)
	return nil
}

func printUpdates(ctx context.Context, out io.Writer, p *rag.Pipeline, question string) error {
	for ev := range p.Stream(ctx, question, graph.StreamModeUpdates) {
		if ev.Err != nil {
			return ev.Err
		}
		fmt.Fprintf(out, "Update from node %s:\n", ev.Node)
		switch ev.Node {
		case "retrieve":
			fmt.Fprintf(out, "  %d documents\n", len(ev.State.Context))
		case "generate":
			fmt.Fprintf(out, "  %s\n", ev.State.Answer)
		}
	}
	return nil
}

func runRagCode(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var split rag.Splitter
	if ragCodeLanguage != "" {
		s, err := splitter.NewLanguage(splitter.Language(strings.ToLower(ragCodeLanguage)), splitter.WithChunkSize(1000), splitter.WithChunkOverlap(0))
		if err != nil {
			return err
		}
		split = s
	} else {
		split = splitter.NewCharacter("\n\n", splitter.WithChunkSize(1000), splitter.WithChunkOverlap(0))
	}

	vs, closeStore, err := ragCodeVec.open(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	n, err := rag.Index(ctx, loader.NewTextLoader(args[0]), split, vs)
	if err != nil {
		return err
	}
	logger.Info("indexed %d chunks from %s", n, args[0])

	model, err := newModel()
	if err != nil {
		return err
	}
	ret := retriever.NewVectorRetriever(vs,
		retriever.K(10),
		retriever.WithSearchType(retriever.SearchMMR),
		retriever.FetchK(100),
	)
	p, err := rag.NewConversationalPipeline(ret, model, rag.WithListeners(listeners()...))
	if err != nil {
		return err
	}

	var history []rag.Turn
	out := cmd.OutOrStdout()
	for _, q := range ragCodeQuestions {
		state, err := p.Ask(ctx, q, history)
		if err != nil {
			return err
		}
		history = append(history, rag.Turn{Question: q, Answer: state.Answer})
		fmt.Fprintf(out, "-> **Question**: %s \n\n**Answer**: %s \n\n", q, state.Answer)
	}
	return nil
}
