package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/levitang/llm-practice/graph"
	"github.com/levitang/llm-practice/llm"
	"github.com/levitang/llm-practice/message"
	"github.com/levitang/llm-practice/prebuilt"
	"github.com/levitang/llm-practice/store/memory"
	"github.com/levitang/llm-practice/tool"
	"github.com/levitang/llm-practice/tool/browser"
	"github.com/levitang/llm-practice/tool/sqldb"
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Tool calling agents",
	Long: `Run the prebuilt agents: a search agent with thread memory, a text format
ReAct agent, a SQL agent, a browser agent and an interactive coding assistant.

Examples:
  llmpractice agent search --engine brave
  llmpractice agent react
  llmpractice agent sql --dialect sqlite --dsn chinook.db -q "How many artists are there?"
  llmpractice agent coding`,
}

var (
	searchEngine string
	searchMax    int
	searchThread string
)

var agentSearchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search agent that remembers the conversation",
	RunE:  runAgentSearch,
}

var reactQuestion string

var agentReactCmd = &cobra.Command{
	Use:   "react",
	Short: "Text format ReAct agent with a calculator and a fruit price tool",
	RunE: func(cmd *cobra.Command, _ []string) error {
		model, err := newModel()
		if err != nil {
			return err
		}
		agent, err := prebuilt.NewTextReactAgent(model,
			[]tool.Tool{tool.NewCalculator(), tool.FruitPrice{}},
			prebuilt.WithListeners(listeners()...),
			prebuilt.WithLogger(logger),
		)
		if err != nil {
			return err
		}
		state, err := agent.Invoke(cmd.Context(), reactQuestion)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, step := range state.Steps {
			fmt.Fprintf(out, "%s\nObservation: %s\n", step.Log, step.Observation)
		}
		fmt.Fprintf(out, "Final Answer: %s\n", state.Output)
		return nil
	},
}

var (
	sqlDialect  string
	sqlDSN      string
	sqlQuestion string
	sqlTopK     int
)

var agentSQLCmd = &cobra.Command{
	Use:   "sql",
	Short: "Answer a question by querying a SQL database",
	RunE: func(cmd *cobra.Command, _ []string) error {
		dialect, dsn := cfg.Database.Dialect, cfg.Database.DSN
		if sqlDialect != "" {
			dialect = sqlDialect
		}
		if sqlDSN != "" {
			dsn = sqlDSN
		}
		db, err := sqldb.Open(dialect, dsn)
		if err != nil {
			return err
		}
		defer db.Close()

		model, err := newModel()
		if err != nil {
			return err
		}
		agent, err := prebuilt.SQLAgent(model, db,
			prebuilt.WithTopK(sqlTopK),
			prebuilt.WithListeners(listeners()...),
			prebuilt.WithLogger(logger),
		)
		if err != nil {
			return err
		}
		return streamAgent(cmd.Context(), cmd.OutOrStdout(), agent, "", sqlQuestion)
	},
}

var browserQuestion string

var agentBrowserCmd = &cobra.Command{
	Use:   "browser",
	Short: "Answer a question by browsing web pages",
	RunE: func(cmd *cobra.Command, _ []string) error {
		model, err := newModel()
		if err != nil {
			return err
		}
		agent, err := prebuilt.BrowserAgent(model, browser.NewSession(nil),
			prebuilt.WithListeners(listeners()...),
			prebuilt.WithLogger(logger),
		)
		if err != nil {
			return err
		}
		return streamAgent(cmd.Context(), cmd.OutOrStdout(), agent, "", browserQuestion)
	},
}

var (
	codingRoot  string
	codingDebug bool
)

var agentCodingCmd = &cobra.Command{
	Use:   "coding",
	Short: "Interactive coding assistant with file and merge request tools",
	RunE:  runAgentCoding,
}

func init() {
	agentSearchCmd.Flags().StringVar(&searchEngine, "engine", "tavily", "Search engine: tavily or brave")
	agentSearchCmd.Flags().IntVar(&searchMax, "max-results", 2, "Results per search")
	agentSearchCmd.Flags().StringVar(&searchThread, "thread", "", "Thread id (defaults to the configured thread)")

	agentReactCmd.Flags().StringVarP(&reactQuestion, "question", "q", "What is the total price of 3 kg of apple and 2 kg of banana?", "Question to answer")

	agentSQLCmd.Flags().StringVar(&sqlDialect, "dialect", "", "sqlite, mysql or postgresql (defaults to $SQL_DIALECT)")
	agentSQLCmd.Flags().StringVar(&sqlDSN, "dsn", "", "Database connection string (defaults to $DATABASE_URL)")
	agentSQLCmd.Flags().StringVarP(&sqlQuestion, "question", "q", "总共有多少个项目", "Question to answer")
	agentSQLCmd.Flags().IntVar(&sqlTopK, "top-k", 5, "Row limit the agent is told to use")

	agentBrowserCmd.Flags().StringVarP(&browserQuestion, "question", "q", "What are python.langchain.com?", "Question to answer")

	agentCodingCmd.Flags().StringVar(&codingRoot, "root", ".", "Directory the file tools may read")
	agentCodingCmd.Flags().BoolVar(&codingDebug, "debug", false, "Dump HTTP requests and responses")

	agentCmd.AddCommand(agentSearchCmd, agentReactCmd, agentSQLCmd, agentBrowserCmd, agentCodingCmd)
	rootCmd.AddCommand(agentCmd)
}

func runAgentSearch(cmd *cobra.Command, _ []string) error {
	var search tool.Tool
	switch searchEngine {
	case "tavily":
		t, err := tool.NewTavilySearch(cfg.Search.TavilyAPIKey, tool.WithMaxResults(searchMax))
		if err != nil {
			return err
		}
		search = t
	case "brave":
		b, err := tool.NewBraveSearch(cfg.Search.BraveAPIKey, tool.WithBraveCount(searchMax))
		if err != nil {
			return err
		}
		search = b
	default:
		return fmt.Errorf("unknown search engine %q", searchEngine)
	}

	model, err := newModel()
	if err != nil {
		return err
	}
	agent, err := prebuilt.CreateReactAgent(model, []tool.Tool{search},
		prebuilt.WithCheckpointStore(memory.NewMemoryCheckpointStore()),
		prebuilt.WithListeners(listeners()...),
		prebuilt.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	thread := searchThread
	if thread == "" {
		thread = cfg.ThreadID
	}
	for _, q := range []string{"hi im bob! and i live in sf", "whats the weather in sf?"} {
		if err := streamAgent(cmd.Context(), cmd.OutOrStdout(), agent, thread, q); err != nil {
			return err
		}
	}
	return nil
}

// streamAgent prints the question and every message the agent adds while
// answering it.
func streamAgent(ctx context.Context, out io.Writer, agent *prebuilt.ReactAgent, thread, question string) error {
	if err := message.PrettyOne(out, message.Human(question)); err != nil {
		return err
	}
	seen := -1
	for ev := range agent.Stream(ctx, thread, question, graph.StreamModeValues) {
		if ev.Err != nil {
			return ev.Err
		}
		msgs := ev.State.Messages
		if seen < 0 {
			// Snapshots carry the thread history; skip up to the question.
			seen = lastUserIndex(msgs) + 1
		}
		for _, m := range msgs[min(seen, len(msgs)):] {
			if err := message.PrettyOne(out, m); err != nil {
				return err
			}
		}
		seen = len(msgs)
	}
	return nil
}

func lastUserIndex(msgs []message.Message) int {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == message.RoleUser {
			return i
		}
	}
	return -1
}

func runAgentCoding(cmd *cobra.Command, _ []string) error {
	if cfg.OpenAI.APIKey == "" {
		return errNoAPIKey
	}

	available := []tool.Tool{tool.ReadFile{Root: codingRoot}, tool.ListFiles{Root: codingRoot}}
	if cfg.GitLab.Token != "" {
		gl, err := tool.NewGitLabClient(cfg.GitLab)
		if err != nil {
			return err
		}
		available = append(available, tool.MergeDiff{Lister: gl.MergeRequests})
	}
	var tools []tool.Tool
	for _, t := range available {
		if len(fileCfg.Tools) == 0 || slices.Contains(fileCfg.Tools, t.Name()) {
			tools = append(tools, t)
		}
	}
	logger.Debug("coding agent tools: %s", tool.Names(tools))

	client := llm.NewRESTClient(cfg.OpenAI).SetDebug(codingDebug)
	agent := prebuilt.NewCodingAgent(client, cfg.OpenAI.Model, tools, os.Stdin, cmd.OutOrStdout(),
		prebuilt.WithSystemPrompt(fileCfg.SystemPrompt),
		prebuilt.WithLogger(logger),
	)
	return agent.Run(cmd.Context())
}
