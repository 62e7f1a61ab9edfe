// Package cmd implements the llmpractice command line.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/levitang/llm-practice/config"
	"github.com/levitang/llm-practice/graph"
	"github.com/levitang/llm-practice/llm"
	"github.com/levitang/llm-practice/log"
)

var (
	// logLevel overrides the level from the config file
	logLevel string
	// configPath is the optional JSON agent configuration
	configPath string
	// modelName overrides OPENAI_MODEL
	modelName string
	// showMetrics prints graph metrics after the command finishes
	showMetrics bool

	cfg      *config.Config
	fileCfg  *config.File
	logger   log.Logger = log.NoOpLogger{}
	registry *prometheus.Registry
	metrics  *graph.MetricsListener
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "llmpractice",
	Short: "LLM application examples: chat, RAG, agents and code review",
	Long: `llmpractice runs the LLM application examples against an OpenAI compatible API.

Settings come from the environment (OPENAI_API_KEY, OPENAI_API_BASE,
OPENAI_MODEL, TAVILY_API_KEY, GITLAB_TOKEN, ...) and an optional JSON
configuration file.

Examples:
  # Translate a greeting
  llmpractice chat invoke

  # Multi-turn chat with thread memory in redis
  llmpractice chatbot --store redis --dsn localhost:6379

  # Ask questions over a web page
  llmpractice rag web --stream

  # Print the agent graph as Mermaid
  llmpractice graph --name react`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	err := rootCmd.Execute()
	if showMetrics && registry != nil {
		printMetrics(os.Stderr, registry)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error, none")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a JSON configuration file")
	rootCmd.PersistentFlags().StringVarP(&modelName, "model", "m", "", "Chat model (defaults to $OPENAI_MODEL or "+config.DefaultModel+")")
	rootCmd.PersistentFlags().BoolVar(&showMetrics, "metrics", false, "Print graph node metrics on exit")
}

func setup(cmd *cobra.Command, _ []string) error {
	cfg = config.FromEnv()

	fileCfg = config.DefaultFileConfig()
	if configPath != "" {
		f, err := config.Load(configPath)
		if err != nil {
			return err
		}
		fileCfg = f
		f.Apply(cfg)
	}
	if modelName != "" {
		cfg.OpenAI.Model = modelName
	}

	level := fileCfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	l := log.New(lvl).SetOutput(cmd.ErrOrStderr())
	logger = l
	log.SetDefaultLogger(l)

	registry = prometheus.NewRegistry()
	metrics, err = graph.NewMetricsListener(registry)
	return err
}

// listeners returns the graph listeners requested on the command line.
func listeners() []graph.Listener {
	if !showMetrics || metrics == nil {
		return nil
	}
	return []graph.Listener{metrics}
}

var errNoAPIKey = errors.New("OPENAI_API_KEY is not set")

func newModel(opts ...openai.Option) (*openai.LLM, error) {
	if cfg.OpenAI.APIKey == "" {
		return nil, errNoAPIKey
	}
	logger.Debug("chat model %s at %s", cfg.OpenAI.Model, cfg.OpenAI.APIBase())
	return llm.NewChatModel(cfg.OpenAI, opts...)
}

func newEmbedder() (*embeddings.EmbedderImpl, error) {
	if cfg.OpenAI.APIKey == "" {
		return nil, errNoAPIKey
	}
	return llm.NewEmbedder(cfg.OpenAI)
}

// printMetrics writes every gathered sample as name{labels} value.
func printMetrics(w io.Writer, g prometheus.Gatherer) {
	families, err := g.Gather()
	if err != nil {
		fmt.Fprintf(w, "gather metrics: %v\n", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			sort.Strings(labels)

			var value string
			switch {
			case m.GetCounter() != nil:
				value = fmt.Sprintf("%g", m.GetCounter().GetValue())
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				value = fmt.Sprintf("count=%d sum=%.3fs", h.GetSampleCount(), h.GetSampleSum())
			default:
				continue
			}
			fmt.Fprintf(w, "%s{%s} %s\n", mf.GetName(), strings.Join(labels, ","), value)
		}
	}
}
