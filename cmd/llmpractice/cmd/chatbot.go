package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/levitang/llm-practice/config"
	"github.com/levitang/llm-practice/message"
	"github.com/levitang/llm-practice/prebuilt"
	"github.com/levitang/llm-practice/store/backend"
)

var (
	chatbotThread      string
	chatbotOtherThread string
	chatbotStore       string
	chatbotDSN         string
	chatbotSystem      string
)

var chatbotCmd = &cobra.Command{
	Use:   "chatbot",
	Short: "Chat with thread memory kept in a checkpoint store",
	Long: `Run a two-turn conversation on one thread, then ask the same question on
another thread to show memory is scoped per thread.

Examples:
  llmpractice chatbot
  llmpractice chatbot --store sqlite --dsn checkpoints.db
  llmpractice chatbot --store redis --dsn localhost:6379 --thread bob`,
	RunE: runChatbot,
}

func init() {
	chatbotCmd.Flags().StringVar(&chatbotThread, "thread", "", "Thread id (defaults to the configured thread, "+config.DefaultThreadID+")")
	chatbotCmd.Flags().StringVar(&chatbotOtherThread, "other-thread", "abc234", "Thread id used for the memory-less question")
	chatbotCmd.Flags().StringVar(&chatbotStore, "store", "", "Checkpoint store: "+fmt.Sprint(backend.Kinds))
	chatbotCmd.Flags().StringVar(&chatbotDSN, "dsn", "", "Checkpoint store path, address or connection string")
	chatbotCmd.Flags().StringVar(&chatbotSystem, "system", "", "System prompt (defaults to the config file's system_prompt)")
	rootCmd.AddCommand(chatbotCmd)
}

func runChatbot(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cp := cfg.Checkpoint
	if chatbotStore != "" {
		cp.Kind = chatbotStore
	}
	if chatbotDSN != "" {
		cp.DSN = chatbotDSN
	}
	cs, closeStore, err := backend.Open(ctx, cp)
	if err != nil {
		return err
	}
	defer closeStore()
	logger.Info("checkpoint store %s", cp.Kind)

	model, err := newModel()
	if err != nil {
		return err
	}

	system := chatbotSystem
	if system == "" {
		system = fileCfg.SystemPrompt
	}
	agent, err := prebuilt.CreateChatAgent(model, cs,
		prebuilt.WithSystemPrompt(system),
		prebuilt.WithListeners(listeners()...),
		prebuilt.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	thread := chatbotThread
	if thread == "" {
		thread = cfg.ThreadID
	}

	out := cmd.OutOrStdout()
	turns := []struct{ thread, text string }{
		{thread, "Hi! I'm Bob."},
		{thread, "What's my name?"},
		{chatbotOtherThread, "What's my name?"},
	}
	for _, turn := range turns {
		fmt.Fprintf(out, "--- thread %s\n", turn.thread)
		if err := message.PrettyOne(out, message.Human(turn.text)); err != nil {
			return err
		}
		answer, err := agent.Chat(ctx, turn.thread, turn.text)
		if err != nil {
			return err
		}
		if err := message.PrettyOne(out, message.AI(answer)); err != nil {
			return err
		}
	}
	return nil
}
