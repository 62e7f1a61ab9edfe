package cmd

import (
	"context"
	"fmt"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/levitang/llm-practice/chain"
	"github.com/levitang/llm-practice/llm"
	"github.com/levitang/llm-practice/prompt"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Single-turn chat model examples",
	Long: `Call a chat model directly, through prompt templates and through chains.

Examples:
  llmpractice chat invoke
  llmpractice chat stream
  llmpractice chat image --input "赛博朋克风格的未来城市"`,
}

var chatInvokeCmd = &cobra.Command{
	Use:   "invoke",
	Short: "Translate a message with a system and a user prompt",
	RunE: func(cmd *cobra.Command, _ []string) error {
		model, err := newModel()
		if err != nil {
			return err
		}
		answer, err := llm.Invoke(cmd.Context(), model, "Translate the following from English into Italian", "hi!")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), answer)
		return nil
	},
}

var chatStreamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Stream the translation token by token",
	RunE: func(cmd *cobra.Command, _ []string) error {
		model, err := newModel()
		if err != nil {
			return err
		}
		msgs, err := prompt.FormatChat(prompt.Translate(), map[string]any{"language": "Italian", "text": "hi!"})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		_, err = llm.Stream(cmd.Context(), model, msgs, func(token string) error {
			_, werr := fmt.Fprint(out, token, "|")
			return werr
		})
		fmt.Fprintln(out)
		return err
	},
}

var chatPromptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Fill the translation template for several languages",
	RunE: func(cmd *cobra.Command, _ []string) error {
		model, err := newModel()
		if err != nil {
			return err
		}
		translate := chain.Translate(model)
		for _, language := range []string{"Italian", "Chinese"} {
			answer, err := translate.Invoke(cmd.Context(), map[string]any{"language": language, "text": "hi!"})
			if err != nil {
				return fmt.Errorf("translate into %s: %w", language, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", language, answer)
		}
		return nil
	},
}

var chatOutputCmd = &cobra.Command{
	Use:   "output",
	Short: "Parse the model reply into a string",
	RunE: func(cmd *cobra.Command, _ []string) error {
		model, err := newModel()
		if err != nil {
			return err
		}
		answer, err := chain.Translate(model).Invoke(cmd.Context(), map[string]any{
			"language": "Chinese",
			"text":     "Welcome to LLM application development!",
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), answer)
		return nil
	},
}

var imageInput string

var chatImageCmd = &cobra.Command{
	Use:   "image",
	Short: "Describe an image in Chinese and generate it with DALL-E",
	RunE: func(cmd *cobra.Command, _ []string) error {
		model, err := newModel()
		if err != nil {
			return err
		}
		url, err := chain.Image(model, llm.NewImageGenerator(cfg.OpenAI)).Invoke(cmd.Context(), imageInput)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Generated Image URL: %s\n", url)
		return nil
	},
}

var chatMemoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Show that independent calls do not remember earlier turns",
	RunE: func(cmd *cobra.Command, _ []string) error {
		model, err := newModel()
		if err != nil {
			return err
		}
		for _, q := range []string{"你好, 我叫小唐", "请问我叫什么名字？"} {
			answer, err := llm.Invoke(cmd.Context(), model, "", q)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Human: %s\nAI: %s\n\n", q, answer)
		}
		return nil
	},
}

var rawDebug bool

var chatRawCmd = &cobra.Command{
	Use:   "raw",
	Short: "Call the chat completions endpoint over plain HTTP",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cfg.OpenAI.APIKey == "" {
			return errNoAPIKey
		}
		client := llm.NewRESTClient(cfg.OpenAI).SetDebug(rawDebug)
		return rawPoem(cmd.Context(), client, cmd)
	},
}

func rawPoem(ctx context.Context, client *llm.RESTClient, cmd *cobra.Command) error {
	resp, err := client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: cfg.OpenAI.Model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: "写一首关于AI的诗"},
		},
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), resp.Choices[0].Message.Content)
	return nil
}

func init() {
	chatImageCmd.Flags().StringVar(&imageInput, "input", "赛博朋克风格的未来城市", "Chinese description of the image")
	chatRawCmd.Flags().BoolVar(&rawDebug, "debug", false, "Dump HTTP requests and responses")

	chatCmd.AddCommand(chatInvokeCmd, chatStreamCmd, chatPromptCmd, chatOutputCmd, chatImageCmd, chatMemoryCmd, chatRawCmd)
	rootCmd.AddCommand(chatCmd)
}
