package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/levitang/llm-practice/chain"
	"github.com/levitang/llm-practice/prompt"
)

var flowerCmd = &cobra.Command{
	Use:   "flower [name]",
	Short: "Ask for the language of a flower",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flower := "玫瑰"
		if len(args) == 1 {
			flower = args[0]
		}
		values := map[string]any{"flower": flower}

		text, err := prompt.Flower().Format(values)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, text)

		model, err := newModel()
		if err != nil {
			return err
		}
		answer, err := chain.Flower(model).Invoke(cmd.Context(), values)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, answer)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(flowerCmd)
}
