package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/levitang/llm-practice/llm"
	"github.com/levitang/llm-practice/prebuilt"
	"github.com/levitang/llm-practice/rag"
	"github.com/levitang/llm-practice/tool"
)

var graphName string

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print the Mermaid diagram of a prebuilt graph",
	Long: `Print the nodes and edges of a prebuilt graph as a Mermaid flowchart.
No API call is made.

Examples:
  llmpractice graph --name react
  llmpractice graph --name conversational`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		mermaid, err := drawGraph(graphName)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), mermaid)
		return nil
	},
}

func init() {
	graphCmd.Flags().StringVar(&graphName, "name", "react", "Graph: chat, react, text-react, rag or conversational")
	rootCmd.AddCommand(graphCmd)
}

func drawGraph(name string) (string, error) {
	oc := cfg.OpenAI
	if oc.APIKey == "" {
		// the client only needs a key to be constructed
		oc.APIKey = "sk-placeholder"
	}
	model, err := llm.NewChatModel(oc)
	if err != nil {
		return "", err
	}
	tools := []tool.Tool{tool.NewCalculator(), tool.FruitPrice{}}
	noDocs := rag.RetrieverFunc(func(context.Context, string) ([]rag.Document, error) { return nil, nil })

	switch name {
	case "chat":
		a, err := prebuilt.CreateChatAgent(model, nil)
		if err != nil {
			return "", err
		}
		return a.Graph().DrawMermaid(), nil
	case "react":
		a, err := prebuilt.CreateReactAgent(model, tools)
		if err != nil {
			return "", err
		}
		return a.Graph().DrawMermaid(), nil
	case "text-react":
		a, err := prebuilt.NewTextReactAgent(model, tools)
		if err != nil {
			return "", err
		}
		return a.Graph().DrawMermaid(), nil
	case "rag":
		p, err := rag.NewPipeline(noDocs, model)
		if err != nil {
			return "", err
		}
		return p.Graph().DrawMermaid(), nil
	case "conversational":
		p, err := rag.NewConversationalPipeline(noDocs, model)
		if err != nil {
			return "", err
		}
		return p.Graph().DrawMermaid(), nil
	}
	return "", fmt.Errorf("unknown graph %q", name)
}
