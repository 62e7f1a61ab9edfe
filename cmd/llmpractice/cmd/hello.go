package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/levitang/llm-practice/llm"
)

// Person is the structure the model fills in.
type Person struct {
	Name string `json:"name" jsonschema_description:"The name of the user" jsonschema:"required"`
	Age  int    `json:"age" jsonschema_description:"The age of the user" jsonschema:"required"`
	Role string `json:"role" jsonschema_description:"The role of the user" jsonschema:"required"`
}

const extractionSystem = "You are an expert at structured data extraction. You will be given unstructured text from a research paper and should convert it into the given structure."

var helloQuestion string

var helloCmd = &cobra.Command{
	Use:   "hello",
	Short: "Ask for a structured answer constrained by a JSON schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		model, err := newModel(openai.WithResponseFormat(llm.StructuredOutput[Person]("object")))
		if err != nil {
			return err
		}
		p, err := llm.Structured[Person](cmd.Context(), model, []llms.MessageContent{
			llms.TextParts(llms.ChatMessageTypeSystem, extractionSystem),
			llms.TextParts(llms.ChatMessageTypeHuman, helloQuestion),
		}, llms.WithJSONMode())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "name: %s\nage: %d\nrole: %s\n", p.Name, p.Age, p.Role)
		return nil
	},
}

func init() {
	helloCmd.Flags().StringVarP(&helloQuestion, "question", "q", "please tell me the most famous people in history", "Question to answer")
	rootCmd.AddCommand(helloCmd)
}
