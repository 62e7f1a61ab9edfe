package chain

import "github.com/tmc/langchaingo/prompts"

func promptFor(text string) prompts.ChatPromptTemplate {
	return prompts.NewChatPromptTemplate([]prompts.MessageFormatter{
		prompts.NewHumanMessagePromptTemplate(text, nil),
	})
}
