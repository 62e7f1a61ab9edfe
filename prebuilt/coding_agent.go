package prebuilt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	goopenai "github.com/sashabaranov/go-openai"

	"github.com/levitang/llm-practice/log"
	"github.com/levitang/llm-practice/prompt"
	"github.com/levitang/llm-practice/tool"
)

// ChatCompleter sends raw chat completion requests. llm.RESTClient
// implements it.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req goopenai.ChatCompletionRequest) (*goopenai.ChatCompletionResponse, error)
}

var (
	youColor   = color.New(color.FgHiBlue)
	aiColor    = color.New(color.FgHiYellow)
	toolColor  = color.New(color.FgHiGreen)
	errorColor = color.New(color.FgHiRed)
)

// CodingAgent is an interactive terminal assistant. It reads user lines
// from in, and keeps calling tools until the model replies in text.
type CodingAgent struct {
	client       ChatCompleter
	model        string
	tools        *tool.Registry
	systemPrompt string
	in           *bufio.Scanner
	out          io.Writer
	logger       log.Logger

	conversation []goopenai.ChatCompletionMessage
}

func NewCodingAgent(client ChatCompleter, model string, tools []tool.Tool, in io.Reader, out io.Writer, opts ...Option) *CodingAgent {
	o := newOptions(opts)
	system := o.systemPrompt
	if system == "" {
		system = prompt.CodingAssistantSystem
	}
	return &CodingAgent{
		client:       client,
		model:        model,
		tools:        tool.NewRegistry(tools...),
		systemPrompt: system,
		in:           bufio.NewScanner(in),
		out:          out,
		logger:       o.logger,
	}
}

// Run loops until the input ends, the user types "exit" or ctx is done.
func (a *CodingAgent) Run(ctx context.Context) error {
	a.conversation = []goopenai.ChatCompletionMessage{
		{Role: goopenai.ChatMessageRoleSystem, Content: a.systemPrompt},
	}
	fmt.Fprintln(a.out, "Chat with AI (use 'ctrl-c' to quit)")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s: ", youColor.Sprint("You"))
		if !a.in.Scan() {
			return a.in.Err()
		}
		text := strings.TrimSpace(a.in.Text())
		if text == "exit" {
			return nil
		}
		if text == "" {
			continue
		}
		a.conversation = append(a.conversation, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleUser, Content: text})
		a.respond(ctx)
	}
}

// respond calls the model until it stops asking for tools.
func (a *CodingAgent) respond(ctx context.Context) {
	for {
		resp, err := a.client.CreateChatCompletion(ctx, a.request())
		if err != nil {
			fmt.Fprintf(a.out, "%s: %s\n", errorColor.Sprint("API Error"), err)
			return
		}
		if len(resp.Choices) == 0 {
			fmt.Fprintf(a.out, "%s: response contained no choices\n", errorColor.Sprint("Error"))
			return
		}
		msg := resp.Choices[0].Message
		a.conversation = append(a.conversation, msg)
		if msg.Content != "" {
			fmt.Fprintf(a.out, "%s: %s\n", aiColor.Sprint("AI"), msg.Content)
		}
		if len(msg.ToolCalls) == 0 {
			return
		}
		for _, tc := range msg.ToolCalls {
			if tc.Type != goopenai.ToolTypeFunction {
				continue
			}
			a.conversation = append(a.conversation, a.execute(ctx, tc))
		}
	}
}

func (a *CodingAgent) execute(ctx context.Context, tc goopenai.ToolCall) goopenai.ChatCompletionMessage {
	name, args := tc.Function.Name, tc.Function.Arguments
	fmt.Fprintf(a.out, "%s: %s(%s)\n", toolColor.Sprint("Tool Call"), name, args)
	result := goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleTool, ToolCallID: tc.ID, Name: name}

	t, err := a.tools.Get(name)
	if err != nil {
		result.Content = fmt.Sprintf("tool '%s' not found by agent", name)
		fmt.Fprintf(a.out, "%s: %s\n", errorColor.Sprint("Tool Error"), result.Content)
		return result
	}
	out, err := tool.Invoke(ctx, t, args)
	if err != nil {
		result.Content = fmt.Sprintf("error executing tool '%s': %s", name, err)
		fmt.Fprintf(a.out, "%s: %s\n", errorColor.Sprint("Tool Error"), result.Content)
		return result
	}
	a.logger.Debug("tool %s returned %d bytes", name, len(out))
	result.Content = out
	return result
}

func (a *CodingAgent) request() goopenai.ChatCompletionRequest {
	defs := tool.Definitions(a.tools.Tools())
	tools := make([]goopenai.Tool, len(defs))
	for i, d := range defs {
		tools[i] = goopenai.Tool{
			Type: goopenai.ToolTypeFunction,
			Function: &goopenai.FunctionDefinition{
				Name:        d.Function.Name,
				Description: d.Function.Description,
				Parameters:  d.Function.Parameters,
			},
		}
	}
	return goopenai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    a.conversation,
		Tools:       tools,
		ToolChoice:  "auto",
		MaxTokens:   2048,
		Temperature: 0.7,
	}
}

// Conversation returns the messages exchanged so far.
func (a *CodingAgent) Conversation() []goopenai.ChatCompletionMessage {
	return append([]goopenai.ChatCompletionMessage(nil), a.conversation...)
}
