// Package message defines the role tagged conversation messages that flow
// through graph state and checkpoint stores.
package message

import (
	"github.com/tmc/langchaingo/llms"
)

// Role of the message author.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a function call requested by the assistant.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Message is one entry of a conversation. It is plain data so that every
// checkpoint backend can serialize it as JSON.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	Name       string     `json:"name,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

func System(content string) Message { return Message{Role: RoleSystem, Content: content} }
func Human(content string) Message  { return Message{Role: RoleUser, Content: content} }
func AI(content string) Message     { return Message{Role: RoleAssistant, Content: content} }

// Tool is the result of executing the tool call with the given id.
func Tool(callID, name, content string) Message {
	return Message{Role: RoleTool, Content: content, Name: name, ToolCallID: callID}
}

// HasToolCalls reports whether the assistant asked for tools.
func (m Message) HasToolCalls() bool {
	return m.Role == RoleAssistant && len(m.ToolCalls) > 0
}

// Append returns current followed by next. It never aliases current's
// backing array, so states saved in checkpoints stay immutable.
func Append(current, next []Message) []Message {
	out := make([]Message, 0, len(current)+len(next))
	out = append(out, current...)
	return append(out, next...)
}

// Last returns the final message, or false for an empty history.
func Last(msgs []Message) (Message, bool) {
	if len(msgs) == 0 {
		return Message{}, false
	}
	return msgs[len(msgs)-1], true
}

// Trim keeps the system prompt, if any, plus the last n messages. A window
// that would open on tool results is widened back to the assistant message
// that requested them, so every tool message keeps its call.
func Trim(msgs []Message, n int) []Message {
	if n <= 0 || len(msgs) <= n {
		return msgs
	}
	var out []Message
	if msgs[0].Role == RoleSystem {
		out = append(out, msgs[0])
		msgs = msgs[1:]
		if len(msgs) <= n {
			return append(out, msgs...)
		}
	}
	start := len(msgs) - n
	for start > 0 && msgs[start].Role == RoleTool {
		start--
	}
	// no caller left in the history
	for start < len(msgs) && msgs[start].Role == RoleTool {
		start++
	}
	return append(out, msgs[start:]...)
}

// ToLLM converts messages into langchaingo message content.
func ToLLM(msgs []Message) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			out = append(out, llms.TextParts(llms.ChatMessageTypeSystem, m.Content))
		case RoleUser:
			out = append(out, llms.TextParts(llms.ChatMessageTypeHuman, m.Content))
		case RoleAssistant:
			mc := llms.MessageContent{Role: llms.ChatMessageTypeAI}
			if m.Content != "" {
				mc.Parts = append(mc.Parts, llms.TextPart(m.Content))
			}
			for _, tc := range m.ToolCalls {
				mc.Parts = append(mc.Parts, llms.ToolCall{
					ID:   tc.ID,
					Type: "function",
					FunctionCall: &llms.FunctionCall{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				})
			}
			out = append(out, mc)
		case RoleTool:
			out = append(out, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{llms.ToolCallResponse{
					ToolCallID: m.ToolCallID,
					Name:       m.Name,
					Content:    m.Content,
				}},
			})
		}
	}
	return out
}

// FromChoice converts a model choice into an assistant message.
func FromChoice(choice *llms.ContentChoice) Message {
	m := AI(choice.Content)
	for _, tc := range choice.ToolCalls {
		if tc.FunctionCall == nil {
			continue
		}
		m.ToolCalls = append(m.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.FunctionCall.Name,
			Arguments: tc.FunctionCall.Arguments,
		})
	}
	return m
}
