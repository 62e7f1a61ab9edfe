package message

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

func TestAppendDoesNotAlias(t *testing.T) {
	base := make([]Message, 1, 4)
	base[0] = Human("hi")

	a := Append(base, []Message{AI("hello")})
	b := Append(base, []Message{AI("howdy")})

	assert.Equal(t, "hello", a[1].Content)
	assert.Equal(t, "howdy", b[1].Content)
	assert.Len(t, base, 1)
}

func TestTrim(t *testing.T) {
	msgs := []Message{System("sys"), Human("1"), AI("2"), Human("3"), AI("4")}

	got := Trim(msgs, 2)
	require.Len(t, got, 3)
	assert.Equal(t, RoleSystem, got[0].Role)
	assert.Equal(t, "3", got[1].Content)
	assert.Equal(t, "4", got[2].Content)

	assert.Equal(t, msgs, Trim(msgs, 0))
	assert.Equal(t, msgs, Trim(msgs, 10))
	assert.Equal(t, []Message{Human("x"), AI("y")}, Trim([]Message{Human("w"), Human("x"), AI("y")}, 2))
}

func TestTrim_KeepsToolCallWithResults(t *testing.T) {
	call := Message{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "a"}, {ID: "b"}}}
	msgs := []Message{System("sys"), Human("q"), call, Tool("a", "x", "1"), Tool("b", "y", "2")}

	got := Trim(msgs, 1)
	require.Len(t, got, 4)
	assert.Equal(t, RoleSystem, got[0].Role)
	assert.True(t, got[1].HasToolCalls())
	assert.Equal(t, "a", got[2].ToolCallID)
	assert.Equal(t, "b", got[3].ToolCallID)

	// results whose call is already gone are dropped
	orphans := []Message{Tool("a", "x", "1"), Tool("b", "y", "2"), AI("done")}
	assert.Equal(t, []Message{AI("done")}, Trim(orphans, 2))
}

func TestToLLM(t *testing.T) {
	msgs := []Message{
		System("be brief"),
		Human("weather?"),
		{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "call_1", Name: "search", Arguments: `{"query":"sf"}`}}},
		Tool("call_1", "search", "sunny"),
		AI("It is sunny."),
	}

	got := ToLLM(msgs)
	require.Len(t, got, 5)
	assert.Equal(t, llms.ChatMessageTypeSystem, got[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, got[1].Role)

	require.Len(t, got[2].Parts, 1)
	call, ok := got[2].Parts[0].(llms.ToolCall)
	require.True(t, ok)
	assert.Equal(t, "search", call.FunctionCall.Name)

	resp, ok := got[3].Parts[0].(llms.ToolCallResponse)
	require.True(t, ok)
	assert.Equal(t, "call_1", resp.ToolCallID)
	assert.Equal(t, "sunny", resp.Content)

	assert.Equal(t, llms.TextContent{Text: "It is sunny."}, got[4].Parts[0])
}

func TestFromChoice(t *testing.T) {
	m := FromChoice(&llms.ContentChoice{
		Content: "",
		ToolCalls: []llms.ToolCall{
			{ID: "a", FunctionCall: &llms.FunctionCall{Name: "calc", Arguments: "1+1"}},
			{ID: "b"},
		},
	})
	assert.True(t, m.HasToolCalls())
	assert.Equal(t, []ToolCall{{ID: "a", Name: "calc", Arguments: "1+1"}}, m.ToolCalls)
}

func TestPretty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Pretty(&buf, []Message{Human("hi Bob"), Tool("1", "search", "result")}))

	out := buf.String()
	assert.Contains(t, out, "Human Message")
	assert.Contains(t, out, "hi Bob")
	assert.Contains(t, out, "Name: search")
}
