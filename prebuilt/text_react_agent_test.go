package prebuilt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/levitang/llm-practice/llm/llmtest"
	"github.com/levitang/llm-practice/tool"
)

func TestParseReAct(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		action string
		input  string
		final  string
		err    string
	}{
		{
			name:   "action",
			text:   "I should look up the price.\nAction: ask_fruit_unit_price\nAction Input: apple",
			action: "ask_fruit_unit_price",
			input:  "apple",
		},
		{
			name:   "quoted input",
			text:   "Action: calculate\nAction Input: \"3 * 10\"\n",
			action: "calculate",
			input:  "3 * 10",
		},
		{
			name:  "final answer",
			text:  "I now know the final answer\nFinal Answer: 42 yuan",
			final: "42 yuan",
		},
		{name: "no action", text: "I am not sure what to do.", err: missingAction},
		{name: "no input", text: "Action: calculate\n", err: missingActionInput},
		{name: "both", text: "Action: calculate\nAction Input: 1+1\nFinal Answer: 2", err: bothAnswerAndTool},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			step, final, err := ParseReAct(tc.text)
			if tc.err != "" {
				assert.EqualError(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			if tc.final != "" {
				assert.Nil(t, step)
				assert.Equal(t, tc.final, final)
				return
			}
			require.NotNil(t, step)
			assert.Equal(t, tc.action, step.Action)
			assert.Equal(t, tc.input, step.ActionInput)
			assert.Equal(t, tc.text, step.Log)
		})
	}
}

func TestTextReactAgent_Run(t *testing.T) {
	model := llmtest.New(
		"I need the apple price.\nAction: ask_fruit_unit_price\nAction Input: apple",
		"Now multiply.\nAction: calculate\nAction Input: 10*3",
		"I now know the final answer\nFinal Answer: 3 kg of apples cost 30",
	)
	agent, err := NewTextReactAgent(model, []tool.Tool{tool.FruitPrice{}, tool.NewCalculator()})
	require.NoError(t, err)

	state, err := agent.Invoke(context.Background(), "How much are 3 kg of apples?")
	require.NoError(t, err)
	assert.True(t, state.Done)
	assert.Equal(t, "3 kg of apples cost 30", state.Output)
	require.Len(t, state.Steps, 2)
	assert.Equal(t, "Apple unit price is 10/kg", state.Steps[0].Observation)
	assert.Equal(t, "30", state.Steps[1].Observation)

	calls := model.Calls()
	require.Len(t, calls, 3)
	first := llmtest.TextOf(calls[0].Messages[0])
	assert.Contains(t, first, "ask_fruit_unit_price: Asks the user for the price of a fruit")
	assert.Contains(t, first, "[ask_fruit_unit_price, calculate]")
	assert.Contains(t, first, "Question: How much are 3 kg of apples?")
	assert.Equal(t, []string{"\nObservation:"}, calls[0].Options.StopWords)

	second := llmtest.TextOf(calls[1].Messages[0])
	assert.Contains(t, second, "Action Input: apple\nObservation: Apple unit price is 10/kg\nThought: ")
}

func TestTextReactAgent_RecoversFromBadFormat(t *testing.T) {
	model := llmtest.New(
		"Hmm, let me think about it.",
		"Action: juggle\nAction Input: balls",
		"Final Answer: done",
	)
	agent, err := NewTextReactAgent(model, []tool.Tool{tool.FruitPrice{}})
	require.NoError(t, err)

	state, err := agent.Invoke(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, "done", state.Output)
	require.Len(t, state.Steps, 2)
	assert.Equal(t, missingAction, state.Steps[0].Observation)
	assert.Equal(t, "juggle is not a valid tool, try one of [ask_fruit_unit_price].", state.Steps[1].Observation)
}

func TestTextReactAgent_MaxIterations(t *testing.T) {
	model := llmtest.New("Action: ask_fruit_unit_price\nAction Input: apple")
	model.Repeat = true
	agent, err := NewTextReactAgent(model, []tool.Tool{tool.FruitPrice{}}, WithMaxIterations(3))
	require.NoError(t, err)

	_, err = agent.Run(context.Background(), "loop")
	assert.ErrorIs(t, err, ErrMaxIterations)
	assert.Len(t, model.Calls(), 3)
}
