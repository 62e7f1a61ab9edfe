package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/levitang/llm-practice/llm/llmtest"
)

func TestTranslate(t *testing.T) {
	model := llmtest.New("Ciao!")

	out, err := Translate(model).Invoke(context.Background(), map[string]any{"language": "Italian", "text": "hi!"})
	require.NoError(t, err)
	assert.Equal(t, "Ciao!", out)

	call := model.LastCall()
	require.Len(t, call.Messages, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, call.Messages[0].Role)
	assert.Equal(t, "Translate the following from English into Italian", llmtest.TextOf(call.Messages[0]))
	assert.Equal(t, "hi!", llmtest.TextOf(call.Messages[1]))
}

func TestFlower(t *testing.T) {
	model := llmtest.New("爱情")

	out, err := Flower(model).Invoke(context.Background(), map[string]any{"flower": "玫瑰"})
	require.NoError(t, err)
	assert.Equal(t, "爱情", out)
	assert.Equal(t, "玫瑰的花语是?", llmtest.TextOf(model.LastCall().Messages[0]))
}

func TestPipe_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	called := false
	p := Pipe[int, int, int](
		Func[int, int](func(context.Context, int) (int, error) { return 0, boom }),
		Func[int, int](func(context.Context, int) (int, error) { called = true; return 1, nil }),
	)

	_, err := p.Invoke(context.Background(), 1)
	assert.ErrorIs(t, err, boom)
	assert.False(t, called)
}

func TestJSONOutputParser(t *testing.T) {
	type joke struct {
		Setup     string `json:"setup"`
		Punchline string `json:"punchline"`
	}
	model := llmtest.New("```json\n{\"setup\":\"why\",\"punchline\":\"because\"}\n```")
	c := Pipe(Pipe(PromptTemplate(promptFor("tell a joke")), ChatModel(model)), JSONOutputParser[joke]())

	out, err := c.Invoke(context.Background(), map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, joke{Setup: "why", Punchline: "because"}, out)
}

func TestJSONOutputParser_Invalid(t *testing.T) {
	_, err := JSONOutputParser[map[string]string]().Invoke(context.Background(), &llms.ContentChoice{Content: "not json"})
	assert.Error(t, err)
}

type fakeImages struct{ prompt string }

func (f *fakeImages) Generate(_ context.Context, p string) (string, error) {
	f.prompt = p
	return "https://img.example/1.png", nil
}

func TestImage(t *testing.T) {
	model := llmtest.New("a cyberpunk future city")
	images := &fakeImages{}

	url, err := Image(model, images).Invoke(context.Background(), "赛博朋克风格的未来城市")
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/1.png", url)
	assert.Equal(t, "a cyberpunk future city", images.prompt)
	assert.Contains(t, llmtest.TextOf(model.LastCall().Messages[0]), "赛博朋克风格的未来城市")
}

func TestChatModel_Error(t *testing.T) {
	model := llmtest.New()
	_, err := ChatModel(model).Invoke(context.Background(), nil)
	assert.ErrorIs(t, err, llmtest.ErrExhausted)
}
