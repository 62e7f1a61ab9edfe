package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/levitang/llm-practice/config"
	"github.com/levitang/llm-practice/llm/llmtest"
)

func TestInvoke(t *testing.T) {
	model := llmtest.New("ciao!")

	out, err := Invoke(context.Background(), model, "Translate the following from English into Italian", "hi!")
	require.NoError(t, err)
	assert.Equal(t, "ciao!", out)

	call := model.LastCall()
	require.Len(t, call.Messages, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, call.Messages[0].Role)
	assert.Equal(t, "hi!", llmtest.TextOf(call.Messages[1]))

	_, _ = Invoke(context.Background(), model, "", "again")
	assert.Len(t, model.LastCall().Messages, 1)
}

func TestGenerate_NoChoices(t *testing.T) {
	model := (&llmtest.MockLLM{}).Add(&llms.ContentResponse{})
	_, err := Generate(context.Background(), model, nil)
	assert.ErrorIs(t, err, ErrNoChoices)
}

func TestStream(t *testing.T) {
	model := llmtest.New("Hello there friend")

	var tokens []string
	out, err := Stream(context.Background(), model, []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, "hi")},
		func(tok string) error {
			tokens = append(tokens, tok)
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, "Hello there friend", out)
	assert.Equal(t, []string{"Hello ", "there ", "friend"}, tokens)
}

type person struct {
	Name string `json:"name" jsonschema:"required" jsonschema_description:"full name"`
	Age  int    `json:"age" jsonschema:"required"`
	Role string `json:"role,omitempty"`
}

func TestSchemaFor(t *testing.T) {
	s := SchemaFor[person]()
	assert.Equal(t, "object", s["type"])
	assert.NotContains(t, s, "$ref")

	props := s["properties"].(map[string]any)
	assert.Contains(t, props, "name")
	assert.Equal(t, "full name", props["name"].(map[string]any)["description"])
	assert.ElementsMatch(t, []any{"name", "age"}, s["required"])
	assert.Equal(t, false, s["additionalProperties"])
}

func TestStructuredOutput(t *testing.T) {
	rf := StructuredOutput[person]("person")
	assert.Equal(t, "json_schema", rf.Type)
	require.NotNil(t, rf.JSONSchema)
	assert.True(t, rf.JSONSchema.Strict)
	assert.Equal(t, "object", rf.JSONSchema.Schema.Type)
	assert.Equal(t, []string{"age", "name", "role"}, rf.JSONSchema.Schema.Required)
	assert.Equal(t, "integer", rf.JSONSchema.Schema.Properties["age"].Type)
}

func TestStructured(t *testing.T) {
	model := llmtest.New("```json\n{\"name\":\"Bob\",\"age\":30}\n```", "not json")

	p, err := Structured[person](context.Background(), model, nil)
	require.NoError(t, err)
	assert.Equal(t, person{Name: "Bob", Age: 30}, p)

	_, err = Structured[person](context.Background(), model, nil)
	assert.ErrorContains(t, err, "decode structured reply")
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFence(`  {"a":1} `))
}

func TestRESTClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		body, _ := io.ReadAll(r.Body)
		var req goopenai.ChatCompletionRequest
		require.NoError(t, json.Unmarshal(body, &req))
		if req.Model == "broken" {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = io.WriteString(w, `{"error":"slow down"}`)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(goopenai.ChatCompletionResponse{
			Choices: []goopenai.ChatCompletionChoice{{Message: goopenai.ChatCompletionMessage{
				Role:    goopenai.ChatMessageRoleAssistant,
				Content: "echo " + req.Messages[len(req.Messages)-1].Content,
			}}},
		})
	}))
	defer srv.Close()

	c := NewRESTClient(config.OpenAI{APIKey: "sk-test", BaseURL: srv.URL})

	resp, err := c.CreateChatCompletion(context.Background(), goopenai.ChatCompletionRequest{
		Model:    "gpt-4o-mini",
		Messages: []goopenai.ChatCompletionMessage{{Role: goopenai.ChatMessageRoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "echo hi", resp.Choices[0].Message.Content)

	_, err = c.CreateChatCompletion(context.Background(), goopenai.ChatCompletionRequest{Model: "broken"})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "429"))
}

func TestImageGenerator(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/images/generations", r.URL.Path)

		var req goopenai.ImageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, goopenai.CreateImageModelDallE3, req.Model)
		assert.Equal(t, goopenai.CreateImageSize1024x1024, req.Size)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"created":1,"data":[{"url":"https://img.example/cat.png"}]}`)
	}))
	defer srv.Close()

	g := NewImageGenerator(config.OpenAI{APIKey: "sk-test", BaseURL: srv.URL})
	url, err := g.Generate(context.Background(), "a cat chasing a mouse")
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/cat.png", url)
}

func TestNewChatModel(t *testing.T) {
	m, err := NewChatModel(config.OpenAI{APIKey: "sk-test", BaseURL: "http://localhost:1", Model: "gpt-4o-mini", EmbeddingModel: "text-embedding-3-small"})
	require.NoError(t, err)
	assert.NotNil(t, m)

	e, err := NewEmbedder(config.OpenAI{APIKey: "sk-test", BaseURL: "http://localhost:1", Model: "m", EmbeddingModel: "e"})
	require.NoError(t, err)
	assert.NotNil(t, e)
}
