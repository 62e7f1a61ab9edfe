package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	goopenai "github.com/sashabaranov/go-openai"

	"github.com/levitang/llm-practice/config"
)

// RESTClient posts chat completions straight to an OpenAI compatible
// endpoint. It reuses the go-openai wire types.
type RESTClient struct {
	http     *resty.Client
	endpoint string
	apiKey   string
}

// NewRESTClient creates a client for cfg.ChatCompletionsURL().
func NewRESTClient(cfg config.OpenAI) *RESTClient {
	return &RESTClient{
		http:     resty.New().SetTimeout(60 * time.Second),
		endpoint: cfg.ChatCompletionsURL(),
		apiKey:   cfg.APIKey,
	}
}

// SetDebug toggles resty request and response dumps.
func (c *RESTClient) SetDebug(debug bool) *RESTClient {
	c.http.SetDebug(debug)
	return c
}

// CreateChatCompletion sends one request and decodes the reply.
func (c *RESTClient) CreateChatCompletion(ctx context.Context, req goopenai.ChatCompletionRequest) (*goopenai.ChatCompletionResponse, error) {
	reply := &goopenai.ChatCompletionResponse{}
	r := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(reply)
	if c.apiKey != "" {
		r.SetAuthToken(c.apiKey)
	}

	resp, err := r.Post(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to send HTTP request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode(), string(resp.Body()))
	}
	if len(reply.Choices) == 0 {
		return nil, ErrNoChoices
	}
	return reply, nil
}
