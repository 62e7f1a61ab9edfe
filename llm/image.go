package llm

import (
	"context"
	"fmt"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/levitang/llm-practice/config"
)

// ImageGenerator turns prompts into DALL-E 3 image URLs.
type ImageGenerator struct {
	client  *goopenai.Client
	size    string
	quality string
}

// NewImageGenerator creates a generator for 1024x1024 standard quality images.
func NewImageGenerator(cfg config.OpenAI) *ImageGenerator {
	c := goopenai.DefaultConfig(cfg.APIKey)
	c.BaseURL = cfg.APIBase()
	return &ImageGenerator{
		client:  goopenai.NewClientWithConfig(c),
		size:    goopenai.CreateImageSize1024x1024,
		quality: goopenai.CreateImageQualityStandard,
	}
}

// Generate returns the URL of one generated image.
func (g *ImageGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.CreateImage(ctx, goopenai.ImageRequest{
		Prompt:         prompt,
		Model:          goopenai.CreateImageModelDallE3,
		Size:           g.size,
		Quality:        g.quality,
		N:              1,
		ResponseFormat: goopenai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return "", fmt.Errorf("create image: %w", err)
	}
	if len(resp.Data) == 0 {
		return "", fmt.Errorf("create image: empty response")
	}
	return resp.Data[0].URL, nil
}
