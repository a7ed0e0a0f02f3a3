package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/khanglvm/tracklens/internal/analysis"
)

type geminiBackend struct {
	client    *genai.Client
	model     string
	maxTokens int
}

func newGemini(ctx context.Context, apiKey string, cfg Config) (*geminiBackend, error) {
	opts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(cfg.BaseURL))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &geminiBackend{client: client, model: cfg.Model, maxTokens: cfg.MaxTokens}, nil
}

func (g *geminiBackend) Name() string  { return Gemini }
func (g *geminiBackend) Model() string { return g.model }

func (g *geminiBackend) Generate(ctx context.Context, prompt string, images []analysis.Image) (string, error) {
	model := g.client.GenerativeModel(g.model)
	model.SetMaxOutputTokens(int32(g.maxTokens))

	parts := make([]genai.Part, 0, len(images)+1)
	for _, img := range images {
		parts = append(parts, genai.ImageData(imageFormat(img), img.Data))
	}
	parts = append(parts, genai.Text(prompt))

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", classify(Gemini, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", classify(Gemini, ErrEmptyResponse)
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	if b.Len() == 0 {
		return "", classify(Gemini, ErrEmptyResponse)
	}
	return b.String(), nil
}
