package provider

import (
	"context"

	"github.com/sashabaranov/go-openai"

	"github.com/khanglvm/tracklens/internal/analysis"
)

type openAIBackend struct {
	client    *openai.Client
	model     string
	maxTokens int
}

func newOpenAI(apiKey string, cfg Config) *openAIBackend {
	clientCfg := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &openAIBackend{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
}

func (o *openAIBackend) Name() string  { return OpenAI }
func (o *openAIBackend) Model() string { return o.model }

// Generate sends the prompt and images as one multi-part user message.
func (o *openAIBackend) Generate(ctx context.Context, prompt string, images []analysis.Image) (string, error) {
	parts := []openai.ChatMessagePart{{
		Type: openai.ChatMessagePartTypeText,
		Text: prompt,
	}}
	for _, img := range images {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    dataURL(img),
				Detail: openai.ImageURLDetailAuto,
			},
		})
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     o.model,
		MaxTokens: o.maxTokens,
		Messages: []openai.ChatCompletionMessage{{
			Role:         openai.ChatMessageRoleUser,
			MultiContent: parts,
		}},
	})
	if err != nil {
		return "", classify(OpenAI, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", classify(OpenAI, ErrEmptyResponse)
	}
	return resp.Choices[0].Message.Content, nil
}
