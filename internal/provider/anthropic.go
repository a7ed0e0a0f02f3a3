package provider

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/khanglvm/tracklens/internal/analysis"
)

type anthropicBackend struct {
	client    anthropic.Client
	model     string
	maxTokens int
}

func newAnthropic(apiKey string, cfg Config) *anthropicBackend {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &anthropicBackend{
		client:    anthropic.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
}

func (a *anthropicBackend) Name() string  { return Anthropic }
func (a *anthropicBackend) Model() string { return a.model }

// Generate sends the images first, then the prompt, and concatenates the
// text blocks of the reply.
func (a *anthropicBackend) Generate(ctx context.Context, prompt string, images []analysis.Image) (string, error) {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(images)+1)
	for _, img := range images {
		blocks = append(blocks, anthropic.NewImageBlockBase64(mimeType(img), base64Data(img)))
	}
	blocks = append(blocks, anthropic.NewTextBlock(prompt))

	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: int64(a.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(blocks...),
		},
	})
	if err != nil {
		return "", classify(Anthropic, err)
	}

	var b strings.Builder
	for _, cb := range msg.Content {
		if tb, ok := cb.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(tb.Text)
		}
	}
	if b.Len() == 0 {
		return "", classify(Anthropic, ErrEmptyResponse)
	}
	return b.String(), nil
}
