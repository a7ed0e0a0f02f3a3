package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/khanglvm/tracklens/internal/analysis"
)

const defaultOllamaHost = "http://localhost:11434"

type ollamaBackend struct {
	client *api.Client
	model  string
}

func newOllama(cfg Config) (*ollamaBackend, error) {
	host := cfg.BaseURL
	if host == "" {
		host = os.Getenv("OLLAMA_HOST")
	}
	if host == "" {
		host = defaultOllamaHost
	}
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}

	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
	}

	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &ollamaBackend{
		client: api.NewClient(u, &http.Client{Timeout: timeout}),
		model:  cfg.Model,
	}, nil
}

func (o *ollamaBackend) Name() string  { return Ollama }
func (o *ollamaBackend) Model() string { return o.model }

func (o *ollamaBackend) Generate(ctx context.Context, prompt string, images []analysis.Image) (string, error) {
	stream := false
	req := &api.GenerateRequest{
		Model:  o.model,
		Prompt: prompt,
		Stream: &stream,
	}
	for _, img := range images {
		req.Images = append(req.Images, api.ImageData(img.Data))
	}

	var text strings.Builder
	err := o.client.Generate(ctx, req, func(gr api.GenerateResponse) error {
		text.WriteString(gr.Response)
		return nil
	})
	if err != nil {
		return "", classify(Ollama, err)
	}
	if text.Len() == 0 {
		return "", classify(Ollama, ErrEmptyResponse)
	}
	return text.String(), nil
}
