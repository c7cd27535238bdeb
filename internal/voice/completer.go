package voice

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/Additional-Code/tableside/internal/config"
)

// NewCompleter returns a Gemini completer when AI is enabled and a noop one otherwise.
func NewCompleter(cfg config.Config, logger *zap.Logger) (Completer, error) {
	if !cfg.AI.Enabled {
		logger.Info("voice ordering disabled; using noop completer")
		return NoopCompleter{}, nil
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.AI.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiCompleter{client: client, model: cfg.AI.Model, timeout: cfg.AI.Timeout}, nil
}

// GeminiCompleter calls the Gemini API.
type GeminiCompleter struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

func (g *GeminiCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return resp.Text(), nil
}

// NoopCompleter always answers with an empty list.
type NoopCompleter struct{}

func (NoopCompleter) Complete(context.Context, string) (string, error) {
	return "[]", nil
}
