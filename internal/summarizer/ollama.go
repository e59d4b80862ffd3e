package summarizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/ryosukesatoh/daily-brief/internal/config"
)

// OllamaGenerator runs prompts against a local Ollama server.
type OllamaGenerator struct {
	llm         llms.Model
	maxTokens   int
	temperature float32
}

var _ Generator = (*OllamaGenerator)(nil)

func NewOllamaGenerator(cfg config.SummarizerConfig) (*OllamaGenerator, error) {
	opts := []ollama.Option{ollama.WithModel(cfg.Model)}
	if cfg.BaseURL != "" {
		opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
	}

	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("ollama: failed to initialize: %w", err)
	}
	return &OllamaGenerator{llm: llm, maxTokens: cfg.MaxTokens, temperature: cfg.Temperature}, nil
}

func (g *OllamaGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	var opts []llms.CallOption
	if g.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(g.maxTokens))
	}
	if g.temperature > 0 {
		opts = append(opts, llms.WithTemperature(float64(g.temperature)))
	}

	text, err := llms.GenerateFromSinglePrompt(ctx, g.llm, prompt, opts...)
	if err != nil {
		return "", fmt.Errorf("ollama: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("ollama: %w", ErrEmptyResponse)
	}
	return text, nil
}
