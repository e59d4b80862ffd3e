package summarizer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ryosukesatoh/daily-brief/internal/config"
	"github.com/ryosukesatoh/daily-brief/internal/retry"
)

// NewGenerator creates the model client for the configured provider.
func NewGenerator(ctx context.Context, cfg config.SummarizerConfig) (Generator, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGeminiGenerator(ctx, cfg)
	case "anthropic":
		return NewAnthropicGenerator(cfg), nil
	case "ollama":
		return NewOllamaGenerator(cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, cfg.Provider)
	}
}

// Summarizer wraps a Generator with request pacing, a per-call timeout and
// retries. It never fails: an exhausted prompt yields an empty string.
type Summarizer struct {
	gen     Generator
	limiter *rate.Limiter
	timeout time.Duration
	retry   retry.Config
	logger  arbor.ILogger
}

// New builds the configured provider and wraps it.
func New(ctx context.Context, cfg config.SummarizerConfig, logger arbor.ILogger) (*Summarizer, error) {
	gen, err := NewGenerator(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return Wrap(gen, cfg, logger), nil
}

// Wrap applies the pacing and retry settings of cfg to gen.
func Wrap(gen Generator, cfg config.SummarizerConfig, logger arbor.ILogger) *Summarizer {
	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute))
	}

	s := &Summarizer{
		gen:     gen,
		limiter: rate.NewLimiter(limit, 1),
		timeout: cfg.Timeout,
		logger:  logger,
		retry: retry.Config{
			MaxRetries: cfg.MaxRetries,
			BaseDelay:  cfg.BaseDelay,
			MaxDelay:   cfg.MaxDelay,
		},
	}
	s.retry.OnRetry = func(attempt int, delay time.Duration, err error) {
		s.logger.Warn().
			Int("attempt", attempt).
			Dur("delay", delay).
			Bool("rate_limited", retry.IsRateLimit(err)).
			Err(err).
			Msg("Retrying model call")
	}
	return s
}

// Summarize returns the model's answer to prompt, or "" when every attempt
// failed.
func (s *Summarizer) Summarize(ctx context.Context, prompt string) string {
	var text string
	err := retry.WithBackoff(ctx, s.retry, func(ctx context.Context) error {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}

		callCtx := ctx
		if s.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}

		out, err := s.gen.Generate(callCtx, prompt)
		if err != nil {
			return err
		}
		out = strings.TrimSpace(out)
		if out == "" {
			return ErrEmptyResponse
		}
		text = out
		return nil
	})
	if err != nil {
		s.logger.Error().Err(err).Int("prompt_length", len(prompt)).Msg("Summary generation failed")
		return ""
	}
	return text
}
