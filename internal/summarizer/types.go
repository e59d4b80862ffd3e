package summarizer

import (
	"context"
	"errors"
)

// Generator sends a single prompt to a language model and returns its text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

var (
	// ErrUnsupportedProvider is returned when the configured provider is unknown.
	ErrUnsupportedProvider = errors.New("unsupported summarizer provider")
	// ErrEmptyResponse is returned by generators when the model produced no text.
	ErrEmptyResponse = errors.New("empty model response")
)
