// Package rephrase provides a text-rewriting client for any OpenAI-compatible
// chat-completions server.
//
// The pipeline hands it trimmed prose from a document text node and gets back
// a rewritten version. The client carries a fixed system instruction and does
// no retry or fallback of its own: failure isolation is the caller's job.
//
// Usage:
//
//	rp := rephrase.New(rephrase.Config{
//	    Endpoint: "https://api.openai.com",
//	    APIKey:   os.Getenv("OPENAI_API_KEY"),
//	    Model:    "gpt-4o-mini",
//	})
//	out, err := rp.Rephrase(ctx, "Hello world")
package rephrase

import (
	"context"
	"log/slog"
	"time"
)

// DefaultSystemPrompt is the fixed instruction sent with every request.
const DefaultSystemPrompt = "Rephrase into natural, human-readable sentences or phrases, under 100 words."

// Rephraser rewrites a piece of prose.
type Rephraser interface {
	// Rephrase returns a rewritten version of text. The input is already
	// trimmed of surrounding whitespace.
	Rephrase(ctx context.Context, text string) (string, error)

	// Model returns the model name.
	Model() string
}

// Config configures the rephrasing client.
type Config struct {
	// Endpoint is the base URL of the chat-completions server.
	// If empty, New returns a no-op identity Rephraser.
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// APIKey is sent as a Bearer token when non-empty.
	APIKey string `json:"api_key" yaml:"api_key"`

	// Model is the model name sent in the request.
	Model string `json:"model" yaml:"model"`

	// SystemPrompt overrides DefaultSystemPrompt.
	SystemPrompt string `json:"system_prompt" yaml:"system_prompt"`

	// Timeout per HTTP request. Default: 60s.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// Logger for debug/error messages. Defaults to slog.Default().
	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.SystemPrompt == "" {
		c.SystemPrompt = DefaultSystemPrompt
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// New creates a Rephraser from config. If Endpoint is empty, returns a no-op
// Rephraser that echoes its input — useful for dry runs and tests.
func New(cfg Config) Rephraser {
	cfg.defaults()
	if cfg.Endpoint == "" {
		return &noopRephraser{model: cfg.Model}
	}
	return newOpenAIClient(cfg)
}

// noopRephraser returns the input unchanged.
type noopRephraser struct {
	model string
}

func (n *noopRephraser) Rephrase(_ context.Context, text string) (string, error) {
	return text, nil
}

func (n *noopRephraser) Model() string { return n.model }
