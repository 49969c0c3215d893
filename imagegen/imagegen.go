// Package imagegen requests AI-generated variations of a source image from an
// OpenAI-compatible images API.
//
// The capability is two-step by contract: the variations call returns a
// retrieval locator (a URL), and the final image bytes come from a second
// fetch against that locator. Both steps live behind the one Regenerate call.
//
// Usage:
//
//	gen := imagegen.New(imagegen.Config{
//	    Endpoint: "https://api.openai.com",
//	    APIKey:   os.Getenv("OPENAI_API_KEY"),
//	})
//	out, err := gen.Regenerate(ctx, pngBytes)
package imagegen

import (
	"context"
	"log/slog"
	"time"
)

// Regenerator produces a replacement image derived from a source image.
type Regenerator interface {
	// Regenerate takes normalized PNG bytes and returns the bytes of one
	// generated variation.
	Regenerate(ctx context.Context, png []byte) ([]byte, error)
}

// Config configures the image generation client.
type Config struct {
	// Endpoint is the base URL of the images API server.
	// If empty, New returns a no-op Regenerator that echoes its input.
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// APIKey is sent as a Bearer token when non-empty.
	APIKey string `json:"api_key" yaml:"api_key"`

	// Size is the requested variation resolution. Default: "256x256".
	Size string `json:"size" yaml:"size"`

	// Timeout per HTTP request (applies to the variations call and the
	// locator fetch independently). Default: 120s.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// Logger for debug/error messages. Defaults to slog.Default().
	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.Size == "" {
		c.Size = "256x256"
	}
	if c.Timeout <= 0 {
		c.Timeout = 120 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// New creates a Regenerator from config. If Endpoint is empty, returns a
// no-op Regenerator that returns its input unchanged.
func New(cfg Config) Regenerator {
	cfg.defaults()
	if cfg.Endpoint == "" {
		return &noopRegenerator{}
	}
	return newOpenAIClient(cfg)
}

// noopRegenerator echoes the source bytes.
type noopRegenerator struct{}

func (n *noopRegenerator) Regenerate(_ context.Context, png []byte) ([]byte, error) {
	return png, nil
}
