package rewrite

import "log/slog"

// Config configures a rewrite Pipeline.
type Config struct {
	// TextLimit is the number of text nodes that may be rephrased per run.
	// Zero disables text rewriting.
	TextLimit int `json:"text_limit" yaml:"text_limit"`

	// ImageLimit is the number of images that may be regenerated per run.
	// Zero disables all image processing: no resolution, no normalization,
	// no file writes.
	ImageLimit int `json:"image_limit" yaml:"image_limit"`

	// ImageTag is the element tag treated as an image reference
	// (default: "img").
	ImageTag string `json:"image_tag" yaml:"image_tag"`

	// SrcAttr is the attribute carrying the image's source reference
	// (default: "src").
	SrcAttr string `json:"src_attr" yaml:"src_attr"`

	// Logger for progress and skip reporting. Defaults to slog.Default().
	Logger *slog.Logger `json:"-" yaml:"-"`
}

// DefaultConfig returns the deployment defaults: 30 text rewrites, image
// processing disabled.
func DefaultConfig() Config {
	return Config{TextLimit: 30, ImageLimit: 0}
}

func (c *Config) defaults() {
	if c.TextLimit < 0 {
		c.TextLimit = 0
	}
	if c.ImageLimit < 0 {
		c.ImageLimit = 0
	}
	if c.ImageTag == "" {
		c.ImageTag = "img"
	}
	if c.SrcAttr == "" {
		c.SrcAttr = "src"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
