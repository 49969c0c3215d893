// Package imaging converts arbitrary raster images into PNGs that fit under
// a hard byte-size ceiling.
//
// The convergence loop is geometric: while the encoded PNG exceeds the
// ceiling, the image is rescaled to 90% of its current width (height follows
// to preserve aspect ratio) and re-encoded. The loop is bounded by a maximum
// pass count and a minimum-dimension floor; hitting either bound while still
// over the ceiling is reported as an error rather than looping forever.
//
// Usage:
//
//	norm := imaging.New(imaging.Config{})
//	res, err := norm.Normalize(ctx, jpegBytes)
//	// res.PNG is guaranteed to be <= 4 MiB
package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"

	"golang.org/x/image/draw"

	_ "image/gif"  // decoder registration
	_ "image/jpeg" // decoder registration

	_ "golang.org/x/image/bmp"  // decoder registration
	_ "golang.org/x/image/tiff" // decoder registration
	_ "golang.org/x/image/webp" // decoder registration
)

// ErrCeiling is returned when the shrink loop hit its pass or dimension
// bound with the encoding still above the size ceiling.
var ErrCeiling = errors.New("imaging: cannot converge under size ceiling")

// Config configures a Normalizer.
type Config struct {
	// SizeCeiling is the maximum encoded PNG size in bytes (default: 4 MiB).
	SizeCeiling int `json:"size_ceiling" yaml:"size_ceiling"`

	// MaxPasses bounds the shrink loop (default: 24).
	MaxPasses int `json:"max_passes" yaml:"max_passes"`

	// MinDimension is the smallest width or height the loop may shrink to
	// (default: 16).
	MinDimension int `json:"min_dimension" yaml:"min_dimension"`

	// Logger for debug messages.
	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.SizeCeiling <= 0 {
		c.SizeCeiling = 4 << 20
	}
	if c.MaxPasses <= 0 {
		c.MaxPasses = 24
	}
	if c.MinDimension <= 0 {
		c.MinDimension = 16
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Normalized is the result of a successful normalization.
type Normalized struct {
	PNG    []byte
	Width  int
	Height int
	Passes int // number of shrink passes performed
}

// Normalizer converts images to size-bounded PNGs.
type Normalizer struct {
	cfg Config
}

// New creates a Normalizer with the given configuration.
func New(cfg Config) *Normalizer {
	cfg.defaults()
	return &Normalizer{cfg: cfg}
}

// Normalize decodes src, encodes it as PNG, and downscales until the encoded
// size is at or below the ceiling. Width is monotonically non-increasing
// across passes and aspect ratio is preserved within rounding.
func (n *Normalizer) Normalize(ctx context.Context, src []byte) (*Normalized, error) {
	img, format, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	encoded, err := encodePNG(img)
	if err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}

	passes := 0
	for len(encoded) > n.cfg.SizeCeiling {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if passes >= n.cfg.MaxPasses {
			return nil, fmt.Errorf("%w: %d bytes after %d passes", ErrCeiling, len(encoded), passes)
		}

		b := img.Bounds()
		w := b.Dx() * 9 / 10
		h := b.Dy() * w / b.Dx()
		if w < n.cfg.MinDimension || h < n.cfg.MinDimension {
			return nil, fmt.Errorf("%w: %dx%d at dimension floor, still %d bytes",
				ErrCeiling, b.Dx(), b.Dy(), len(encoded))
		}

		img = rescale(img, w, h)
		encoded, err = encodePNG(img)
		if err != nil {
			return nil, fmt.Errorf("encode png (pass %d): %w", passes+1, err)
		}
		passes++
	}

	b := img.Bounds()
	n.cfg.Logger.Debug("image normalized",
		"format", format, "width", b.Dx(), "height", b.Dy(),
		"bytes", len(encoded), "passes", passes)

	return &Normalized{
		PNG:    encoded,
		Width:  b.Dx(),
		Height: b.Dy(),
		Passes: passes,
	}, nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func rescale(img image.Image, w, h int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}
