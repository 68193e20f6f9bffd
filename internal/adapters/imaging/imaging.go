// Package imaging probes image dimensions and renders PNG thumbnails.
// PNG, JPEG, GIF, BMP, TIFF and WebP inputs are recognized.
package imaging

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/Overland-East-Bay/trip-journal-api/internal/ports/out/imageprobe"
)

// Prober reads only the image header.
type Prober struct{}

func NewProber() Prober { return Prober{} }

func (Prober) Probe(ctx context.Context, r io.Reader) (imageprobe.Dimensions, error) {
	if err := ctx.Err(); err != nil {
		return imageprobe.Dimensions{}, err
	}
	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return imageprobe.Dimensions{}, fmt.Errorf("%w: %v", imageprobe.ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return imageprobe.Dimensions{}, fmt.Errorf("%w: empty image", imageprobe.ErrDecode)
	}
	return imageprobe.Dimensions{Width: cfg.Width, Height: cfg.Height}, nil
}

// Thumbnailer renders a PNG that fits in maxDim x maxDim, preserving aspect ratio.
// Images already within bounds are re-encoded at their original size.
type Thumbnailer struct{}

func NewThumbnailer() Thumbnailer { return Thumbnailer{} }

func (Thumbnailer) Thumbnail(ctx context.Context, r io.Reader, maxDim int, w io.Writer) error {
	if maxDim <= 0 {
		return fmt.Errorf("thumbnail size must be positive, got %d", maxDim)
	}
	img, _, err := image.Decode(r)
	if err != nil {
		return fmt.Errorf("%w: %v", imageprobe.ErrDecode, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	thumb := resize.Thumbnail(uint(maxDim), uint(maxDim), img, resize.Lanczos3)
	if err := png.Encode(w, thumb); err != nil {
		return fmt.Errorf("encode thumbnail: %w", err)
	}
	return nil
}

var (
	_ imageprobe.Prober      = Prober{}
	_ imageprobe.Thumbnailer = Thumbnailer{}
)
