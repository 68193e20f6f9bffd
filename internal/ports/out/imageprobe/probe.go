package imageprobe

import (
	"context"
	"errors"
	"io"
)

// ErrDecode indicates the content is not a decodable image.
var ErrDecode = errors.New("image decode failed")

// Dimensions is the pixel size of an image.
type Dimensions struct {
	Width  int
	Height int
}

// Prober reads image dimensions without decoding the full image where possible.
type Prober interface {
	Probe(ctx context.Context, r io.Reader) (Dimensions, error)
}

// Thumbnailer renders a bounded-size PNG rendition of an image.
type Thumbnailer interface {
	Thumbnail(ctx context.Context, r io.Reader, maxDim int, w io.Writer) error
}
