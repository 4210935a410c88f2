// Package imagecheck enforces the upload limits for product images.
package imagecheck

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
)

const (
	MinWidth  = 400
	MinHeight = 400
	MaxWidth  = 800
	MaxHeight = 800
	// MaxSize is 3 MiB.
	MaxSize int64 = 3145728
)

var (
	ErrInvalidImage      = errors.New("invalid image")
	ErrTooLarge          = fmt.Errorf("%w: image must be at most 3 MB", ErrInvalidImage)
	ErrUnsupported       = fmt.Errorf("%w: unsupported image format", ErrInvalidImage)
	ErrResolutionTooLow  = fmt.Errorf("%w: image resolution is below the minimum of %dx%d", ErrInvalidImage, MinWidth, MinHeight)
	ErrResolutionTooHigh = fmt.Errorf("%w: image resolution is above the maximum of %dx%d", ErrInvalidImage, MaxWidth, MaxHeight)
)

type Dimensions struct {
	Width  int
	Height int
	Format string
}

func (d Dimensions) ContentType() string {
	return "image/" + d.Format
}

// Validate checks the declared byte size first, then the decoded resolution.
// Only the image header is read from r.
func Validate(r io.Reader, size int64) (Dimensions, error) {
	if size > MaxSize {
		return Dimensions{}, ErrTooLarge
	}

	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		return Dimensions{}, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	d := Dimensions{Width: cfg.Width, Height: cfg.Height, Format: format}
	if d.Width < MinWidth || d.Height < MinHeight {
		return d, ErrResolutionTooLow
	}
	if d.Width > MaxWidth || d.Height > MaxHeight {
		return d, ErrResolutionTooHigh
	}
	return d, nil
}
