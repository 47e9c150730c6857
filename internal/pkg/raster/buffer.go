// Package raster holds the in-memory pixel buffers shared by the filters,
// the style pipelines and the codec.
package raster

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/ds124wfegd/cartoonizer/internal/entity"
)

const (
	// Channels is the number of interleaved samples per pixel.
	Channels = 3
	// MinSide is the smallest accepted width or height.
	MinSide = 2
)

// Buffer is a 3-channel 8-bit image stored row-major in B, G, R order.
type Buffer struct {
	Width  int
	Height int
	Pix    []uint8
}

func New(width, height int) *Buffer {
	return &Buffer{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*Channels),
	}
}

// FromImage converts any decoded image into a BGR buffer. Alpha is dropped
// without compositing.
func FromImage(img image.Image) (*Buffer, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", entity.ErrUnsupportedImage)
	}
	src := imaging.Clone(img)
	b := src.Bounds()

	buf := New(b.Dx(), b.Dy())
	if err := buf.Validate(); err != nil {
		return nil, err
	}

	for y := 0; y < buf.Height; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+buf.Width*4]
		out := buf.Pix[y*buf.Width*Channels : (y+1)*buf.Width*Channels]
		for x := 0; x < buf.Width; x++ {
			out[x*3+0] = row[x*4+2]
			out[x*3+1] = row[x*4+1]
			out[x*3+2] = row[x*4+0]
		}
	}
	return buf, nil
}

// Validate checks the buffer against the preconditions every pipeline relies on.
func (b *Buffer) Validate() error {
	if b == nil || b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("%w: empty buffer", entity.ErrUnsupportedImage)
	}
	if len(b.Pix) != b.Width*b.Height*Channels {
		return fmt.Errorf("%w: expected %d samples for %dx%dx%d, got %d",
			entity.ErrUnsupportedImage, b.Width*b.Height*Channels, b.Width, b.Height, Channels, len(b.Pix))
	}
	if b.Width < MinSide || b.Height < MinSide {
		return fmt.Errorf("%w: %w: %dx%d is below %dx%d",
			entity.ErrUnsupportedImage, entity.ErrImageTooSmall, b.Width, b.Height, MinSide, MinSide)
	}
	return nil
}

func (b *Buffer) Clone() *Buffer {
	out := &Buffer{Width: b.Width, Height: b.Height, Pix: make([]uint8, len(b.Pix))}
	copy(out.Pix, b.Pix)
	return out
}

func (b *Buffer) Offset(x, y int) int {
	return (y*b.Width + x) * Channels
}

// At returns the B, G, R samples at (x, y).
func (b *Buffer) At(x, y int) (uint8, uint8, uint8) {
	i := b.Offset(x, y)
	return b.Pix[i], b.Pix[i+1], b.Pix[i+2]
}

func (b *Buffer) Set(x, y int, blue, green, red uint8) {
	i := b.Offset(x, y)
	b.Pix[i], b.Pix[i+1], b.Pix[i+2] = blue, green, red
}

// Fill paints every pixel with the given RGB color.
func (b *Buffer) Fill(c color.RGBA) {
	for i := 0; i < len(b.Pix); i += Channels {
		b.Pix[i], b.Pix[i+1], b.Pix[i+2] = c.B, c.G, c.R
	}
}

// Image returns an opaque RGB view of the buffer, ready for encoding.
func (b *Buffer) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	for i, j := 0, 0; i < len(b.Pix); i, j = i+Channels, j+4 {
		img.Pix[j+0] = b.Pix[i+2]
		img.Pix[j+1] = b.Pix[i+1]
		img.Pix[j+2] = b.Pix[i+0]
		img.Pix[j+3] = 0xff
	}
	return img
}

// SameShape reports whether both buffers have identical dimensions.
func (b *Buffer) SameShape(o *Buffer) bool {
	return b.Width == o.Width && b.Height == o.Height && len(b.Pix) == len(o.Pix)
}
