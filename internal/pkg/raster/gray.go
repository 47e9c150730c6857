package raster

import (
	"image"
	"image/draw"
)

// Gray is a single-channel 8-bit plane, used for luminance and masks.
type Gray struct {
	Width  int
	Height int
	Pix    []uint8
}

func NewGray(width, height int) *Gray {
	return &Gray{Width: width, Height: height, Pix: make([]uint8, width*height)}
}

// GrayFromImage takes the luminance of img. For images produced by gray
// filters this is the shared R=G=B value.
func GrayFromImage(img image.Image) *Gray {
	b := img.Bounds()
	g, ok := img.(*image.Gray)
	if !ok || g.Rect.Min != (image.Point{}) || g.Stride != b.Dx() {
		g = image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(g, g.Bounds(), img, b.Min, draw.Src)
	}
	out := NewGray(b.Dx(), b.Dy())
	copy(out.Pix, g.Pix)
	return out
}

func (g *Gray) Image() *image.Gray {
	return &image.Gray{
		Pix:    g.Pix,
		Stride: g.Width,
		Rect:   image.Rect(0, 0, g.Width, g.Height),
	}
}

// Expand replicates the plane into all three channels.
func (g *Gray) Expand() *Buffer {
	out := New(g.Width, g.Height)
	for i, v := range g.Pix {
		out.Pix[i*3], out.Pix[i*3+1], out.Pix[i*3+2] = v, v, v
	}
	return out
}
