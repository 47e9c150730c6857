// Package filter implements the vision primitives the cartoon styles are
// built from. Every function is pure: it reads its input and allocates a new
// output, so independent calls can run concurrently.
package filter

import (
	"math"

	"github.com/anthonynsimon/bild/parallel"
	"github.com/ds124wfegd/cartoonizer/internal/pkg/raster"
)

// Bilateral smooths src while keeping strong edges. Each output pixel is the
// average of its neighbours inside a disc of diameter d, weighted by spatial
// distance (sigmaSpace) and by the L1 color distance (sigmaColor).
// Borders are replicated.
func Bilateral(src *raster.Buffer, d int, sigmaColor, sigmaSpace float64) *raster.Buffer {
	if sigmaColor <= 0 {
		sigmaColor = 1
	}
	if sigmaSpace <= 0 {
		sigmaSpace = 1
	}
	radius := d / 2
	if d <= 0 {
		radius = int(math.Round(sigmaSpace * 1.5))
	}
	if radius < 1 {
		radius = 1
	}

	type tap struct {
		dx, dy int
		w      float64
	}
	var taps []tap
	spaceCoeff := -0.5 / (sigmaSpace * sigmaSpace)
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			r2 := float64(dx*dx + dy*dy)
			if math.Sqrt(r2) > float64(radius) {
				continue
			}
			taps = append(taps, tap{dx: dx, dy: dy, w: math.Exp(r2 * spaceCoeff)})
		}
	}

	// L1 distance over three channels never exceeds 3*255.
	colorCoeff := -0.5 / (sigmaColor * sigmaColor)
	colorWeight := make([]float64, 3*255+1)
	for i := range colorWeight {
		colorWeight[i] = math.Exp(float64(i*i) * colorCoeff)
	}

	w, h := src.Width, src.Height
	dst := raster.New(w, h)

	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < w; x++ {
				c := src.Offset(x, y)
				b0, g0, r0 := int(src.Pix[c]), int(src.Pix[c+1]), int(src.Pix[c+2])

				var sb, sg, sr, sw float64
				for _, t := range taps {
					n := src.Offset(clamp(x+t.dx, 0, w-1), clamp(y+t.dy, 0, h-1))
					b, g, r := int(src.Pix[n]), int(src.Pix[n+1]), int(src.Pix[n+2])
					wt := t.w * colorWeight[abs(b-b0)+abs(g-g0)+abs(r-r0)]
					sb += wt * float64(b)
					sg += wt * float64(g)
					sr += wt * float64(r)
					sw += wt
				}
				dst.Pix[c] = toByte(sb / sw)
				dst.Pix[c+1] = toByte(sg / sw)
				dst.Pix[c+2] = toByte(sr / sw)
			}
		}
	})

	return dst
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// toByte rounds and saturates a sample to the 8-bit range.
func toByte(v float64) uint8 {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
