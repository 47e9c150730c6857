package filter

import (
	"math"

	"github.com/anthonynsimon/bild/parallel"
	"github.com/ds124wfegd/cartoonizer/internal/pkg/raster"
)

const domainTransformIterations = 3

// planes is a float copy of a buffer, one slice per channel, values in [0,1].
type planes struct {
	w, h int
	c    [raster.Channels][]float64
}

func toPlanes(src *raster.Buffer) *planes {
	p := &planes{w: src.Width, h: src.Height}
	n := src.Width * src.Height
	for ch := range p.c {
		p.c[ch] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for ch := 0; ch < raster.Channels; ch++ {
			p.c[ch][i] = float64(src.Pix[i*3+ch]) / 255
		}
	}
	return p
}

func (p *planes) buffer() *raster.Buffer {
	dst := raster.New(p.w, p.h)
	for i := 0; i < p.w*p.h; i++ {
		for ch := 0; ch < raster.Channels; ch++ {
			dst.Pix[i*3+ch] = toByte(p.c[ch][i] * 255)
		}
	}
	return dst
}

// domainTransform smooths img with the recursive domain-transform filter.
// sigmaS controls the spatial extent of the smoothing and sigmaR how strongly
// color differences stop it.
func domainTransform(img *planes, sigmaS, sigmaR float64) *planes {
	w, h := img.w, img.h
	ratio := sigmaS / sigmaR

	// Domain derivatives are taken once on the input and reused by every
	// iteration.
	dHdx := make([]float64, w*h)
	dVdy := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			if x > 0 {
				sum := 0.0
				for ch := range img.c {
					sum += math.Abs(img.c[ch][i] - img.c[ch][i-1])
				}
				dHdx[i] = 1 + ratio*sum
			}
			if y > 0 {
				sum := 0.0
				for ch := range img.c {
					sum += math.Abs(img.c[ch][i] - img.c[ch][i-w])
				}
				dVdy[i] = 1 + ratio*sum
			}
		}
	}

	out := &planes{w: w, h: h}
	for ch := range img.c {
		out.c[ch] = append([]float64(nil), img.c[ch]...)
	}

	n := float64(domainTransformIterations)
	for it := 0; it < domainTransformIterations; it++ {
		sigmaH := sigmaS * math.Sqrt(3) * math.Pow(2, n-float64(it)-1) / math.Sqrt(math.Pow(4, n)-1)
		a := math.Exp(-math.Sqrt2 / sigmaH)

		parallel.Line(h, func(start, end int) {
			for y := start; y < end; y++ {
				recursivePass(out, dHdx, a, y*w, 1, w)
			}
		})
		parallel.Line(w, func(start, end int) {
			for x := start; x < end; x++ {
				recursivePass(out, dVdy, a, x, w, h)
			}
		})
	}
	return out
}

// recursivePass runs the causal and anti-causal first-order filter along one
// line of n samples starting at base with the given stride.
func recursivePass(p *planes, deriv []float64, a float64, base, stride, n int) {
	for ch := range p.c {
		f := p.c[ch]
		for k := 1; k < n; k++ {
			i := base + k*stride
			v := math.Pow(a, deriv[i])
			f[i] += v * (f[i-stride] - f[i])
		}
		for k := n - 2; k >= 0; k-- {
			i := base + k*stride
			v := math.Pow(a, deriv[i+stride])
			f[i] += v * (f[i+stride] - f[i])
		}
	}
}

// Stylize produces a painterly rendition: an edge-preserving smoothing pass
// followed by darkening along the normalized gradient magnitude.
// A flat image has no gradient and comes back unchanged.
func Stylize(src *raster.Buffer, sigmaS, sigmaR float64) *raster.Buffer {
	smooth := domainTransform(toPlanes(src), sigmaS, sigmaR)
	w, h := smooth.w, smooth.h

	mag := make([]float64, w*h)
	lo, hi := math.Inf(1), math.Inf(-1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var gx, gy float64
			for ch := range smooth.c {
				sx, sy := sobel(smooth.c[ch], w, h, x, y)
				gx += sx
				gy += sy
			}
			m := math.Hypot(gx, gy)
			mag[y*w+x] = m
			lo = math.Min(lo, m)
			hi = math.Max(hi, m)
		}
	}

	span := hi - lo
	for i := range mag {
		edge := 0.0
		if span > 0 {
			edge = (mag[i] - lo) / span
		}
		for ch := range smooth.c {
			smooth.c[ch][i] *= 1 - edge
		}
	}
	return smooth.buffer()
}

// sobel returns the 3x3 Sobel derivatives of plane f at (x, y) with
// replicated borders.
func sobel(f []float64, w, h, x, y int) (float64, float64) {
	at := func(dx, dy int) float64 {
		return f[clamp(y+dy, 0, h-1)*w+clamp(x+dx, 0, w-1)]
	}
	gx := (at(1, -1) + 2*at(1, 0) + at(1, 1)) - (at(-1, -1) + 2*at(-1, 0) + at(-1, 1))
	gy := (at(-1, 1) + 2*at(0, 1) + at(1, 1)) - (at(-1, -1) + 2*at(0, -1) + at(1, -1))
	return gx, gy
}
