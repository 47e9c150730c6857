package filter

import (
	"github.com/anthonynsimon/bild/blend"
	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/ds124wfegd/cartoonizer/internal/pkg/raster"
)

// sketchStrokeRadius is the gaussian radius of the dodge blur; it sets how
// wide the pencil strokes along contours are.
const sketchStrokeRadius = 4

// PencilSketch simulates graphite shading. src is first flattened with the
// domain transform (sigmaS spatial extent, sigmaR range sigma) so fine
// texture does not turn into strokes. Its luminance is then color-dodged
// with a blurred negative of itself, which leaves paper white where the
// picture is flat and pencil strokes along the remaining contours. shade in
// [0, 0.1] pulls the original tone back in. The sketch is gray, replicated
// into all three channels.
func PencilSketch(src *raster.Buffer, sigmaS, sigmaR, shade float64) *raster.Buffer {
	smooth := domainTransform(toPlanes(src), sigmaS, sigmaR).buffer()
	gray := Gray(smooth)
	grayImg := gray.Image()

	negative := blur.Gaussian(effect.Invert(grayImg), sketchStrokeRadius)
	dodged := blend.ColorDodge(grayImg, negative)

	if shade < 0 {
		shade = 0
	}
	out := raster.NewGray(gray.Width, gray.Height)
	for i, g := range gray.Pix {
		v := float64(dodged.Pix[i*4])
		out.Pix[i] = toByte(v * (1 - shade + shade*float64(g)/255))
	}
	return out.Expand()
}
