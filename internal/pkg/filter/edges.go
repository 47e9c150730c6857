package filter

import (
	"image"

	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/gift"
	"github.com/ds124wfegd/cartoonizer/internal/pkg/raster"
)

// Gray returns the BT.601 luminance of src.
func Gray(src *raster.Buffer) *raster.Gray {
	return drawGray(gift.New(gift.Grayscale()), src)
}

// GrayMedian converts src to luminance and applies a ksize x ksize median blur.
func GrayMedian(src *raster.Buffer, ksize int) *raster.Gray {
	return MedianBlur(Gray(src), ksize)
}

// MedianBlur applies a square ksize x ksize median filter to a gray plane.
func MedianBlur(src *raster.Gray, ksize int) *raster.Gray {
	g := gift.New(gift.Median(ksize, false))
	dst := image.NewGray(g.Bounds(src.Image().Bounds()))
	g.Draw(dst, src.Image())
	return raster.GrayFromImage(dst)
}

func drawGray(g *gift.GIFT, src *raster.Buffer) *raster.Gray {
	img := src.Image()
	dst := image.NewGray(g.Bounds(img.Bounds()))
	g.Draw(dst, img)
	return raster.GrayFromImage(dst)
}

// AdaptiveThresholdMean binarizes src against the mean of its blockSize
// neighbourhood: a pixel becomes 255 when it is brighter than mean-c, 0
// otherwise. Flat regions therefore stay fully on for any positive c.
func AdaptiveThresholdMean(src *raster.Gray, blockSize, c int) *raster.Gray {
	if blockSize < 3 {
		blockSize = 3
	}
	radius := float64(blockSize-1) / 2
	mean := blur.Box(src.Image(), radius)

	dst := raster.NewGray(src.Width, src.Height)
	for i, v := range src.Pix {
		// blur.Box keeps R=G=B for gray input.
		m := int(mean.Pix[i*4])
		if int(v) > m-c {
			dst.Pix[i] = 255
		}
	}
	return dst
}

// EdgeMask is the cartoon outline detector: luminance, median blur, then a
// mean adaptive threshold. Edges come out as 0, everything else as 255.
func EdgeMask(src *raster.Buffer, medianKsize, blockSize, c int) *raster.Gray {
	return AdaptiveThresholdMean(GrayMedian(src, medianKsize), blockSize, c)
}

// MaskAnd keeps the color of src where mask is non-zero and paints black
// elsewhere.
func MaskAnd(src *raster.Buffer, mask *raster.Gray) *raster.Buffer {
	dst := raster.New(src.Width, src.Height)
	for i, m := range mask.Pix {
		if m == 0 {
			continue
		}
		j := i * raster.Channels
		dst.Pix[j], dst.Pix[j+1], dst.Pix[j+2] = src.Pix[j], src.Pix[j+1], src.Pix[j+2]
	}
	return dst
}
