package cartoon

import (
	"github.com/ds124wfegd/cartoonizer/internal/pkg/filter"
	"github.com/ds124wfegd/cartoonizer/internal/pkg/raster"
)

const (
	bilateralDiameter = 9
	thresholdBlock    = 9
	kmeansAttempts    = 10
)

// EdgePreserving flattens texture with a bilateral filter and draws the
// outlines found on a median-blurred luminance in black.
func EdgePreserving(src *raster.Buffer) (*raster.Buffer, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	smooth := filter.Bilateral(src, bilateralDiameter, 75, 75)
	edges := filter.EdgeMask(smooth, 5, thresholdBlock, 2)
	color := filter.Bilateral(src, bilateralDiameter, 200, 200)
	return filter.MaskAnd(color, edges), nil
}

// ColorQuantization posterizes src to 8 colors and outlines it with edges
// taken from the original luminance.
func ColorQuantization(seed uint64) PipelineFunc {
	return func(src *raster.Buffer) (*raster.Buffer, error) {
		if err := src.Validate(); err != nil {
			return nil, err
		}
		quantized, err := filter.Quantize(src, filter.KMeansOptions{
			K:        8,
			Criteria: filter.DefaultCriteria,
			Attempts: kmeansAttempts,
			Seed:     seed,
		})
		if err != nil {
			return nil, err
		}
		edges := filter.EdgeMask(src, 5, thresholdBlock, 2)
		return filter.MaskAnd(quantized, edges), nil
	}
}

// Stylization is the painterly non-photorealistic filter, no outlines.
func Stylization(src *raster.Buffer) (*raster.Buffer, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	return filter.Stylize(src, 150, 0.25), nil
}

// PencilSketch keeps the gray sketch of the pencil filter.
func PencilSketch(src *raster.Buffer) (*raster.Buffer, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	return filter.PencilSketch(src, 60, 0.07, 0.05), nil
}

// AdvancedCartoon smooths three times, posterizes to 12 colors and outlines
// with a wider median and a stricter threshold than ColorQuantization.
func AdvancedCartoon(seed uint64) PipelineFunc {
	return func(src *raster.Buffer) (*raster.Buffer, error) {
		if err := src.Validate(); err != nil {
			return nil, err
		}
		smooth := src
		for i := 0; i < 3; i++ {
			smooth = filter.Bilateral(smooth, bilateralDiameter, 75, 75)
		}
		quantized, err := filter.Quantize(smooth, filter.KMeansOptions{
			K:        12,
			Criteria: filter.DefaultCriteria,
			Attempts: kmeansAttempts,
			Seed:     seed,
		})
		if err != nil {
			return nil, err
		}
		edges := filter.EdgeMask(src, 7, thresholdBlock, 3)
		return filter.MaskAnd(quantized, edges), nil
	}
}

// DefaultStyles lists the five cartoon styles in display order. A zero seed
// leaves the clustering styles nondeterministic.
func DefaultStyles(seed uint64) []Style {
	return []Style{
		{Name: "Edge Preserving", Caption: "🧩 Edge Preserving", Pipeline: PipelineFunc(EdgePreserving)},
		{Name: "Color Quantization", Caption: "🎯 Color Quantization", Pipeline: ColorQuantization(seed)},
		{Name: "Stylization", Caption: "✨ Stylization", Pipeline: PipelineFunc(Stylization)},
		{Name: "Pencil Sketch", Caption: "✏️ Pencil Sketch", Pipeline: PipelineFunc(PencilSketch)},
		{Name: "Advanced Cartoon", Caption: "🔥 Advanced Cartoon", Pipeline: AdvancedCartoon(seed)},
	}
}

func DefaultRegistry() *Registry {
	return SeededRegistry(0)
}

// SeededRegistry is DefaultRegistry with reproducible clustering.
func SeededRegistry(seed uint64) *Registry {
	r, err := NewRegistry(DefaultStyles(seed)...)
	if err != nil {
		// the built-in styles have unique names
		panic(err)
	}
	return r
}
