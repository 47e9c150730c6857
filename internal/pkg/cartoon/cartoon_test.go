package cartoon

import (
	"context"
	"errors"
	"image/color"
	"sync/atomic"
	"testing"

	"github.com/ds124wfegd/cartoonizer/internal/entity"
	"github.com/ds124wfegd/cartoonizer/internal/pkg/raster"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fillBuffer returns a w x h buffer of one color
func fillBuffer(w, h int, c color.RGBA) *raster.Buffer {
	buf := raster.New(w, h)
	buf.Fill(c)
	return buf
}

// gradientBuffer returns a buffer with a diagonal color ramp and a bright square
func gradientBuffer(w, h int) *raster.Buffer {
	buf := raster.New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			buf.Set(x, y, uint8(x*255/w), uint8(y*255/h), uint8((x+y)*127/(w+h)))
			if x > w/3 && x < 2*w/3 && y > h/3 && y < 2*h/3 {
				buf.Set(x, y, 240, 240, 240)
			}
		}
	}
	return buf
}

func TestDefaultRegistryOrder(t *testing.T) {
	r := DefaultRegistry()

	var ids, files []string
	for _, s := range r.Styles() {
		ids = append(ids, s.ID())
		files = append(files, s.Filename())
	}

	assert.Equal(t, []string{
		"edge_preserving", "color_quantization", "stylization", "pencil_sketch", "advanced_cartoon",
	}, ids)
	assert.Equal(t, []string{
		"edge_preserving.png", "color_quantization.png", "stylization.png", "pencil_sketch.png", "advanced_cartoon.png",
	}, files)

	s, ok := r.Lookup("Pencil Sketch")
	require.True(t, ok)
	assert.Equal(t, "✏️ Pencil Sketch", s.Caption)
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	identity := PipelineFunc(func(src *raster.Buffer) (*raster.Buffer, error) { return src.Clone(), nil })

	tests := []struct {
		name   string
		styles []Style
	}{
		{
			name: "same name twice",
			styles: []Style{
				{Name: "Flat", Pipeline: identity},
				{Name: "flat", Pipeline: identity},
			},
		},
		{
			name:   "reserved original label",
			styles: []Style{{Name: "Original", Pipeline: identity}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.styles...)
			assert.ErrorIs(t, err, entity.ErrDuplicateStyle)
		})
	}

	_, err := NewRegistry(Style{Name: "No Pipeline"})
	assert.Error(t, err)
}

func TestPipelinesPreserveShape(t *testing.T) {
	inputs := []struct {
		name string
		src  *raster.Buffer
	}{
		{name: "gradient 24x16", src: gradientBuffer(24, 16)},
		{name: "minimal 2x2", src: gradientBuffer(2, 2)},
		{name: "tall 3x11", src: gradientBuffer(3, 11)},
	}

	for _, s := range SeededRegistry(11).Styles() {
		for _, in := range inputs {
			t.Run(s.ID()+"/"+in.name, func(t *testing.T) {
				before := in.src.Clone()

				out, err := s.Pipeline.Apply(in.src)
				require.NoError(t, err)

				assert.Equal(t, in.src.Width, out.Width)
				assert.Equal(t, in.src.Height, out.Height)
				assert.Len(t, out.Pix, in.src.Width*in.src.Height*raster.Channels)
				assert.Equal(t, before.Pix, in.src.Pix, "input must not be modified")
			})
		}
	}
}

func TestPipelinesRejectInvalidInput(t *testing.T) {
	bad := []*raster.Buffer{
		nil,
		{},
		raster.New(1, 1),
		{Width: 4, Height: 4, Pix: make([]uint8, 16)},
	}

	for _, s := range DefaultRegistry().Styles() {
		for _, b := range bad {
			_, err := s.Pipeline.Apply(b)
			assert.ErrorIs(t, err, entity.ErrUnsupportedImage, s.ID())
		}
	}
}

func TestUniformImagesHaveNoOutlines(t *testing.T) {
	colors := map[string]color.RGBA{
		"black": {0, 0, 0, 255},
		"white": {255, 255, 255, 255},
	}
	pipelines := map[string]Pipeline{
		"edge_preserving":    PipelineFunc(EdgePreserving),
		"color_quantization": ColorQuantization(5),
	}

	for cname, c := range colors {
		for pname, p := range pipelines {
			t.Run(pname+"/"+cname, func(t *testing.T) {
				src := fillBuffer(12, 10, c)

				out, err := p.Apply(src)
				require.NoError(t, err)

				allOriginal := assert.ObjectsAreEqual(src.Pix, out.Pix)
				allBlack := true
				for _, v := range out.Pix {
					if v != 0 {
						allBlack = false
						break
					}
				}
				assert.True(t, allOriginal || allBlack, "output must be entirely the input color or entirely black")
				assert.True(t, allOriginal, "a flat image produces no edges, so the mask is fully on")
			})
		}
	}
}

func TestConvert(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		t.Run(map[bool]string{false: "sequential", true: "parallel"}[parallel], func(t *testing.T) {
			conv := NewConverter(SeededRegistry(3), WithParallel(parallel))
			src := gradientBuffer(16, 12)

			rs, err := conv.Convert(context.Background(), src)
			require.NoError(t, err)

			require.Equal(t, 6, rs.Len())
			assert.Equal(t, []string{
				"original", "edge_preserving", "color_quantization", "stylization", "pencil_sketch", "advanced_cartoon",
			}, rs.Labels())

			orig, ok := rs.Get("original")
			require.True(t, ok)
			assert.True(t, orig.Original)
			assert.NotSame(t, src, orig.Image)
			assert.Equal(t, src.Pix, orig.Image.Pix)
			assert.Len(t, rs.Styles(), 5)
			for _, r := range rs.Styles() {
				assert.True(t, r.Image.SameShape(src), r.Label)
				assert.Equal(t, r.Label+".png", r.Filename)
			}
		})
	}
}

func TestConvertOriginalIsDetachedFromInput(t *testing.T) {
	src := gradientBuffer(8, 6)
	want := src.Clone()

	rs, err := NewConverter(SeededRegistry(2)).Convert(context.Background(), src)
	require.NoError(t, err)

	src.Fill(color.RGBA{0, 0, 0, 255})

	orig, ok := rs.Get(OriginalLabel)
	require.True(t, ok)
	assert.Equal(t, want.Pix, orig.Image.Pix)
}

func TestConvertRepeatedRunsKeepShapeAndLabels(t *testing.T) {
	conv := NewConverter(DefaultRegistry())
	src := gradientBuffer(10, 10)

	first, err := conv.Convert(context.Background(), src)
	require.NoError(t, err)
	second, err := conv.Convert(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, first.Labels(), second.Labels())
	for i, e := range first.Entries() {
		assert.True(t, e.Image.SameShape(second.Entries()[i].Image))
	}
}

func TestConvertFailsFast(t *testing.T) {
	boom := errors.New("filter exploded")
	var after atomic.Int32

	identity := PipelineFunc(func(src *raster.Buffer) (*raster.Buffer, error) { return src.Clone(), nil })
	registry, err := NewRegistry(
		Style{Name: "First", Pipeline: identity},
		Style{Name: "Broken", Pipeline: PipelineFunc(func(*raster.Buffer) (*raster.Buffer, error) { return nil, boom })},
		Style{Name: "Last", Pipeline: PipelineFunc(func(src *raster.Buffer) (*raster.Buffer, error) {
			after.Add(1)
			return src.Clone(), nil
		})},
	)
	require.NoError(t, err)

	rs, err := NewConverter(registry).Convert(context.Background(), gradientBuffer(4, 4))

	assert.Nil(t, rs)
	require.ErrorIs(t, err, boom)
	var perr *PipelineError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "broken", perr.Style)
	assert.Equal(t, int32(0), after.Load(), "styles after a failure must not run")
}

func TestConvertRejectsShapeChange(t *testing.T) {
	registry, err := NewRegistry(Style{Name: "Shrink", Pipeline: PipelineFunc(func(*raster.Buffer) (*raster.Buffer, error) {
		return raster.New(2, 2), nil
	})})
	require.NoError(t, err)

	_, err = NewConverter(registry, WithParallel(true)).Convert(context.Background(), gradientBuffer(4, 4))

	var perr *PipelineError
	assert.ErrorAs(t, err, &perr)
}

func TestConvertInvalidInput(t *testing.T) {
	_, err := NewConverter(DefaultRegistry()).Convert(context.Background(), raster.New(1, 5))

	assert.ErrorIs(t, err, entity.ErrUnsupportedImage)
	assert.ErrorIs(t, err, entity.ErrImageTooSmall)
}

func TestConvertCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewConverter(DefaultRegistry()).Convert(ctx, gradientBuffer(4, 4))

	assert.ErrorIs(t, err, context.Canceled)
}

func TestConvertStyle(t *testing.T) {
	conv := NewConverter(SeededRegistry(1))

	res, err := conv.ConvertStyle(context.Background(), gradientBuffer(8, 8), "stylization")
	require.NoError(t, err)
	assert.Equal(t, "stylization", res.Label)
	assert.Equal(t, "✨ Stylization", res.Caption)

	_, err = conv.ConvertStyle(context.Background(), gradientBuffer(8, 8), "watercolor")
	assert.ErrorIs(t, err, entity.ErrUnknownStyle)
}

func TestConvertLogsToContextLogger(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	ctx := ContextWithLogger(context.Background(), logger.WithField("request_id", "abc"))

	_, err := NewConverter(SeededRegistry(1)).Convert(ctx, gradientBuffer(6, 4))
	require.NoError(t, err)

	entries := hook.AllEntries()
	require.Len(t, entries, 5)
	for _, e := range entries {
		assert.Equal(t, "abc", e.Data["request_id"])
		assert.Contains(t, e.Data, "style")
	}
}
