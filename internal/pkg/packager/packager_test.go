package packager

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"io"
	"strings"
	"testing"
	"unicode"

	"github.com/ds124wfegd/cartoonizer/internal/pkg/cartoon"
	"github.com/ds124wfegd/cartoonizer/internal/pkg/raster"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func convertSample(t *testing.T) *cartoon.ResultSet {
	t.Helper()
	src := raster.New(9, 7)
	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			src.Set(x, y, uint8(x*28), uint8(y*36), uint8((x*y)%256))
		}
	}
	rs, err := cartoon.NewConverter(cartoon.SeededRegistry(9)).Convert(context.Background(), src)
	require.NoError(t, err)
	return rs
}

func TestArchive(t *testing.T) {
	rs := convertSample(t)

	data, err := Archive(rs)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 5)

	names := map[string]bool{}
	for i, f := range zr.File {
		assert.False(t, names[f.Name], "duplicate entry %s", f.Name)
		names[f.Name] = true
		assert.False(t, strings.ContainsFunc(f.Name, unicode.IsSpace), f.Name)
		assert.Equal(t, zip.Deflate, f.Method)
		assert.Equal(t, rs.Styles()[i].Filename, f.Name)

		rc, err := f.Open()
		require.NoError(t, err)
		img, err := png.Decode(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())

		back, err := raster.FromImage(img)
		require.NoError(t, err)
		assert.Equal(t, rs.Styles()[i].Image.Pix, back.Pix, "png must be lossless")
	}
	assert.False(t, names["original.png"])
}

func TestFiles(t *testing.T) {
	rs := convertSample(t)

	tests := []struct {
		name            string
		includeOriginal bool
		want            []string
	}{
		{
			name: "styles only",
			want: []string{"edge_preserving.png", "color_quantization.png", "stylization.png", "pencil_sketch.png", "advanced_cartoon.png"},
		},
		{
			name:            "with original",
			includeOriginal: true,
			want:            []string{"original.png", "edge_preserving.png", "color_quantization.png", "stylization.png", "pencil_sketch.png", "advanced_cartoon.png"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, err := Files(rs, tt.includeOriginal)
			require.NoError(t, err)

			var names []string
			for _, f := range files {
				names = append(names, f.Name)
				assert.Equal(t, PNGContentType, f.ContentType)
				assert.NotEmpty(t, f.Caption)
				_, err := png.DecodeConfig(bytes.NewReader(f.Data))
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestEncodeResultFailure(t *testing.T) {
	_, err := EncodeResult(cartoon.Result{Label: "broken", Image: &raster.Buffer{}})

	var perr *PackagingError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "encode", perr.Op)
	assert.Equal(t, "broken", perr.Label)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestWriteArchiveFailure(t *testing.T) {
	err := WriteArchive(failingWriter{}, convertSample(t))

	var perr *PackagingError
	require.ErrorAs(t, err, &perr)
	assert.True(t, errors.Is(err, io.ErrClosedPipe))
}

func TestWriteZipRejectsDuplicates(t *testing.T) {
	var buf bytes.Buffer
	err := writeZip(&buf, []File{
		{Name: "a.png", Data: []byte{1}},
		{Name: "a.png", Data: []byte{2}},
	})

	var perr *PackagingError
	assert.ErrorAs(t, err, &perr)
}
