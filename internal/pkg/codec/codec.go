// Package codec turns uploaded bytes into raster buffers and buffers back
// into PNG streams.
package codec

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/disintegration/imaging"
	"github.com/ds124wfegd/cartoonizer/internal/entity"
	"github.com/ds124wfegd/cartoonizer/internal/pkg/raster"
	"github.com/gabriel-vasile/mimetype"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Limits caps what Decode accepts. Zero values disable a check.
type Limits struct {
	MaxBytes  int64
	MaxPixels int64
}

// DefaultLimits keeps one decoded image plus its five renditions well
// below a gigabyte of samples.
var DefaultLimits = Limits{
	MaxBytes:  20 << 20,
	MaxPixels: 16_000_000,
}

// Info describes a decoded upload.
type Info struct {
	Format   string
	MIME     string
	Width    int
	Height   int
	Size     int
	Checksum string
}

var supportedMIME = []string{
	"image/jpeg",
	"image/png",
	"image/webp",
	"image/bmp",
	"image/gif",
}

// SupportedMIME lists the accepted upload types.
func SupportedMIME() []string {
	out := make([]string, len(supportedMIME))
	copy(out, supportedMIME)
	return out
}

// Decode reads one raster image from r and converts it to a BGR buffer.
func Decode(r io.Reader, limits Limits) (*raster.Buffer, Info, error) {
	var info Info

	reader := r
	if limits.MaxBytes > 0 {
		reader = io.LimitReader(r, limits.MaxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, info, fmt.Errorf("read upload: %w", err)
	}
	if limits.MaxBytes > 0 && int64(len(data)) > limits.MaxBytes {
		return nil, info, fmt.Errorf("%w: upload exceeds %d bytes", entity.ErrImageTooLarge, limits.MaxBytes)
	}
	if len(data) == 0 {
		return nil, info, fmt.Errorf("%w: empty upload", entity.ErrUnsupportedImage)
	}

	info.Size = len(data)
	info.Checksum = Checksum(data)

	mtype := mimetype.Detect(data)
	info.MIME = mtype.String()
	if !mimetype.EqualsAny(mtype.String(), supportedMIME...) {
		return nil, info, fmt.Errorf("%w: content type %s", entity.ErrUnsupportedImage, mtype.String())
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, info, fmt.Errorf("%w: %v", entity.ErrUnsupportedImage, err)
	}
	info.Format = format
	if limits.MaxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > limits.MaxPixels {
		return nil, info, fmt.Errorf("%w: %dx%d exceeds %d pixels",
			entity.ErrImageTooLarge, cfg.Width, cfg.Height, limits.MaxPixels)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, info, fmt.Errorf("%w: %v", entity.ErrUnsupportedImage, err)
	}

	buf, err := raster.FromImage(img)
	if err != nil {
		return nil, info, err
	}
	info.Width, info.Height = buf.Width, buf.Height
	return buf, info, nil
}

// EncodePNG writes buf as a lossless PNG with the encoder defaults.
func EncodePNG(w io.Writer, buf *raster.Buffer) error {
	if err := buf.Validate(); err != nil {
		return err
	}
	return imaging.Encode(w, buf.Image(), imaging.PNG)
}

// Checksum is the hex xxhash64 of data, used as upload fingerprint and ETag.
func Checksum(data []byte) string {
	return strconv.FormatUint(xxhash.Sum64(data), 16)
}
