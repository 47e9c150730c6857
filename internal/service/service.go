package service

import (
	"context"
	"io"
	"time"

	"github.com/ds124wfegd/cartoonizer/internal/entity"
	"github.com/ds124wfegd/cartoonizer/internal/pkg/cartoon"
	"github.com/ds124wfegd/cartoonizer/internal/pkg/codec"
	"github.com/ds124wfegd/cartoonizer/internal/pkg/kafka"
	"github.com/ds124wfegd/cartoonizer/internal/pkg/packager"
)

type ConversionService interface {
	Styles() []entity.StyleInfo
	Convert(ctx context.Context, id string, file io.Reader) (*Conversion, error)
	ConvertArchive(ctx context.Context, id string, file io.Reader) (*Conversion, error)
	ConvertStyle(ctx context.Context, id string, file io.Reader, style string) (*Conversion, error)
}

// Conversion is the outcome of one request. Files holds the encoded PNGs,
// Archive the zip when one was asked for.
type Conversion struct {
	ID       string
	Info     codec.Info
	Results  *cartoon.ResultSet
	Files    []packager.File
	Archive  []byte
	Duration time.Duration
	labels   []string
	started  time.Time
}

type conversionService struct {
	converter *cartoon.Converter
	producer  kafka.Producer
	limits    codec.Limits
}

func NewConversionService(converter *cartoon.Converter, producer kafka.Producer, limits codec.Limits) ConversionService {
	return &conversionService{
		converter: converter,
		producer:  producer,
		limits:    limits,
	}
}
