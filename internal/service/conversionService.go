package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ds124wfegd/cartoonizer/internal/entity"
	"github.com/ds124wfegd/cartoonizer/internal/pkg/cartoon"
	"github.com/ds124wfegd/cartoonizer/internal/pkg/codec"
	"github.com/ds124wfegd/cartoonizer/internal/pkg/packager"
	"github.com/ds124wfegd/cartoonizer/internal/pkg/raster"
	"github.com/sirupsen/logrus"
)

func (s *conversionService) Styles() []entity.StyleInfo {
	styles := s.converter.Registry().Styles()
	out := make([]entity.StyleInfo, 0, len(styles))
	for _, st := range styles {
		out = append(out, entity.StyleInfo{
			ID:       st.ID(),
			Name:     st.Name,
			Caption:  st.Caption,
			Filename: st.Filename(),
		})
	}
	return out
}

// Convert returns the original and every style as PNG files.
func (s *conversionService) Convert(ctx context.Context, id string, file io.Reader) (*Conversion, error) {
	conv := newConversion(id)
	err := s.convert(ctx, conv, file)
	if err == nil {
		conv.Files, err = packager.Files(conv.Results, true)
	}
	return s.finish(ctx, conv, err)
}

// ConvertArchive returns the style results zipped into a single archive.
func (s *conversionService) ConvertArchive(ctx context.Context, id string, file io.Reader) (*Conversion, error) {
	conv := newConversion(id)
	err := s.convert(ctx, conv, file)
	if err == nil {
		conv.Archive, err = packager.Archive(conv.Results)
	}
	return s.finish(ctx, conv, err)
}

// ConvertStyle runs a single style. Unknown styles are rejected before the
// upload is read.
func (s *conversionService) ConvertStyle(ctx context.Context, id string, file io.Reader, style string) (*Conversion, error) {
	st, ok := s.converter.Registry().Lookup(style)
	if !ok {
		return nil, fmt.Errorf("%w: %q", entity.ErrUnknownStyle, style)
	}

	conv := newConversion(id)
	conv.labels = []string{st.ID()}

	buf, info, err := decodeUpload(file, s.limits)
	conv.Info = info
	if err == nil {
		err = s.convertStyle(ctx, conv, buf, st.ID())
	}
	return s.finish(ctx, conv, err)
}

func newConversion(id string) *Conversion {
	return &Conversion{ID: id, started: time.Now()}
}

func requestContext(ctx context.Context, id string) context.Context {
	return cartoon.ContextWithLogger(ctx, logrus.WithField("request_id", id))
}

func decodeUpload(file io.Reader, limits codec.Limits) (*raster.Buffer, codec.Info, error) {
	if file == nil {
		return nil, codec.Info{}, entity.ErrNoImageProvided
	}
	return codec.Decode(file, limits)
}

func (s *conversionService) convert(ctx context.Context, conv *Conversion, file io.Reader) error {
	buf, info, err := decodeUpload(file, s.limits)
	conv.Info = info
	if err != nil {
		return err
	}

	rs, err := s.converter.Convert(requestContext(ctx, conv.ID), buf)
	if err != nil {
		return err
	}
	conv.Results = rs
	conv.labels = rs.Labels()[1:]
	return nil
}

func (s *conversionService) convertStyle(ctx context.Context, conv *Conversion, buf *raster.Buffer, style string) error {
	result, err := s.converter.ConvertStyle(requestContext(ctx, conv.ID), buf, style)
	if err != nil {
		return err
	}
	f, err := packager.EncodeResult(result)
	if err != nil {
		return err
	}
	conv.Files = []packager.File{f}
	return nil
}

// finish logs and publishes the outcome. Publishing never fails a request.
func (s *conversionService) finish(ctx context.Context, conv *Conversion, err error) (*Conversion, error) {
	conv.Duration = time.Since(conv.started)

	event := entity.ConversionEvent{
		RequestID:  conv.ID,
		Checksum:   conv.Info.Checksum,
		Format:     conv.Info.Format,
		Width:      conv.Info.Width,
		Height:     conv.Info.Height,
		Styles:     conv.labels,
		Status:     entity.StatusCompleted,
		DurationMs: conv.Duration.Milliseconds(),
		Time:       time.Now().UTC(),
	}

	log := logrus.WithFields(logrus.Fields{
		"request_id": conv.ID,
		"checksum":   conv.Info.Checksum,
		"duration":   conv.Duration,
	})
	if err != nil {
		event.Status = entity.StatusFailed
		event.Error = err.Error()
		log.WithError(err).Warn("Conversion failed")
	} else {
		log.WithField("outputs", len(conv.Files)).Info("Conversion completed")
	}

	// the request context may already be done; the event still goes out
	if perr := s.producer.SendMessage(context.WithoutCancel(ctx), conv.ID, event); perr != nil {
		log.WithError(perr).Warn("Failed to publish conversion event")
	}

	if err != nil {
		return nil, err
	}
	return conv, nil
}
