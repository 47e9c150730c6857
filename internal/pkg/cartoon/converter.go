package cartoon

import (
	"context"
	"fmt"
	"time"

	"github.com/ds124wfegd/cartoonizer/internal/entity"
	"github.com/ds124wfegd/cartoonizer/internal/pkg/raster"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// PipelineError reports which style failed a conversion.
type PipelineError struct {
	Style string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("style %s: %v", e.Style, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

type Converter struct {
	registry *Registry
	parallel bool
	log      *logrus.Entry
}

type Option func(*Converter)

// WithParallel runs the styles concurrently. Results keep registry order.
func WithParallel(parallel bool) Option {
	return func(c *Converter) { c.parallel = parallel }
}

func WithLogger(log *logrus.Entry) Option {
	return func(c *Converter) { c.log = log }
}

type loggerKey struct{}

// ContextWithLogger attaches a request scoped logger that per-style log lines
// are written to instead of the converter's own.
func ContextWithLogger(ctx context.Context, log *logrus.Entry) context.Context {
	return context.WithValue(ctx, loggerKey{}, log)
}

func (c *Converter) logger(ctx context.Context) *logrus.Entry {
	if log, ok := ctx.Value(loggerKey{}).(*logrus.Entry); ok && log != nil {
		return log
	}
	return c.log
}

func NewConverter(registry *Registry, opts ...Option) *Converter {
	c := &Converter{
		registry: registry,
		log:      logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Converter) Registry() *Registry {
	return c.registry
}

// Convert runs img through every registered style. Any failure aborts the
// whole conversion; no partial ResultSet is returned.
func (c *Converter) Convert(ctx context.Context, img *raster.Buffer) (*ResultSet, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}

	styles := c.registry.Styles()
	outputs := make([]*raster.Buffer, len(styles))

	if c.parallel {
		g, gctx := errgroup.WithContext(ctx)
		for i, s := range styles {
			g.Go(func() error {
				out, err := c.apply(gctx, s, img)
				if err != nil {
					return err
				}
				outputs[i] = out
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i, s := range styles {
			out, err := c.apply(ctx, s, img)
			if err != nil {
				return nil, err
			}
			outputs[i] = out
		}
	}

	entries := make([]Result, 0, len(styles)+1)
	entries = append(entries, originalResult(img))
	for i, s := range styles {
		entries = append(entries, styleResult(s, outputs[i]))
	}
	return newResultSet(entries), nil
}

// ConvertStyle runs img through a single style.
func (c *Converter) ConvertStyle(ctx context.Context, img *raster.Buffer, id string) (Result, error) {
	s, ok := c.registry.Lookup(id)
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", entity.ErrUnknownStyle, id)
	}
	if err := img.Validate(); err != nil {
		return Result{}, err
	}
	out, err := c.apply(ctx, s, img)
	if err != nil {
		return Result{}, err
	}
	return styleResult(s, out), nil
}

func (c *Converter) apply(ctx context.Context, s Style, img *raster.Buffer) (*raster.Buffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	out, err := s.Pipeline.Apply(img)
	log := c.logger(ctx).WithFields(logrus.Fields{
		"style":    s.ID(),
		"duration": time.Since(start),
	})
	if err != nil {
		log.WithError(err).Error("Style failed")
		return nil, &PipelineError{Style: s.ID(), Err: err}
	}
	if out == nil || !out.SameShape(img) {
		log.Error("Style changed the image shape")
		return nil, &PipelineError{Style: s.ID(), Err: fmt.Errorf("output shape differs from %dx%d input", img.Width, img.Height)}
	}
	log.Debug("Style applied")
	return out, nil
}
