// Package cartoon defines the cartoon styles, the ordered registry they live
// in and the converter that runs an image through all of them.
package cartoon

import (
	"fmt"
	"strings"

	"github.com/ds124wfegd/cartoonizer/internal/entity"
	"github.com/ds124wfegd/cartoonizer/internal/pkg/raster"
)

// Pipeline turns one buffer into a new buffer of the same shape.
// Implementations must not modify src.
type Pipeline interface {
	Apply(src *raster.Buffer) (*raster.Buffer, error)
}

// PipelineFunc adapts a plain function to Pipeline.
type PipelineFunc func(src *raster.Buffer) (*raster.Buffer, error)

func (f PipelineFunc) Apply(src *raster.Buffer) (*raster.Buffer, error) {
	return f(src)
}

// Style couples a stable name with its presentation caption and pipeline.
// Identifiers and file names are derived from Name only.
type Style struct {
	Name     string
	Caption  string
	Pipeline Pipeline
}

func (s Style) ID() string {
	return Slug(s.Name)
}

func (s Style) Filename() string {
	return Filename(s.Name)
}

// Slug lower-cases label and replaces spaces with underscores.
func Slug(label string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(label)), " ", "_")
}

func Filename(label string) string {
	return Slug(label) + ".png"
}

// Registry is an ordered, read-only list of styles. Its order is the
// processing, display and archive order.
type Registry struct {
	styles []Style
	index  map[string]int
}

func NewRegistry(styles ...Style) (*Registry, error) {
	r := &Registry{
		styles: make([]Style, 0, len(styles)),
		index:  make(map[string]int, len(styles)),
	}
	for _, s := range styles {
		id := s.ID()
		if id == "" || s.Pipeline == nil {
			return nil, fmt.Errorf("style %q: name and pipeline are required", s.Name)
		}
		if id == OriginalLabel {
			return nil, fmt.Errorf("%w: %q is reserved", entity.ErrDuplicateStyle, id)
		}
		if _, ok := r.index[id]; ok {
			return nil, fmt.Errorf("%w: %q", entity.ErrDuplicateStyle, id)
		}
		r.index[id] = len(r.styles)
		r.styles = append(r.styles, s)
	}
	return r, nil
}

// Styles returns a copy of the registered styles in order.
func (r *Registry) Styles() []Style {
	out := make([]Style, len(r.styles))
	copy(out, r.styles)
	return out
}

func (r *Registry) Lookup(id string) (Style, bool) {
	i, ok := r.index[Slug(id)]
	if !ok {
		return Style{}, false
	}
	return r.styles[i], true
}

func (r *Registry) Len() int {
	return len(r.styles)
}
