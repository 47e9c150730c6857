package cartoon

import (
	"fmt"

	"github.com/ds124wfegd/cartoonizer/internal/pkg/raster"
)

const (
	OriginalLabel   = "original"
	OriginalCaption = "🖼️ Original"
)

// Result is one labelled image of a conversion.
type Result struct {
	Label    string
	Caption  string
	Filename string
	Original bool
	Image    *raster.Buffer
}

// ResultSet is the outcome of one conversion: the original first, then one
// entry per style in registry order. It is never modified after Convert.
type ResultSet struct {
	entries []Result
	index   map[string]int
}

func newResultSet(entries []Result) *ResultSet {
	rs := &ResultSet{entries: entries, index: make(map[string]int, len(entries))}
	for i, e := range entries {
		rs.index[e.Label] = i
	}
	return rs
}

func (rs *ResultSet) Len() int {
	return len(rs.entries)
}

// Entries returns a copy of all results in order.
func (rs *ResultSet) Entries() []Result {
	out := make([]Result, len(rs.entries))
	copy(out, rs.entries)
	return out
}

// Styles returns the non-original results in order.
func (rs *ResultSet) Styles() []Result {
	out := make([]Result, 0, len(rs.entries))
	for _, e := range rs.entries {
		if !e.Original {
			out = append(out, e)
		}
	}
	return out
}

func (rs *ResultSet) Get(label string) (Result, bool) {
	i, ok := rs.index[Slug(label)]
	if !ok {
		return Result{}, false
	}
	return rs.entries[i], true
}

func (rs *ResultSet) Labels() []string {
	out := make([]string, len(rs.entries))
	for i, e := range rs.entries {
		out[i] = e.Label
	}
	return out
}

func (rs *ResultSet) String() string {
	return fmt.Sprintf("ResultSet%v", rs.Labels())
}

func originalResult(img *raster.Buffer) Result {
	return Result{
		Label:    OriginalLabel,
		Caption:  OriginalCaption,
		Filename: Filename(OriginalLabel),
		Original: true,
		Image:    img.Clone(),
	}
}

func styleResult(s Style, img *raster.Buffer) Result {
	return Result{
		Label:    s.ID(),
		Caption:  s.Caption,
		Filename: s.Filename(),
		Image:    img,
	}
}
