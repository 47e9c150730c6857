package filter

import (
	"errors"
	"math"
	"math/rand/v2"

	"github.com/anthonynsimon/bild/parallel"
	"github.com/ds124wfegd/cartoonizer/internal/pkg/raster"
)

// Criteria stops the k-means refinement after MaxIter rounds or once no
// center moved further than Epsilon, whichever happens first.
type Criteria struct {
	MaxIter int
	Epsilon float64
}

// DefaultCriteria is used by the quantizing styles.
var DefaultCriteria = Criteria{MaxIter: 20, Epsilon: 0.001}

// KMeansOptions configures a clustering run. Seed 0 draws a fresh seed, so
// results are only reproducible when a seed is given.
type KMeansOptions struct {
	K        int
	Criteria Criteria
	Attempts int
	Seed     uint64
}

// Clusters is the best partition found over all attempts.
type Clusters struct {
	Labels      []int32
	Centers     [][3]float64
	Compactness float64
}

var errNoSamples = errors.New("kmeans: no samples")

// KMeans partitions the 3-dimensional samples (flattened, len%3 == 0) with
// Lloyd's algorithm. Each attempt starts from centers drawn uniformly inside
// the bounding box of the data; the attempt with the lowest compactness (sum
// of squared distances to the assigned center) wins. K is clamped to the
// number of samples.
func KMeans(samples []float32, opts KMeansOptions) (*Clusters, error) {
	n := len(samples) / 3
	if n == 0 || len(samples)%3 != 0 {
		return nil, errNoSamples
	}
	k := opts.K
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}
	attempts := opts.Attempts
	if attempts < 1 {
		attempts = 1
	}
	crit := opts.Criteria
	if crit.MaxIter < 1 {
		crit.MaxIter = DefaultCriteria.MaxIter
	}

	seed := opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	var lo, hi [3]float64
	for d := 0; d < 3; d++ {
		lo[d], hi[d] = math.Inf(1), math.Inf(-1)
	}
	for i := 0; i < n; i++ {
		for d := 0; d < 3; d++ {
			v := float64(samples[i*3+d])
			lo[d] = math.Min(lo[d], v)
			hi[d] = math.Max(hi[d], v)
		}
	}

	var best *Clusters
	for a := 0; a < attempts; a++ {
		km := &kmeansRun{
			samples: samples,
			n:       n,
			k:       k,
			labels:  make([]int32, n),
			dist:    make([]float64, n),
			centers: make([][3]float64, k),
		}
		for c := range km.centers {
			for d := 0; d < 3; d++ {
				km.centers[c][d] = lo[d] + rng.Float64()*(hi[d]-lo[d])
			}
		}

		km.assign()
		for iter := 0; iter < crit.MaxIter; iter++ {
			shift := km.update()
			km.assign()
			if shift <= crit.Epsilon {
				break
			}
		}

		compactness := 0.0
		for _, d := range km.dist {
			compactness += d
		}
		if best == nil || compactness < best.Compactness {
			best = &Clusters{Labels: km.labels, Centers: km.centers, Compactness: compactness}
		}
	}
	return best, nil
}

type kmeansRun struct {
	samples []float32
	n, k    int
	labels  []int32
	dist    []float64
	centers [][3]float64
}

// assign labels every sample with its nearest center. Ties go to the lower
// cluster index.
func (km *kmeansRun) assign() {
	parallel.Line(km.n, func(start, end int) {
		for i := start; i < end; i++ {
			s0, s1, s2 := float64(km.samples[i*3]), float64(km.samples[i*3+1]), float64(km.samples[i*3+2])
			bestC, bestD := 0, math.Inf(1)
			for c, ctr := range km.centers {
				d0, d1, d2 := s0-ctr[0], s1-ctr[1], s2-ctr[2]
				d := d0*d0 + d1*d1 + d2*d2
				if d < bestD {
					bestC, bestD = c, d
				}
			}
			km.labels[i] = int32(bestC)
			km.dist[i] = bestD
		}
	})
}

// update moves every center to the mean of its samples and returns the
// largest distance a center travelled. An empty cluster takes over the
// sample that is furthest from its own center.
func (km *kmeansRun) update() float64 {
	sums := make([][3]float64, km.k)
	counts := make([]int, km.k)
	for i := 0; i < km.n; i++ {
		c := km.labels[i]
		counts[c]++
		for d := 0; d < 3; d++ {
			sums[c][d] += float64(km.samples[i*3+d])
		}
	}

	for c := 0; c < km.k; c++ {
		if counts[c] > 0 {
			continue
		}
		far, farD := -1, -1.0
		for i := 0; i < km.n; i++ {
			if counts[km.labels[i]] > 1 && km.dist[i] > farD {
				far, farD = i, km.dist[i]
			}
		}
		if far < 0 {
			continue
		}
		old := km.labels[far]
		counts[old]--
		counts[c]++
		for d := 0; d < 3; d++ {
			v := float64(km.samples[far*3+d])
			sums[old][d] -= v
			sums[c][d] = v
		}
		km.labels[far] = int32(c)
		km.dist[far] = 0
	}

	maxShift := 0.0
	for c := 0; c < km.k; c++ {
		if counts[c] == 0 {
			continue
		}
		var next [3]float64
		shift := 0.0
		for d := 0; d < 3; d++ {
			next[d] = sums[c][d] / float64(counts[c])
			diff := next[d] - km.centers[c][d]
			shift += diff * diff
		}
		km.centers[c] = next
		maxShift = math.Max(maxShift, math.Sqrt(shift))
	}
	return maxShift
}

// Quantize replaces every pixel of src with the center color of its cluster.
func Quantize(src *raster.Buffer, opts KMeansOptions) (*raster.Buffer, error) {
	samples := make([]float32, len(src.Pix))
	for i, v := range src.Pix {
		samples[i] = float32(v)
	}

	clusters, err := KMeans(samples, opts)
	if err != nil {
		return nil, err
	}

	palette := make([][3]uint8, len(clusters.Centers))
	for c, ctr := range clusters.Centers {
		palette[c] = [3]uint8{toByte(ctr[0]), toByte(ctr[1]), toByte(ctr[2])}
	}

	dst := raster.New(src.Width, src.Height)
	for i, l := range clusters.Labels {
		p := palette[l]
		dst.Pix[i*3], dst.Pix[i*3+1], dst.Pix[i*3+2] = p[0], p[1], p[2]
	}
	return dst, nil
}
