// Package algo has the numeric building blocks of the risk engine: the
// isolation forest, quantiles and ranking.
package algo

import (
	"errors"
	"math"
	"math/rand/v2"

	"github.com/careai/careai/schema"
)

// Default isolation forest parameters.
const (
	DefaultTrees         = 200
	DefaultContamination = 0.12
	DefaultSeed          = 42
	DefaultMaxSamples    = 256
)

// eulerGamma is the Euler-Mascheroni constant.
const eulerGamma = 0.5772156649015329

var (
	// ErrInsufficientSamples is returned when there are too few rows to fit a forest.
	ErrInsufficientSamples = errors.New("insufficient samples to fit isolation forest")

	// ErrNotFitted is returned when scoring with a forest that has no trees.
	ErrNotFitted = errors.New("isolation forest is not fitted")
)

// Options configures an isolation forest.
type Options struct {
	Trees         int
	Contamination float64 // fraction of training rows below the decision offset
	Seed          uint64
	MaxSamples    int
}

// DefaultOptions returns the standard forest configuration.
func DefaultOptions() Options {
	return Options{
		Trees:         DefaultTrees,
		Contamination: DefaultContamination,
		Seed:          DefaultSeed,
		MaxSamples:    DefaultMaxSamples,
	}
}

// node is either a split (left != nil) or a leaf holding the number of
// training rows that reached it.
type node struct {
	feature   int
	threshold float64
	left      *node
	right     *node
	size      int
}

// Forest is a fitted isolation forest.
type Forest struct {
	trees     []*node
	subsample int
	offset    float64
	dims      int
}

// Fit builds an isolation forest over a patient series using ModelFeatures.
func Fit(series schema.Series, opts Options) (*Forest, error) {
	return FitMatrix(series.Matrix(), opts)
}

// FitMatrix builds an isolation forest over the rows of x.
// The same rows and options always produce the same forest.
func FitMatrix(x [][]float64, opts Options) (*Forest, error) {
	if len(x) < 2 {
		return nil, ErrInsufficientSamples
	}
	if opts.Trees <= 0 {
		opts.Trees = DefaultTrees
	}
	if opts.MaxSamples <= 0 {
		opts.MaxSamples = DefaultMaxSamples
	}

	n := len(x)
	subsample := min(opts.MaxSamples, n)
	heightLimit := int(math.Ceil(math.Log2(float64(subsample))))
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed))

	f := &Forest{
		trees:     make([]*node, 0, opts.Trees),
		subsample: subsample,
		dims:      len(x[0]),
	}
	for range opts.Trees {
		idx := rng.Perm(n)[:subsample]
		f.trees = append(f.trees, grow(x, idx, 0, heightLimit, rng))
	}

	f.offset = Quantile(f.ScoreSamples(x), opts.Contamination)
	return f, nil
}

// grow recursively partitions the rows in idx until they are isolated,
// constant, or the height limit is reached.
func grow(x [][]float64, idx []int, depth, limit int, rng *rand.Rand) *node {
	if depth >= limit || len(idx) <= 1 {
		return &node{size: len(idx)}
	}

	dims := len(x[idx[0]])
	lows := make([]float64, dims)
	highs := make([]float64, dims)
	copy(lows, x[idx[0]])
	copy(highs, x[idx[0]])
	for _, i := range idx[1:] {
		for d, v := range x[i] {
			lows[d] = math.Min(lows[d], v)
			highs[d] = math.Max(highs[d], v)
		}
	}

	var candidates []int
	for d := range dims {
		if highs[d] > lows[d] {
			candidates = append(candidates, d)
		}
	}
	if len(candidates) == 0 {
		return &node{size: len(idx)}
	}

	feature := candidates[rng.IntN(len(candidates))]
	threshold := lows[feature] + rng.Float64()*(highs[feature]-lows[feature])

	var left, right []int
	for _, i := range idx {
		if x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &node{
		feature:   feature,
		threshold: threshold,
		left:      grow(x, left, depth+1, limit, rng),
		right:     grow(x, right, depth+1, limit, rng),
		size:      len(idx),
	}
}

// pathLength is the depth at which row lands plus the expected remaining
// depth for the rows that shared its leaf.
func (n *node) pathLength(row []float64) float64 {
	depth := 0
	cur := n
	for cur.left != nil {
		if row[cur.feature] <= cur.threshold {
			cur = cur.left
		} else {
			cur = cur.right
		}
		depth++
	}
	return float64(depth) + averagePathLength(cur.size)
}

// averagePathLength is the average path length of an unsuccessful search
// in a binary search tree of n nodes.
func averagePathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	}
	fn := float64(n)
	return 2*(math.Log(fn-1)+eulerGamma) - 2*(fn-1)/fn
}

// Offset is the decision offset calibrated from the training rows.
func (f *Forest) Offset() float64 {
	return f.offset
}

// Trees is the number of trees in the forest.
func (f *Forest) Trees() int {
	return len(f.trees)
}

// ScoreSamples returns the raw anomaly score -2^(-E[h(x)]/c(subsample)) of each row.
// Values lie in [-1, 0); lower is more anomalous.
func (f *Forest) ScoreSamples(x [][]float64) []float64 {
	norm := averagePathLength(f.subsample)
	out := make([]float64, len(x))
	for i, row := range x {
		var total float64
		for _, t := range f.trees {
			total += t.pathLength(row)
		}
		mean := total / float64(len(f.trees))
		if norm == 0 {
			out[i] = -0.5
			continue
		}
		out[i] = -math.Pow(2, -mean/norm)
	}
	return out
}

// DecisionFunction returns the offset-adjusted score of each row.
// Positive values are inliers and negative values are outliers.
func (f *Forest) DecisionFunction(x [][]float64) ([]float64, error) {
	if f == nil || len(f.trees) == 0 {
		return nil, ErrNotFitted
	}
	for _, row := range x {
		if len(row) != f.dims {
			return nil, errors.New("row width does not match fitted feature count")
		}
	}
	raw := f.ScoreSamples(x)
	for i := range raw {
		raw[i] -= f.offset
	}
	return raw, nil
}

// Score returns the decision value of each record in series.
func (f *Forest) Score(series schema.Series) ([]float64, error) {
	return f.DecisionFunction(series.Matrix())
}
