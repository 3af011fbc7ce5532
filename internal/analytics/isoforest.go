package analytics

import (
	"math"
	"math/rand"
	"sort"

	"spendlens/internal/core"
)

// MinAnomalyRecords is the least history anomaly detection runs on.
const MinAnomalyRecords = 5

// IsolationForest scores one-dimensional values by how quickly random
// splits isolate them. Values isolated early are outliers.
type IsolationForest struct {
	Trees         int
	MaxSamples    int
	Contamination float64
	Seed          int64
}

// DefaultForest flags roughly the most unusual 5% of amounts.
func DefaultForest() IsolationForest {
	return IsolationForest{Trees: 100, MaxSamples: 256, Contamination: 0.05, Seed: 42}
}

// Anomalies returns the records whose amounts are outliers, in input order.
func (f IsolationForest) Anomalies(recs []core.Expense) []core.Expense {
	if len(recs) < MinAnomalyRecords {
		return nil
	}
	values := make([]float64, len(recs))
	for i, r := range recs {
		values[i] = r.Amount.Float()
	}
	var out []core.Expense
	for i, bad := range f.Outliers(values) {
		if bad {
			out = append(out, recs[i])
		}
	}
	return out
}

// Outliers marks values scoring below the contamination quantile.
// Identical values all score the same, so nothing is marked.
func (f IsolationForest) Outliers(values []float64) []bool {
	scores := f.Scores(values)
	offset := percentile(scores, 100*f.Contamination)
	out := make([]bool, len(values))
	for i, s := range scores {
		out[i] = s < offset
	}
	return out
}

// Scores returns the negated anomaly score of each value: lower is more
// anomalous, normal points sit near -0.5.
func (f IsolationForest) Scores(values []float64) []float64 {
	n := len(values)
	if n == 0 {
		return nil
	}
	psi := n
	if f.MaxSamples > 0 && psi > f.MaxSamples {
		psi = f.MaxSamples
	}
	limit := int(math.Ceil(math.Log2(math.Max(float64(psi), 2))))
	rng := rand.New(rand.NewSource(f.Seed))

	paths := make([]float64, n)
	for t := 0; t < f.Trees; t++ {
		perm := rng.Perm(n)[:psi]
		sample := make([]float64, psi)
		for i, p := range perm {
			sample[i] = values[p]
		}
		root := grow(sample, 0, limit, rng)
		for i, v := range values {
			paths[i] += root.pathLength(v, 0)
		}
	}

	norm := averagePath(psi)
	scores := make([]float64, n)
	for i := range paths {
		mean := paths[i] / float64(f.Trees)
		if norm == 0 {
			scores[i] = -0.5
			continue
		}
		scores[i] = -math.Pow(2, -mean/norm)
	}
	return scores
}

type isoNode struct {
	split       float64
	left, right *isoNode
	size        int
}

func grow(values []float64, depth, limit int, rng *rand.Rand) *isoNode {
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if depth >= limit || len(values) <= 1 || lo == hi {
		return &isoNode{size: len(values)}
	}
	split := lo + rng.Float64()*(hi-lo)
	var left, right []float64
	for _, v := range values {
		if v < split {
			left = append(left, v)
		} else {
			right = append(right, v)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return &isoNode{size: len(values)}
	}
	return &isoNode{
		split: split,
		left:  grow(left, depth+1, limit, rng),
		right: grow(right, depth+1, limit, rng),
	}
}

func (n *isoNode) pathLength(v float64, depth int) float64 {
	if n.left == nil {
		return float64(depth) + averagePath(n.size)
	}
	if v < n.split {
		return n.left.pathLength(v, depth+1)
	}
	return n.right.pathLength(v, depth+1)
}

// averagePath is the mean depth of an unsuccessful search in a binary
// search tree of n nodes.
func averagePath(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	}
	fn := float64(n)
	return 2*(math.Log(fn-1)+0.5772156649) - 2*(fn-1)/fn
}

// percentile interpolates linearly between closest ranks.
func percentile(xs []float64, p float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	pos := p / 100 * float64(len(s)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return s[lo]
	}
	return s[lo] + (s[hi]-s[lo])*(pos-float64(lo))
}
