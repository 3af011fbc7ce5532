package ml

import (
	"math"
	"math/rand"
)

// SGDOptions configures TrainSGD. Zero values take the defaults below.
type SGDOptions struct {
	Alpha         float64 // L2 strength, default 1e-4
	MaxIter       int     // epochs, default 1000
	Tol           float64 // stop when an epoch improves loss by less than Tol*n, default 1e-3
	NIterNoChange int     // epochs without improvement before stopping, default 5
	Seed          int64   // shuffle seed, default 42
	// Progress, when set, is called after each epoch of each binary model.
	Progress func(class, epoch int)
}

func (o SGDOptions) withDefaults() SGDOptions {
	if o.Alpha <= 0 {
		o.Alpha = 1e-4
	}
	if o.MaxIter <= 0 {
		o.MaxIter = 1000
	}
	if o.Tol <= 0 {
		o.Tol = 1e-3
	}
	if o.NIterNoChange <= 0 {
		o.NIterNoChange = 5
	}
	if o.Seed == 0 {
		o.Seed = 42
	}
	return o
}

// The intercept moves slower than the weights on sparse input.
const sparseInterceptDecay = 0.01

// Linear is a one-vs-rest linear classifier.
type Linear struct {
	Weights    [][]float64
	Intercepts []float64
}

// modifiedHuber loss and its derivative for margin z = p*y.
func modifiedHuber(p, y float64) float64 {
	z := p * y
	switch {
	case z >= 1:
		return 0
	case z >= -1:
		return (1 - z) * (1 - z)
	default:
		return -4 * z
	}
}

func modifiedHuberGrad(p, y float64) float64 {
	z := p * y
	switch {
	case z >= 1:
		return 0
	case z >= -1:
		return -2 * (1 - z) * y
	default:
		return -4 * y
	}
}

// TrainSGD fits one binary modified-huber model per class. labels[i] is the
// class index of X[i].
func TrainSGD(X []Vector, labels []int, nClasses, dim int, opts SGDOptions) *Linear {
	opts = opts.withDefaults()
	m := &Linear{
		Weights:    make([][]float64, nClasses),
		Intercepts: make([]float64, nClasses),
	}
	for k := 0; k < nClasses; k++ {
		y := make([]float64, len(labels))
		for i, l := range labels {
			y[i] = -1
			if l == k {
				y[i] = 1
			}
		}
		// Every binary problem sees the same shuffles.
		rng := rand.New(rand.NewSource(opts.Seed))
		m.Weights[k], m.Intercepts[k] = fitBinary(X, y, dim, opts, rng, func(epoch int) {
			if opts.Progress != nil {
				opts.Progress(k, epoch)
			}
		})
	}
	return m
}

func fitBinary(X []Vector, y []float64, dim int, opts SGDOptions, rng *rand.Rand, progress func(int)) ([]float64, float64) {
	w := make([]float64, dim)
	scale := 1.0
	var b float64

	// "optimal" schedule: eta = 1 / (alpha * (t0 + t)).
	typw := math.Sqrt(1 / math.Sqrt(opts.Alpha))
	eta0 := typw / math.Max(1, math.Abs(modifiedHuberGrad(-typw, 1)))
	t0 := 1 / (eta0 * opts.Alpha)

	order := make([]int, len(X))
	for i := range order {
		order[i] = i
	}

	bestLoss := math.Inf(1)
	noImprove := 0
	t := 1.0
	n := float64(len(X))
	for epoch := 0; epoch < opts.MaxIter; epoch++ {
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		var sumLoss float64
		for _, i := range order {
			x := X[i]
			p := x.Dot(w)*scale + b
			eta := 1 / (opts.Alpha * (t0 + t - 1))
			sumLoss += modifiedHuber(p, y[i])
			update := -eta * modifiedHuberGrad(p, y[i])

			scale *= math.Max(0, 1-eta*opts.Alpha)
			if scale < 1e-9 {
				for j := range w {
					w[j] *= scale
				}
				scale = 1
			}
			if update != 0 {
				for _, f := range x {
					w[f.Index] += update * f.Value / scale
				}
				b += update * sparseInterceptDecay
			}
			t++
		}
		progress(epoch)

		if sumLoss > bestLoss-opts.Tol*n {
			noImprove++
		} else {
			noImprove = 0
		}
		if sumLoss < bestLoss {
			bestLoss = sumLoss
		}
		if noImprove >= opts.NIterNoChange {
			break
		}
	}
	for j := range w {
		w[j] *= scale
	}
	return w, b
}

// Decision returns the raw score of every class.
func (m *Linear) Decision(x Vector) []float64 {
	out := make([]float64, len(m.Weights))
	for k := range m.Weights {
		out[k] = x.Dot(m.Weights[k]) + m.Intercepts[k]
	}
	return out
}

// Proba converts decision scores into probabilities the way the
// modified-huber loss allows: clip to [-1, 1], shift to [0, 1], normalise.
// All-zero rows become uniform.
func Proba(scores []float64) []float64 {
	out := make([]float64, len(scores))
	var sum float64
	for i, s := range scores {
		out[i] = (math.Max(-1, math.Min(1, s)) + 1) / 2
		sum += out[i]
	}
	for i := range out {
		if sum == 0 {
			out[i] = 1 / float64(len(out))
		} else {
			out[i] /= sum
		}
	}
	return out
}

func argmax(xs []float64) int {
	best := 0
	for i, x := range xs {
		if x > xs[best] {
			best = i
		}
	}
	return best
}
