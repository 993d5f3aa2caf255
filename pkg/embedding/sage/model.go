package sage

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

const numClasses = 2

// Model is a two-layer mean-aggregation encoder with a linear classifier
// head. Layer l computes ReLU(H·Wself + mean_N(H)·Wneigh + b).
type Model struct {
	InputDim   int
	Hidden     int
	Dimensions int

	W1Self, W1Neigh, B1 *mat.Dense
	W2Self, W2Neigh, B2 *mat.Dense
	WOut, BOut          *mat.Dense
}

var paramNames = []string{"w1_self", "w1_neigh", "b1", "w2_self", "w2_neigh", "b2", "w_out", "b_out"}

func (m *Model) params() []*mat.Dense {
	return []*mat.Dense{m.W1Self, m.W1Neigh, m.B1, m.W2Self, m.W2Neigh, m.B2, m.WOut, m.BOut}
}

// newModel initialises weights with Glorot uniform and biases with zero.
func newModel(inputDim int, cfg Config, rng *rand.Rand) *Model {
	glorot := func(in, out int) *mat.Dense {
		limit := math.Sqrt(6 / float64(in+out))
		data := make([]float64, in*out)
		for i := range data {
			data[i] = (rng.Float64()*2 - 1) * limit
		}
		return mat.NewDense(in, out, data)
	}
	return &Model{
		InputDim:   inputDim,
		Hidden:     cfg.Hidden,
		Dimensions: cfg.Dimensions,
		W1Self:     glorot(inputDim, cfg.Hidden),
		W1Neigh:    glorot(inputDim, cfg.Hidden),
		B1:         mat.NewDense(1, cfg.Hidden, nil),
		W2Self:     glorot(cfg.Hidden, cfg.Dimensions),
		W2Neigh:    glorot(cfg.Hidden, cfg.Dimensions),
		B2:         mat.NewDense(1, cfg.Dimensions, nil),
		WOut:       glorot(cfg.Dimensions, numClasses),
		BOut:       mat.NewDense(1, numClasses, nil),
	}
}

// meanAgg averages neighbour rows. Nodes without neighbours aggregate to 0.
type meanAgg struct {
	adj [][]int
}

// forward computes A·H where A is the row-normalised adjacency.
func (a meanAgg) forward(h *mat.Dense) *mat.Dense {
	_, c := h.Dims()
	out := mat.NewDense(len(a.adj), c, nil)
	for i, nbrs := range a.adj {
		if len(nbrs) == 0 {
			continue
		}
		row := out.RawRowView(i)
		for _, j := range nbrs {
			for k, v := range h.RawRowView(j) {
				row[k] += v
			}
		}
		inv := 1 / float64(len(nbrs))
		for k := range row {
			row[k] *= inv
		}
	}
	return out
}

// backward computes Aᵀ·G.
func (a meanAgg) backward(g *mat.Dense) *mat.Dense {
	_, c := g.Dims()
	out := mat.NewDense(len(a.adj), c, nil)
	for i, nbrs := range a.adj {
		if len(nbrs) == 0 {
			continue
		}
		inv := 1 / float64(len(nbrs))
		src := g.RawRowView(i)
		for _, j := range nbrs {
			dst := out.RawRowView(j)
			for k, v := range src {
				dst[k] += v * inv
			}
		}
	}
	return out
}

// pass caches the activations of one forward pass.
type pass struct {
	x, ax  *mat.Dense
	z1, h1 *mat.Dense
	ah1    *mat.Dense
	z2, h2 *mat.Dense
	probs  *mat.Dense
}

func affine(x, ax, wSelf, wNeigh, b *mat.Dense) *mat.Dense {
	var z, n mat.Dense
	z.Mul(x, wSelf)
	n.Mul(ax, wNeigh)
	z.Add(&z, &n)
	addBias(&z, b)
	return &z
}

func addBias(z, b *mat.Dense) {
	r, _ := z.Dims()
	bias := b.RawRowView(0)
	for i := 0; i < r; i++ {
		row := z.RawRowView(i)
		for k := range row {
			row[k] += bias[k]
		}
	}
}

func relu(z *mat.Dense) *mat.Dense {
	var h mat.Dense
	h.Apply(func(_, _ int, v float64) float64 { return math.Max(0, v) }, z)
	return &h
}

func softmaxRows(z *mat.Dense) *mat.Dense {
	r, c := z.Dims()
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		in, row := z.RawRowView(i), out.RawRowView(i)
		peak := in[0]
		for _, v := range in[1:] {
			peak = math.Max(peak, v)
		}
		sum := 0.0
		for k, v := range in {
			row[k] = math.Exp(v - peak)
			sum += row[k]
		}
		for k := range row {
			row[k] /= sum
		}
	}
	return out
}

func (m *Model) forward(agg meanAgg, x *mat.Dense) *pass {
	p := &pass{x: x, ax: agg.forward(x)}
	p.z1 = affine(p.x, p.ax, m.W1Self, m.W1Neigh, m.B1)
	p.h1 = relu(p.z1)
	p.ah1 = agg.forward(p.h1)
	p.z2 = affine(p.h1, p.ah1, m.W2Self, m.W2Neigh, m.B2)
	p.h2 = relu(p.z2)

	var logits mat.Dense
	logits.Mul(p.h2, m.WOut)
	addBias(&logits, m.BOut)
	p.probs = softmaxRows(&logits)
	return p
}

// loss is the mean cross-entropy over the train rows.
func (p *pass) loss(train []int, labels []int) float64 {
	sum := 0.0
	for _, i := range train {
		sum -= math.Log(math.Max(p.probs.At(i, labels[i]), 1e-12))
	}
	return sum / float64(len(train))
}

// backward returns gradients in params() order.
func (m *Model) backward(agg meanAgg, p *pass, train []int, labels []int) []*mat.Dense {
	n, _ := p.probs.Dims()
	dLogits := mat.NewDense(n, numClasses, nil)
	scale := 1 / float64(len(train))
	for _, i := range train {
		for k := 0; k < numClasses; k++ {
			v := p.probs.At(i, k)
			if k == labels[i] {
				v--
			}
			dLogits.Set(i, k, v*scale)
		}
	}

	var dWOut, dH2 mat.Dense
	dWOut.Mul(p.h2.T(), dLogits)
	dBOut := colSum(dLogits)
	dH2.Mul(dLogits, m.WOut.T())

	dZ2 := reluGrad(&dH2, p.z2)
	var dW2Self, dW2Neigh mat.Dense
	dW2Self.Mul(p.h1.T(), dZ2)
	dW2Neigh.Mul(p.ah1.T(), dZ2)
	dB2 := colSum(dZ2)

	var dH1, viaNeigh mat.Dense
	dH1.Mul(dZ2, m.W2Self.T())
	viaNeigh.Mul(dZ2, m.W2Neigh.T())
	dH1.Add(&dH1, agg.backward(&viaNeigh))

	dZ1 := reluGrad(&dH1, p.z1)
	var dW1Self, dW1Neigh mat.Dense
	dW1Self.Mul(p.x.T(), dZ1)
	dW1Neigh.Mul(p.ax.T(), dZ1)
	dB1 := colSum(dZ1)

	return []*mat.Dense{&dW1Self, &dW1Neigh, dB1, &dW2Self, &dW2Neigh, dB2, &dWOut, dBOut}
}

func reluGrad(dh, z *mat.Dense) *mat.Dense {
	var out mat.Dense
	out.Apply(func(i, j int, v float64) float64 {
		if z.At(i, j) > 0 {
			return v
		}
		return 0
	}, dh)
	return &out
}

func colSum(g *mat.Dense) *mat.Dense {
	r, c := g.Dims()
	out := mat.NewDense(1, c, nil)
	sum := out.RawRowView(0)
	for i := 0; i < r; i++ {
		for k, v := range g.RawRowView(i) {
			sum[k] += v
		}
	}
	return out
}

// checkInput verifies that x has the width the model was trained on.
func (m *Model) checkInput(x *mat.Dense) error {
	if _, c := x.Dims(); c != m.InputDim {
		return fmt.Errorf("%w: got %d input features, model expects %d", ErrDimensionMismatch, c, m.InputDim)
	}
	return nil
}
