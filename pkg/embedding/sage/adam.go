package sage

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	adamBeta1   = 0.9
	adamBeta2   = 0.999
	adamEpsilon = 1e-8
)

// adam keeps first and second moment estimates per parameter. Weight decay
// is added to the gradient before the moment update.
type adam struct {
	lr, decay float64
	step      int
	m, v      []*mat.Dense
}

func newAdam(params []*mat.Dense, lr, decay float64) *adam {
	a := &adam{lr: lr, decay: decay}
	for _, p := range params {
		r, c := p.Dims()
		a.m = append(a.m, mat.NewDense(r, c, nil))
		a.v = append(a.v, mat.NewDense(r, c, nil))
	}
	return a
}

func (a *adam) update(params, grads []*mat.Dense) {
	a.step++
	c1 := 1 - math.Pow(adamBeta1, float64(a.step))
	c2 := 1 - math.Pow(adamBeta2, float64(a.step))

	for i, p := range params {
		r, c := p.Dims()
		pw, gw := p.RawMatrix(), grads[i].RawMatrix()
		mw, vw := a.m[i].RawMatrix(), a.v[i].RawMatrix()
		for row := 0; row < r; row++ {
			for col := 0; col < c; col++ {
				pi := row*pw.Stride + col
				g := gw.Data[row*gw.Stride+col] + a.decay*pw.Data[pi]
				mi := row*mw.Stride + col
				vi := row*vw.Stride + col
				mw.Data[mi] = adamBeta1*mw.Data[mi] + (1-adamBeta1)*g
				vw.Data[vi] = adamBeta2*vw.Data[vi] + (1-adamBeta2)*g*g
				pw.Data[pi] -= a.lr * (mw.Data[mi] / c1) / (math.Sqrt(vw.Data[vi]/c2) + adamEpsilon)
			}
		}
	}
}
