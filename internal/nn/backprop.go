package nn

import (
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/mlp/internal/trace"
)

// Gradients holds one weight gradient and one bias gradient per layer
// transition, ordered like the network's layers.
type Gradients struct {
	NablaW []*mat.Dense
	NablaB []*mat.VecDense
}

// newGradients allocates zero gradients shaped like the network parameters.
func (n *Network) newGradients() *Gradients {
	g := &Gradients{
		NablaW: make([]*mat.Dense, len(n.weights)),
		NablaB: make([]*mat.VecDense, len(n.biases)),
	}
	for i := range n.weights {
		g.NablaW[i] = mat.NewDense(n.sizes[i+1], n.sizes[i], nil)
		g.NablaB[i] = mat.NewVecDense(n.sizes[i+1], nil)
	}
	return g
}

// Len returns the number of layer transitions.
func (g *Gradients) Len() int { return len(g.NablaW) }

// zero sets every entry to 0 in place.
func (g *Gradients) zero() {
	for i := range g.NablaW {
		g.NablaW[i].Zero()
		g.NablaB[i].Zero()
	}
}

// add accumulates o into g element-wise.
func (g *Gradients) add(o *Gradients) {
	for i := range g.NablaW {
		g.NablaW[i].Add(g.NablaW[i], o.NablaW[i])
		g.NablaB[i].AddVec(g.NablaB[i], o.NablaB[i])
	}
}

// workspace is the forward-pass scratch for one backprop call.
type workspace struct {
	zs     []*mat.VecDense // pre-activations, one per transition
	as     []*mat.VecDense // activations after each transition (a_1..a_L)
	deltas []*mat.VecDense
	sp     []*mat.VecDense // σ'(z) scratch
}

func (n *Network) newWorkspace() *workspace {
	l := len(n.weights)
	ws := &workspace{
		zs:     make([]*mat.VecDense, l),
		as:     make([]*mat.VecDense, l),
		deltas: make([]*mat.VecDense, l),
		sp:     make([]*mat.VecDense, l),
	}
	for i := range l {
		size := n.sizes[i+1]
		ws.zs[i] = mat.NewVecDense(size, nil)
		ws.as[i] = mat.NewVecDense(size, nil)
		ws.deltas[i] = mat.NewVecDense(size, nil)
		ws.sp[i] = mat.NewVecDense(size, nil)
	}
	return ws
}

// Backprop returns the gradient of the quadratic cost ½‖a_L - y‖² with
// respect to every weight and bias, for the single example (x, y).
//
// Backprop only reads the network and may be called concurrently for
// different examples.
func Backprop(n *Network, x, y *mat.VecDense) *Gradients {
	g := n.newGradients()
	backpropInto(n, x, y, g, n.newWorkspace(), trace.Nop)
	return g
}

// backpropInto computes the gradients for (x, y) into g, overwriting every
// entry, using ws for intermediate values.
func backpropInto(n *Network, x, y *mat.VecDense, g *Gradients, ws *workspace, tr trace.Tracer) {
	n.checkInput(x)
	n.checkTarget(y)
	last := len(n.weights) - 1

	// Forward pass, keeping every z and a.
	end := tr.Start(trace.Span{Phase: trace.PhaseForward, Layer: -1})
	a := x
	for i, w := range n.weights {
		z := ws.zs[i]
		z.MulVec(w, a)
		z.AddVec(z, n.biases[i])
		sigmoidVec(ws.as[i], z)
		a = ws.as[i]
	}
	end()

	// input returns the activation that feeds transition i.
	input := func(i int) *mat.VecDense {
		if i == 0 {
			return x
		}
		return ws.as[i-1]
	}

	// Output error: delta = (a_L - y) ⊙ σ'(z_L).
	end = tr.Start(trace.Span{Phase: trace.PhaseBackward, Layer: last})
	delta := ws.deltas[last]
	delta.SubVec(ws.as[last], y)
	sigmoidPrimeVec(ws.sp[last], ws.zs[last])
	delta.MulElemVec(delta, ws.sp[last])
	g.NablaB[last].CopyVec(delta)
	g.NablaW[last].Outer(1, delta, input(last))
	end()

	// delta_i = (W_{i+1}ᵀ · delta_{i+1}) ⊙ σ'(z_i)
	for i := last - 1; i >= 0; i-- {
		end = tr.Start(trace.Span{Phase: trace.PhaseBackward, Layer: i})
		d := ws.deltas[i]
		d.MulVec(n.weights[i+1].T(), ws.deltas[i+1])
		sigmoidPrimeVec(ws.sp[i], ws.zs[i])
		d.MulElemVec(d, ws.sp[i])
		g.NablaB[i].CopyVec(d)
		g.NablaW[i].Outer(1, d, input(i))
		end()
	}
}
