package optim

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/mlp/internal/nn"
	"github.com/born-ml/mlp/internal/trace"
)

// SGD implements plain stochastic gradient descent on the mean gradient of a
// mini-batch.
//
// Update rule, for every layer transition i, with m the batch length:
//
//	W_i = W_i - (eta / m) * nablaW_i
//	b_i = b_i - (eta / m) * nablaB_i
//
// Example:
//
//	sgd := optim.NewSGD(3.0)
//	nn.ProcessMiniBatch(net, work, batch)
//	sgd.Step(net, work)
type SGD struct {
	eta    float64
	tracer trace.Tracer
}

// Option configures an SGD optimizer.
type Option func(*SGD)

// WithTracer reports each Step as an update span.
func WithTracer(t trace.Tracer) Option {
	return func(s *SGD) {
		if t != nil {
			s.tracer = t
		}
	}
}

// NewSGD creates an SGD optimizer with learning rate eta.
//
// eta is not validated: zero leaves parameters unchanged and a negative value
// ascends the cost.
func NewSGD(eta float64, opts ...Option) *SGD {
	s := &SGD{eta: eta, tracer: trace.Nop}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Step applies the update rule using the gradient sums in work.
//
// It panics if work was sized for a different topology than net.
func (s *SGD) Step(net *nn.Network, work *nn.BatchWork) {
	end := s.tracer.Start(trace.Span{Phase: trace.PhaseUpdate, Layer: -1})
	defer end()

	if work.Gradients().Len() != net.NumLayers() {
		panic(fmt.Sprintf("optim.SGD: gradients for %d layers, network has %d",
			work.Gradients().Len(), net.NumLayers()))
	}

	scale := -s.eta / float64(work.BatchLength())
	for i := range net.NumLayers() {
		w, b := net.Layer(i)
		nw := work.NablaW(i)
		wr, wc := w.Dims()
		gr, gc := nw.Dims()
		if wr != gr || wc != gc {
			panic(fmt.Sprintf("optim.SGD: layer %d weights are %d×%d, gradient is %d×%d", i, wr, wc, gr, gc))
		}
		// Parameters and gradients are allocated with stride == cols, so the
		// backing arrays are contiguous and line up element for element.
		floats.AddScaled(w.RawMatrix().Data, scale, nw.RawMatrix().Data)
		b.AddScaledVec(b, scale, work.NablaB(i))
	}
}

// LR returns the learning rate.
func (s *SGD) LR() float64 {
	return s.eta
}
