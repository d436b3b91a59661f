// Package nn implements a fully connected feedforward network with sigmoid
// activations, trained by mini-batch stochastic gradient descent.
//
// The package provides:
//   - Network: per-layer weights and biases, forward inference
//   - Backprop: per-example gradients of the quadratic cost
//   - BatchWork: reusable gradient accumulator sized for one batch length
//   - ProcessMiniBatch: parallel per-example backprop followed by a
//     single-goroutine reduction into a BatchWork
//   - SaveCheckpoint / LoadCheckpoint: parameter persistence
//
// Parameters are only written by an optimizer (see internal/optim). Shape
// mismatches between inputs, topology and batch sizing are programming errors
// and panic.
package nn

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ErrInvalidTopology is returned when a network cannot be built from the
// given layer sizes or parameters.
var ErrInvalidTopology = errors.New("nn: invalid topology")

// Network is a dense sigmoid network.
//
// For layer transition i (0-based), weights[i] has shape
// sizes[i+1] × sizes[i] and biases[i] has length sizes[i+1].
type Network struct {
	sizes   []int
	weights []*mat.Dense
	biases  []*mat.VecDense
}

// Option configures network construction.
type Option func(*options)

type options struct {
	rng *rand.Rand
}

// WithRand draws initial parameters from rng instead of the package-level
// source, making construction reproducible.
func WithRand(rng *rand.Rand) Option {
	return func(o *options) { o.rng = rng }
}

// New creates a network with the given layer sizes (input layer first).
//
// Every weight and bias is sampled independently from U[-1, 1). New fails
// with ErrInvalidTopology if fewer than two sizes are given or any size is
// not positive.
//
// Example:
//
//	net, err := nn.New([]int{784, 30, 10})
func New(layerSizes []int, opts ...Option) (*Network, error) {
	if err := validateSizes(layerSizes); err != nil {
		return nil, err
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	n := &Network{
		sizes:   append([]int(nil), layerSizes...),
		weights: make([]*mat.Dense, 0, len(layerSizes)-1),
		biases:  make([]*mat.VecDense, 0, len(layerSizes)-1),
	}
	for i := 1; i < len(layerSizes); i++ {
		n.biases = append(n.biases, UniformVec(layerSizes[i], o.rng))
		n.weights = append(n.weights, Uniform(layerSizes[i], layerSizes[i-1], o.rng))
	}
	return n, nil
}

// MustNew is like New but panics on error.
func MustNew(layerSizes []int, opts ...Option) *Network {
	n, err := New(layerSizes, opts...)
	if err != nil {
		panic(err)
	}
	return n
}

// FromParams builds a network from explicit parameters. The matrices are
// copied. Shapes must chain: weights[i] is r×c with r == biases[i].Len() and
// c equal to the row count of weights[i-1].
func FromParams(weights []*mat.Dense, biases []*mat.VecDense) (*Network, error) {
	if len(weights) == 0 || len(weights) != len(biases) {
		return nil, fmt.Errorf("%w: %d weight matrices, %d bias vectors", ErrInvalidTopology, len(weights), len(biases))
	}

	_, in := weights[0].Dims()
	n := &Network{sizes: []int{in}}
	for i, w := range weights {
		r, c := w.Dims()
		if c != n.sizes[i] {
			return nil, fmt.Errorf("%w: layer %d weights have %d columns, previous layer has %d units",
				ErrInvalidTopology, i, c, n.sizes[i])
		}
		if biases[i].Len() != r {
			return nil, fmt.Errorf("%w: layer %d bias length %d, weights have %d rows",
				ErrInvalidTopology, i, biases[i].Len(), r)
		}
		n.sizes = append(n.sizes, r)
		n.weights = append(n.weights, mat.DenseCopyOf(w))
		n.biases = append(n.biases, mat.VecDenseCopyOf(biases[i]))
	}
	return n, nil
}

func validateSizes(sizes []int) error {
	if len(sizes) < 2 {
		return fmt.Errorf("%w: need at least 2 layer sizes, got %d", ErrInvalidTopology, len(sizes))
	}
	for i, s := range sizes {
		if s <= 0 {
			return fmt.Errorf("%w: layer %d has size %d", ErrInvalidTopology, i, s)
		}
	}
	return nil
}

// LayerSizes returns a copy of the topology, input layer first.
func (n *Network) LayerSizes() []int {
	return append([]int(nil), n.sizes...)
}

// NumLayers returns the number of layer transitions (len(LayerSizes())-1).
func (n *Network) NumLayers() int {
	return len(n.weights)
}

// InputSize returns the input layer size.
func (n *Network) InputSize() int { return n.sizes[0] }

// OutputSize returns the output layer size.
func (n *Network) OutputSize() int { return n.sizes[len(n.sizes)-1] }

// Layer returns the weight matrix and bias vector of transition i.
//
// The returned values share storage with the network. Only an optimizer
// step may write them, and never while a batch is being processed.
func (n *Network) Layer(i int) (*mat.Dense, *mat.VecDense) {
	return n.weights[i], n.biases[i]
}

// Forward computes the output activation for input x.
//
// For every transition: z = W·a + b, a = σ(z). Forward panics if x does not
// match the input layer size.
func (n *Network) Forward(x *mat.VecDense) *mat.VecDense {
	n.checkInput(x)

	a := x
	for i, w := range n.weights {
		z := mat.NewVecDense(n.sizes[i+1], nil)
		z.MulVec(w, a)
		z.AddVec(z, n.biases[i])
		sigmoidVec(z, z)
		a = z
	}
	return a
}

// Predict returns the index of the largest output activation.
func (n *Network) Predict(x *mat.VecDense) int {
	return floats.MaxIdx(n.Forward(x).RawVector().Data)
}

// Cost returns the quadratic cost ½‖a_L - y‖² for one example.
func (n *Network) Cost(x, y *mat.VecDense) float64 {
	n.checkTarget(y)
	d := n.Forward(x)
	d.SubVec(d, y)
	return 0.5 * mat.Dot(d, d)
}

func (n *Network) checkInput(x *mat.VecDense) {
	if x.Len() != n.sizes[0] {
		panic(fmt.Sprintf("nn.Network: expected input of length %d, got %d", n.sizes[0], x.Len()))
	}
}

func (n *Network) checkTarget(y *mat.VecDense) {
	if out := n.OutputSize(); y.Len() != out {
		panic(fmt.Sprintf("nn.Network: expected target of length %d, got %d", out, y.Len()))
	}
}

// sameShape reports whether sizes matches the network topology.
func (n *Network) sameShape(sizes []int) bool {
	return slices.Equal(n.sizes, sizes)
}
