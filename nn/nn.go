// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/mlp/internal/nn"
)

// ErrInvalidTopology is returned when a network cannot be built from the
// given layer sizes or parameters.
var ErrInvalidTopology = nn.ErrInvalidTopology

// ErrNotCheckpoint is returned when loading a file that holds no network.
var ErrNotCheckpoint = nn.ErrNotCheckpoint

// Network is a dense sigmoid network.
type Network = nn.Network

// Option configures network construction.
type Option = nn.Option

// WithRand makes initialization draw from the given source.
var WithRand = nn.WithRand

// New creates a network with uniformly random parameters in [-1, 1).
//
// Example:
//
//	net, err := nn.New([]int{784, 30, 10})
func New(layerSizes []int, opts ...Option) (*Network, error) {
	return nn.New(layerSizes, opts...)
}

// MustNew is like New but panics on error.
func MustNew(layerSizes []int, opts ...Option) *Network {
	return nn.MustNew(layerSizes, opts...)
}

// FromParams builds a network from explicit weight matrices and bias
// vectors. The values are copied.
func FromParams(weights []*mat.Dense, biases []*mat.VecDense) (*Network, error) {
	return nn.FromParams(weights, biases)
}

// Examples

// Example is one training sample: input, one-hot target and class.
type Example = nn.Example

// NewExample builds an Example from raw inputs and a class label.
func NewExample(x []float64, class, classes int) Example {
	return nn.NewExample(x, class, classes)
}

// Gradients

// Gradients holds per-layer weight and bias gradients.
type Gradients = nn.Gradients

// Backprop returns the gradients of the quadratic cost for one example.
func Backprop(net *Network, x, y *mat.VecDense) *Gradients {
	return nn.Backprop(net, x, y)
}

// BatchWork is reusable gradient storage for batches of one length.
type BatchWork = nn.BatchWork

// WorkOption configures a BatchWork.
type WorkOption = nn.WorkOption

// WithParallel and WithTracer configure BatchWork.
var (
	WithParallel = nn.WithParallel
	WithTracer   = nn.WithTracer
)

// AllocBatchWork allocates zeroed gradient storage for batches of
// batchLength examples.
//
// Example:
//
//	work := nn.AllocBatchWork(net, 16)
func AllocBatchWork(net *Network, batchLength int, opts ...WorkOption) *BatchWork {
	return nn.AllocBatchWork(net, batchLength, opts...)
}

// ProcessMiniBatch sums the gradients of every example in batch into work.
func ProcessMiniBatch(net *Network, work *BatchWork, batch []Example) {
	nn.ProcessMiniBatch(net, work, batch)
}

// Activations

// Sigmoid computes 1 / (1 + exp(-x)).
func Sigmoid(x float64) float64 { return nn.Sigmoid(x) }

// SigmoidPrime computes Sigmoid(x) * (1 - Sigmoid(x)).
func SigmoidPrime(x float64) float64 { return nn.SigmoidPrime(x) }

// Checkpoints

// Checkpoint is a network with the training state it was saved at.
type Checkpoint = nn.Checkpoint

// SaveCheckpoint writes net to path.
func SaveCheckpoint(path string, net *Network, epoch int) error {
	return nn.SaveCheckpoint(path, net, epoch)
}

// LoadOption configures LoadCheckpoint.
type LoadOption = nn.LoadOption

// SkipChecksum loads without verifying the data checksum.
func SkipChecksum() LoadOption { return nn.SkipChecksum() }

// LoadCheckpoint reads a checkpoint written by SaveCheckpoint or
// Checkpoint.Save.
func LoadCheckpoint(path string, opts ...LoadOption) (*Checkpoint, error) {
	return nn.LoadCheckpoint(path, opts...)
}
