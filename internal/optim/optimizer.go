// Package optim implements the parameter update applied after each
// mini-batch.
//
// This package provides:
//   - Optimizer interface: applies accumulated gradients to a network
//   - SGD: vanilla stochastic gradient descent
//
// Example usage:
//
//	net := nn.MustNew([]int{784, 30, 10})
//	work := nn.AllocBatchWork(net, 16)
//	sgd := optim.NewSGD(0.15)
//
//	for _, batch := range batches {
//	    nn.ProcessMiniBatch(net, work, batch)
//	    sgd.Step(net, work)
//	}
package optim

import (
	"github.com/born-ml/mlp/internal/nn"
)

// Optimizer updates network parameters from the gradient sums held in a
// BatchWork.
//
// Step must only be called after ProcessMiniBatch has completed for the
// batch, and never while another batch is being processed against the same
// network.
type Optimizer interface {
	// Step applies the accumulated gradients in work to net in place.
	Step(net *nn.Network, work *nn.BatchWork)

	// LR returns the learning rate.
	LR() float64
}
