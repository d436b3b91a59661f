// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides a fully connected sigmoid network and the gradient
// machinery used to train it.
//
// # Overview
//
// This package contains:
//   - Network: layer weights and biases, Forward, Predict, Cost
//   - Backprop: gradients of the quadratic cost for one example
//   - BatchWork: reusable gradient storage for one batch length
//   - ProcessMiniBatch: parallel backprop over a batch, summed into BatchWork
//   - Checkpoint: save and load trained networks
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/mlp/nn"
//	    "github.com/born-ml/mlp/optim"
//	)
//
//	func main() {
//	    net := nn.MustNew([]int{784, 30, 10})
//	    work := nn.AllocBatchWork(net, 16)
//	    sgd := optim.NewSGD(0.15)
//
//	    for _, batch := range batches {
//	        nn.ProcessMiniBatch(net, work, batch)
//	        sgd.Step(net, work)
//	    }
//
//	    class := net.Predict(x)
//	}
//
// # Shapes
//
// For layer sizes [n0, n1, ..., nL], transition i has an n(i+1) × n(i)
// weight matrix and a length n(i+1) bias vector. Inputs and targets are
// gonum column vectors. Passing a vector of the wrong length, or a batch
// whose length differs from the BatchWork it is processed with, panics.
//
// # Persistence
//
//	err := nn.SaveCheckpoint("net.born", net, epoch)
//	cp, err := nn.LoadCheckpoint("net.born")
package nn
