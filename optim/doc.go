// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides the parameter update applied after each mini-batch.
//
// # Overview
//
// This package contains:
//   - SGD: vanilla stochastic gradient descent on the batch mean gradient
//   - Optimizer interface
//
// # Basic Usage
//
//	sgd := optim.NewSGD(0.15)
//	for _, batch := range batches {
//	    nn.ProcessMiniBatch(net, work, batch)
//	    sgd.Step(net, work)
//	}
//
// # Update Rule
//
// For batch length m and learning rate eta, every layer is updated as
//
//	W = W - (eta / m) * sum(nablaW)
//	b = b - (eta / m) * sum(nablaB)
package optim
