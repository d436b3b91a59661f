// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"github.com/born-ml/mlp/internal/optim"
)

// Optimizer applies accumulated gradients to a network.
type Optimizer = optim.Optimizer

// SGD is the vanilla gradient descent optimizer.
type SGD = optim.SGD

// Option configures SGD.
type Option = optim.Option

// WithTracer reports each step as an update span.
var WithTracer = optim.WithTracer

// NewSGD creates an SGD optimizer with learning rate eta.
//
// Example:
//
//	sgd := optim.NewSGD(3.0)
func NewSGD(eta float64, opts ...Option) *SGD {
	return optim.NewSGD(eta, opts...)
}
