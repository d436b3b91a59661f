// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package train

import (
	"github.com/born-ml/mlp/internal/parallel"
	"github.com/born-ml/mlp/internal/train"
	"github.com/born-ml/mlp/nn"
)

// Config holds the hyperparameters of a run.
type Config = train.Config

// Trainer runs SGD epochs against a network.
type Trainer = train.Trainer

// EpochReport describes one finished epoch.
type EpochReport = train.EpochReport

// Result summarizes accuracy and cost on a labelled set.
type Result = train.Result

// Option configures a Trainer.
type Option = train.Option

// ErrStop ends training early when returned from an epoch hook.
var ErrStop = train.ErrStop

// Trainer options.
var (
	WithLogger    = train.WithLogger
	WithTracer    = train.WithTracer
	WithParallel  = train.WithParallel
	WithOptimizer = train.WithOptimizer
	WithProgress  = train.WithProgress
	WithEpochHook = train.WithEpochHook
)

// New creates a trainer for net.
func New(net *nn.Network, cfg Config, opts ...Option) *Trainer {
	return train.New(net, cfg, opts...)
}

// Batches partitions examples into batches of size.
func Batches(examples []nn.Example, size int, keepPartial bool) [][]nn.Example {
	return train.Batches(examples, size, keepPartial)
}

// Evaluate counts correct predictions on set using all physical cores.
func Evaluate(net *nn.Network, set []nn.Example) Result {
	return train.Evaluate(net, set, parallel.DefaultConfig())
}
