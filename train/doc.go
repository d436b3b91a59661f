// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package train runs mini-batch SGD training loops.
//
// # Basic Usage
//
//	trainer := train.New(net, train.Config{BatchSize: 16, Epochs: 10, Eta: 0.15},
//	    train.WithLogger(slog.Default()),
//	    train.WithProgress(os.Stderr),
//	)
//	reports, err := trainer.Run(ctx, trainSet, testSet)
//
// Each epoch shuffles a private copy of the training set, trains on every
// full batch (and the trailing short one when KeepPartial is set) and, if a
// test set is given, evaluates classification accuracy.
package train
