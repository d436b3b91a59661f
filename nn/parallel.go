// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/mlp/internal/parallel"
	"github.com/born-ml/mlp/internal/trace"
)

// Parallel execution

// ParallelConfig sizes the worker pool used for per-example backprop.
type ParallelConfig = parallel.Config

// DefaultParallel returns a pool with one worker per physical core.
func DefaultParallel() ParallelConfig { return parallel.DefaultConfig() }

// Sequential returns a config that runs everything on the calling goroutine.
func Sequential() ParallelConfig { return parallel.Sequential() }

// Tracing

// Tracer receives span boundaries around alloc, forward, backward, reduce
// and update phases.
type Tracer = trace.Tracer

// Span identifies a traced region.
type Span = trace.Span

// Recorder aggregates span counts and durations per phase.
type Recorder = trace.Recorder

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder { return trace.NewRecorder() }
