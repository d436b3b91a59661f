package nn

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/mlp/internal/parallel"
	"github.com/born-ml/mlp/internal/trace"
)

// BatchWork is the reusable scratch state for processing mini-batches of one
// fixed length against one network topology.
//
// It holds the summed gradients read by the optimizer, plus one gradient slot
// and one forward-pass workspace per example so that per-example backprop can
// run in parallel without allocating. Shapes never change after allocation.
type BatchWork struct {
	batchLength int
	sizes       []int
	sum         *Gradients
	slots       []*Gradients
	spaces      []*workspace
	pool        parallel.Config
	tracer      trace.Tracer
}

// WorkOption configures a BatchWork.
type WorkOption func(*BatchWork)

// WithParallel sets the worker pool used for per-example backprop.
// The default is parallel.DefaultConfig().
func WithParallel(cfg parallel.Config) WorkOption {
	return func(w *BatchWork) { w.pool = cfg }
}

// WithTracer sets the tracer notified around alloc, forward, backward and
// reduce phases. The default is trace.Nop.
func WithTracer(t trace.Tracer) WorkOption {
	return func(w *BatchWork) {
		if t != nil {
			w.tracer = t
		}
	}
}

// AllocBatchWork allocates zero-filled gradient storage shaped like net's
// parameters, for batches of exactly batchLength examples.
//
// It panics if batchLength is not positive.
func AllocBatchWork(net *Network, batchLength int, opts ...WorkOption) *BatchWork {
	if batchLength <= 0 {
		panic(fmt.Sprintf("nn.AllocBatchWork: batch length must be positive, got %d", batchLength))
	}
	w := &BatchWork{
		batchLength: batchLength,
		sizes:       net.LayerSizes(),
		pool:        parallel.DefaultConfig(),
		tracer:      trace.Nop,
	}
	for _, opt := range opts {
		opt(w)
	}

	end := w.tracer.Start(trace.Span{Phase: trace.PhaseAlloc, Layer: -1})
	defer end()

	w.sum = net.newGradients()
	w.slots = make([]*Gradients, batchLength)
	w.spaces = make([]*workspace, batchLength)
	for i := range batchLength {
		w.slots[i] = net.newGradients()
		w.spaces[i] = net.newWorkspace()
	}
	return w
}

// Reset zeroes the accumulated gradients in place.
func (w *BatchWork) Reset() {
	w.sum.zero()
}

// BatchLength returns the batch length the work was sized for.
func (w *BatchWork) BatchLength() int { return w.batchLength }

// Gradients returns the accumulated gradient sums. The result shares storage
// with w and is overwritten by the next ProcessMiniBatch.
func (w *BatchWork) Gradients() *Gradients { return w.sum }

// NablaW returns the accumulated weight gradient of transition i.
func (w *BatchWork) NablaW(i int) *mat.Dense { return w.sum.NablaW[i] }

// NablaB returns the accumulated bias gradient of transition i.
func (w *BatchWork) NablaB(i int) *mat.VecDense { return w.sum.NablaB[i] }

// Tracer returns the tracer configured for w.
func (w *BatchWork) Tracer() trace.Tracer { return w.tracer }

func (w *BatchWork) check(net *Network, batchLen int) {
	if batchLen != w.batchLength {
		panic(fmt.Sprintf("nn.BatchWork: sized for batches of %d, got %d", w.batchLength, batchLen))
	}
	if !net.sameShape(w.sizes) {
		panic(fmt.Sprintf("nn.BatchWork: allocated for topology %v, network is %v", w.sizes, net.sizes))
	}
}
