package nn

import (
	"github.com/born-ml/mlp/internal/parallel"
	"github.com/born-ml/mlp/internal/trace"
)

// ProcessMiniBatch sums the gradients of every example in batch into work.
//
// The steps are:
//  1. reset the accumulator
//  2. backprop each example on the worker pool, each into its own slot
//  3. after all workers finish, add the slots into the accumulator on the
//     calling goroutine, in batch order
//
// The network is only read. ProcessMiniBatch panics if len(batch) differs
// from work.BatchLength() or work was allocated for another topology.
func ProcessMiniBatch(net *Network, work *BatchWork, batch []Example) {
	work.check(net, len(batch))
	work.Reset()

	parallel.For(len(batch), func(i int) {
		ex := batch[i]
		backpropInto(net, ex.X, ex.Y, work.slots[i], work.spaces[i], work.tracer)
	}, work.pool)

	end := work.tracer.Start(trace.Span{Phase: trace.PhaseReduce, Layer: -1})
	for _, g := range work.slots {
		work.sum.add(g)
	}
	end()
}
