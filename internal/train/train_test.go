package train

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/mlp/internal/nn"
	"github.com/born-ml/mlp/internal/parallel"
	"github.com/born-ml/mlp/internal/trace"
)

// toySet is two well separated clusters in the unit square.
func toySet() []nn.Example {
	pts := []struct {
		x, y  float64
		class int
	}{
		{0.1, 0.2, 0}, {0.2, 0.1, 0}, {0.15, 0.3, 0}, {0.3, 0.2, 0},
		{0.8, 0.9, 1}, {0.9, 0.7, 1}, {0.7, 0.8, 1}, {0.85, 0.85, 1},
	}
	out := make([]nn.Example, len(pts))
	for i, p := range pts {
		out[i] = nn.NewExample([]float64{p.x, p.y}, p.class, 2)
	}
	return out
}

func indexed(n int) []nn.Example {
	out := make([]nn.Example, n)
	for i := range out {
		out[i] = nn.NewExample([]float64{float64(i)}, 0, 1)
	}
	return out
}

func TestBatches(t *testing.T) {
	ex := indexed(10)

	full := Batches(ex, 4, false)
	require.Len(t, full, 2)
	assert.Len(t, full[0], 4)
	assert.Len(t, full[1], 4)
	assert.Equal(t, 4.0, full[1][0].X.AtVec(0))

	withTail := Batches(ex, 4, true)
	require.Len(t, withTail, 3)
	assert.Len(t, withTail[2], 2)
	assert.Equal(t, 9.0, withTail[2][1].X.AtVec(0))

	assert.Len(t, Batches(ex, 5, true), 2, "no tail when size divides")
	assert.Empty(t, Batches(ex[:3], 4, false))
	assert.Len(t, Batches(ex[:3], 4, true), 1)
	assert.Panics(t, func() { Batches(ex, 0, false) })
}

func TestBatches_AppendDoesNotClobber(t *testing.T) {
	ex := indexed(8)
	b := Batches(ex, 4, false)
	_ = append(b[0], nn.NewExample([]float64{99}, 0, 1))
	assert.Equal(t, 4.0, ex[4].X.AtVec(0))
}

func TestEvaluate(t *testing.T) {
	set := toySet()
	net := nn.MustNew([]int{2, 3, 2}, nn.WithRand(rand.New(rand.NewSource(1))))

	seq := Evaluate(net, set, parallel.Sequential())
	par := Evaluate(net, set, parallel.Config{Enabled: true, NumWorkers: 3, MinChunkSize: 1})
	assert.Equal(t, seq, par)
	assert.Equal(t, len(set), seq.Total)
	assert.Len(t, Misclassified(net, set, 0), seq.Total-seq.Correct)

	var cost float64
	for _, ex := range set {
		cost += net.Cost(ex.X, ex.Y)
	}
	assert.InDelta(t, cost/float64(len(set)), seq.Cost, 1e-12)

	assert.Zero(t, Result{}.Accuracy())
	assert.Equal(t, 0.75, Result{Correct: 3, Total: 4}.Accuracy())
}

func TestEvaluate_MatchesPredictAndCost(t *testing.T) {
	set := toySet()
	for seed := int64(1); seed <= 5; seed++ {
		net := nn.MustNew([]int{2, 4, 2}, nn.WithRand(rand.New(rand.NewSource(seed))))
		res := Evaluate(net, set, parallel.Sequential())

		var correct int
		var cost float64
		for _, ex := range set {
			if net.Predict(ex.X) == ex.Class {
				correct++
			}
			cost += net.Cost(ex.X, ex.Y)
		}
		assert.Equal(t, correct, res.Correct, "seed %d", seed)
		assert.InDelta(t, cost/float64(len(set)), res.Cost, 1e-12, "seed %d", seed)
	}
	assert.Equal(t, Result{}, Evaluate(nn.MustNew([]int{2, 2}), nil, parallel.Sequential()))
}

// countingOptimizer records Step calls and applies no update.
type countingOptimizer struct {
	steps int
	sizes []int
}

func (o *countingOptimizer) Step(net *nn.Network, _ *nn.BatchWork) {
	o.steps++
	o.sizes = append(o.sizes[:0], net.LayerSizes()...)
}

func (o *countingOptimizer) LR() float64 { return 0 }

func TestRun_WithOptimizer(t *testing.T) {
	opt := &countingOptimizer{}
	net := nn.MustNew([]int{2, 3, 2}, nn.WithRand(rand.New(rand.NewSource(3))))
	before := net.StateDict()

	_, err := New(net, Config{BatchSize: 3, Epochs: 2, Eta: 5, Seed: 1, KeepPartial: true}, WithOptimizer(opt)).
		Run(context.Background(), toySet(), nil)
	require.NoError(t, err)
	assert.Equal(t, 6, opt.steps, "2 epochs × (2 full + 1 partial)")
	assert.Equal(t, []int{2, 3, 2}, opt.sizes)
	assert.Equal(t, before, net.StateDict(), "only the optimizer updates parameters")
}

func TestRun_Converges(t *testing.T) {
	set := toySet()
	net := nn.MustNew([]int{2, 3, 2}, nn.WithRand(rand.New(rand.NewSource(1))))
	var logs bytes.Buffer

	tr := New(net, Config{BatchSize: 2, Epochs: 200, Eta: 3.0, Seed: 7},
		WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
		WithParallel(parallel.Config{Enabled: true, NumWorkers: 2, MinChunkSize: 1}),
	)
	reports, err := tr.Run(context.Background(), set, set)
	require.NoError(t, err)
	require.Len(t, reports, 200)

	last := reports[len(reports)-1]
	assert.Equal(t, 200, last.Epoch)
	assert.Equal(t, 4, last.Batches)
	require.NotNil(t, last.Test)
	assert.Equal(t, 8, last.Test.Correct)
	assert.Less(t, last.Test.Cost, 0.05)
	assert.Less(t, last.Test.Cost, reports[0].Test.Cost)

	assert.Contains(t, logs.String(), "epoch complete")
	assert.Empty(t, Misclassified(net, set, 0))
}

func TestRun_DoesNotReorderInput(t *testing.T) {
	set := indexed(6)
	net := nn.MustNew([]int{1, 1})
	_, err := New(net, Config{BatchSize: 2, Epochs: 3, Eta: 0.1, Seed: 1}).Run(context.Background(), set, nil)
	require.NoError(t, err)
	for i, ex := range set {
		assert.Equal(t, float64(i), ex.X.AtVec(0))
	}
}

func TestRun_PartialBatch(t *testing.T) {
	set := toySet()[:7]

	dropped, err := New(nn.MustNew([]int{2, 2}), Config{BatchSize: 3, Epochs: 1, Eta: 1, Seed: 1}).
		Run(context.Background(), set, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, dropped[0].Batches)
	assert.Nil(t, dropped[0].Test)

	kept, err := New(nn.MustNew([]int{2, 2}), Config{BatchSize: 3, Epochs: 1, Eta: 1, Seed: 1, KeepPartial: true}).
		Run(context.Background(), set, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, kept[0].Batches)

	small, err := New(nn.MustNew([]int{2, 2}), Config{BatchSize: 16, Epochs: 2, Eta: 1, Seed: 1, KeepPartial: true}).
		Run(context.Background(), set, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, small[1].Batches)
}

func TestRun_ZeroEtaLeavesNetwork(t *testing.T) {
	net := nn.MustNew([]int{2, 3, 2}, nn.WithRand(rand.New(rand.NewSource(3))))
	before := net.StateDict()
	_, err := New(net, Config{BatchSize: 4, Epochs: 2, Eta: 0, Seed: 1}).Run(context.Background(), toySet(), nil)
	require.NoError(t, err)
	assert.Equal(t, before, net.StateDict())
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	net := nn.MustNew([]int{2, 2})
	before := net.StateDict()
	reports, err := New(net, Config{BatchSize: 2, Epochs: 5, Eta: 1, Seed: 1}).Run(ctx, toySet(), nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, reports)
	assert.Equal(t, before, net.StateDict(), "no batch runs after cancellation")
}

func TestRun_HookStops(t *testing.T) {
	var seen []int
	hook := func(r EpochReport) error {
		seen = append(seen, r.Epoch)
		if r.Epoch == 2 {
			return ErrStop
		}
		return nil
	}
	reports, err := New(nn.MustNew([]int{2, 2}), Config{BatchSize: 2, Epochs: 5, Eta: 1, Seed: 1}, WithEpochHook(hook)).
		Run(context.Background(), toySet(), nil)
	assert.True(t, errors.Is(err, ErrStop))
	assert.Equal(t, []int{1, 2}, seen)
	assert.Len(t, reports, 2)
}

func TestRun_InvalidConfig(t *testing.T) {
	_, err := New(nn.MustNew([]int{2, 2}), Config{BatchSize: 0, Epochs: 1}).Run(context.Background(), toySet(), nil)
	assert.Error(t, err)
	_, err = New(nn.MustNew([]int{2, 2}), Config{BatchSize: 1, Epochs: -1}).Run(context.Background(), toySet(), nil)
	assert.Error(t, err)
}

func TestRun_ProgressAndSpans(t *testing.T) {
	var bar bytes.Buffer
	rec := trace.NewRecorder()
	_, err := New(nn.MustNew([]int{2, 3, 2}), Config{BatchSize: 4, Epochs: 2, Eta: 1, Seed: 1},
		WithProgress(&bar), WithTracer(rec)).Run(context.Background(), toySet(), nil)
	require.NoError(t, err)
	assert.Contains(t, bar.String(), "training")

	counts := map[trace.Phase]int{}
	for _, st := range rec.Snapshot() {
		counts[st.Phase] = st.Count
	}
	assert.Equal(t, 1, counts[trace.PhaseAlloc])
	assert.Equal(t, 4, counts[trace.PhaseUpdate], "2 epochs × 2 batches")
	assert.Equal(t, 4, counts[trace.PhaseReduce])
	assert.Equal(t, 16, counts[trace.PhaseForward])
}
