// Package train drives mini-batch SGD over a dataset: per-epoch shuffling,
// batching, gradient accumulation, parameter updates and evaluation.
package train

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/born-ml/mlp/internal/nn"
	"github.com/born-ml/mlp/internal/optim"
	"github.com/born-ml/mlp/internal/parallel"
	"github.com/born-ml/mlp/internal/trace"
)

// ErrStop can be returned from an epoch hook to end training early. Run
// returns it wrapped.
var ErrStop = errors.New("train: stopped by hook")

// Config holds the hyperparameters of a run.
type Config struct {
	BatchSize   int
	Epochs      int
	Eta         float64
	Seed        int64 // shuffle seed; 0 picks one from the clock
	KeepPartial bool  // also train on the trailing short batch of each epoch
}

// EpochReport describes one finished epoch.
type EpochReport struct {
	Epoch    int // 1-based
	Batches  int
	Duration time.Duration
	Test     *Result // nil when no test set was given
}

// Trainer runs SGD epochs against a network it owns for the duration of Run.
type Trainer struct {
	net      *nn.Network
	cfg      Config
	log      *slog.Logger
	tracer   trace.Tracer
	pool     parallel.Config
	opt      optim.Optimizer
	progress io.Writer
	hook     func(EpochReport) error
}

// Option configures a Trainer.
type Option func(*Trainer)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(t *Trainer) { t.log = l }
}

// WithTracer sets the tracer passed to the batch work and the optimizer.
func WithTracer(tr trace.Tracer) Option {
	return func(t *Trainer) { t.tracer = tr }
}

// WithParallel sets the worker pool for backprop and evaluation.
func WithParallel(cfg parallel.Config) Option {
	return func(t *Trainer) { t.pool = cfg }
}

// WithOptimizer sets the update rule applied after each batch. The default
// is SGD with learning rate cfg.Eta.
func WithOptimizer(o optim.Optimizer) Option {
	return func(t *Trainer) { t.opt = o }
}

// WithProgress renders an epoch progress bar to w.
func WithProgress(w io.Writer) Option {
	return func(t *Trainer) { t.progress = w }
}

// WithEpochHook calls fn after every epoch. A non-nil error stops the run
// and is returned from Run.
func WithEpochHook(fn func(EpochReport) error) Option {
	return func(t *Trainer) { t.hook = fn }
}

// New creates a trainer for net.
func New(net *nn.Network, cfg Config, opts ...Option) *Trainer {
	t := &Trainer{
		net:    net,
		cfg:    cfg,
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer: trace.Nop,
		pool:   parallel.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.opt == nil {
		t.opt = optim.NewSGD(cfg.Eta, optim.WithTracer(t.tracer))
	}
	return t
}

// Run trains for cfg.Epochs epochs over trainSet and, when testSet is not
// empty, evaluates after every epoch.
//
// trainSet is not modified. The context is checked between batches; on
// cancellation Run returns the reports of the completed epochs together with
// the context error.
func (t *Trainer) Run(ctx context.Context, trainSet, testSet []nn.Example) ([]EpochReport, error) {
	if t.cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("train: batch size must be positive, got %d", t.cfg.BatchSize)
	}
	if t.cfg.Epochs < 0 {
		return nil, fmt.Errorf("train: epochs must not be negative, got %d", t.cfg.Epochs)
	}

	seed := t.cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	//nolint:gosec // G404: shuffling order is not security-critical
	rng := rand.New(rand.NewSource(seed))

	workOpts := []nn.WorkOption{nn.WithParallel(t.pool), nn.WithTracer(t.tracer)}
	var work, partial *nn.BatchWork
	if len(trainSet) >= t.cfg.BatchSize {
		work = nn.AllocBatchWork(t.net, t.cfg.BatchSize, workOpts...)
	}
	if rem := len(trainSet) % t.cfg.BatchSize; t.cfg.KeepPartial && rem > 0 {
		partial = nn.AllocBatchWork(t.net, rem, workOpts...)
	}
	examples := append([]nn.Example(nil), trainSet...)

	var bar *progressbar.ProgressBar
	if t.progress != nil {
		bar = progressbar.NewOptions(t.cfg.Epochs,
			progressbar.OptionSetWriter(t.progress),
			progressbar.OptionSetDescription("training"),
			progressbar.OptionShowCount(),
		)
	}

	t.log.Info("training started",
		"examples", len(trainSet),
		"batch_size", t.cfg.BatchSize,
		"epochs", t.cfg.Epochs,
		"lr", t.opt.LR(),
		"seed", seed,
		"workers", t.pool.NumWorkers,
	)

	reports := make([]EpochReport, 0, t.cfg.Epochs)
	for epoch := 1; epoch <= t.cfg.Epochs; epoch++ {
		start := time.Now()
		rng.Shuffle(len(examples), func(i, j int) { examples[i], examples[j] = examples[j], examples[i] })

		batches := Batches(examples, t.cfg.BatchSize, t.cfg.KeepPartial)
		for _, batch := range batches {
			if err := ctx.Err(); err != nil {
				t.log.Warn("training interrupted", "epoch", epoch, "err", err)
				return reports, err
			}
			w := work
			if len(batch) != t.cfg.BatchSize {
				w = partial
			}
			nn.ProcessMiniBatch(t.net, w, batch)
			t.opt.Step(t.net, w)
		}

		report := EpochReport{Epoch: epoch, Batches: len(batches), Duration: time.Since(start)}
		attrs := []any{"epoch", epoch, "batches", report.Batches, "ms", report.Duration.Milliseconds()}
		if len(testSet) > 0 {
			res := Evaluate(t.net, testSet, t.pool)
			report.Test = &res
			attrs = append(attrs, "correct", res.Correct, "total", res.Total,
				"accuracy", res.Accuracy(), "cost", res.Cost)
		}
		t.log.Info("epoch complete", attrs...)
		reports = append(reports, report)

		if bar != nil {
			_ = bar.Add(1)
		}
		if t.hook != nil {
			if err := t.hook(report); err != nil {
				return reports, fmt.Errorf("epoch %d hook: %w", epoch, err)
			}
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}
	return reports, nil
}
