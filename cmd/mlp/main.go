// Package main provides the mlp CLI: train a sigmoid network on MNIST and
// evaluate saved checkpoints.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/klauspost/cpuid/v2"

	"github.com/born-ml/mlp/internal/config"
	"github.com/born-ml/mlp/internal/mnist"
	"github.com/born-ml/mlp/internal/nn"
	"github.com/born-ml/mlp/internal/optim"
	"github.com/born-ml/mlp/internal/parallel"
	"github.com/born-ml/mlp/internal/serialization"
	"github.com/born-ml/mlp/internal/trace"
	"github.com/born-ml/mlp/internal/train"
)

const version = "v0.1.0"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "train":
		err = runTrain(os.Args[2:])
	case "eval":
		err = runEval(os.Args[2:])
	case "version":
		fmt.Printf("mlp %s (file format v%d)\n", version, serialization.FormatVersion)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("mlp - sigmoid multilayer perceptron trained by mini-batch SGD")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  train      Train a network on MNIST")
	fmt.Println("  eval       Evaluate a checkpoint on the MNIST test set")
	fmt.Println("  version    Show version")
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	lvl, err := config.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

// poolConfig sizes the pool from the CPU unless workers is positive, in
// which case exactly that many workers are used.
func poolConfig(workers int) parallel.Config {
	cfg := parallel.DefaultConfig()
	if workers > 0 {
		cfg.NumWorkers = workers
		cfg.Enabled = workers > 1
	}
	return cfg
}

// logPhases logs and resets the per-phase timings collected by rec.
func logPhases(log *slog.Logger, rec *trace.Recorder, epoch int) {
	for _, st := range rec.Snapshot() {
		log.Info("phase", "epoch", epoch, "phase", st.Phase, "count", st.Count,
			"ms", st.Total.Milliseconds(), "mean_us", st.Mean().Microseconds())
	}
}

func parseSizes(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	var sizes []int
	for _, f := range strings.Split(s, ",") {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, fmt.Errorf("layer sizes %q: %w", s, err)
		}
		sizes = append(sizes, v)
	}
	return sizes, nil
}

func runTrain(args []string) error {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	configPath := fs.String("config", "", "YAML config file")
	layers := fs.String("layers", "", "comma separated layer sizes, e.g. 784,30,10")
	var o config.Overrides
	fs.IntVar(&o.BatchSize, "batch", 0, "mini-batch size")
	fs.IntVar(&o.Epochs, "epochs", 0, "number of epochs")
	fs.Float64Var(&o.Eta, "eta", 0, "learning rate")
	fs.Int64Var(&o.Seed, "seed", 0, "shuffle and init seed (0 = random)")
	fs.IntVar(&o.Workers, "workers", 0, "backprop workers (0 = physical cores)")
	fs.StringVar(&o.DataDir, "data", "", "directory holding the MNIST files")
	fs.IntVar(&o.Limit, "limit", 0, "train on at most this many samples")
	fs.BoolVar(&o.KeepPartial, "keep-partial", false, "train on the trailing short batch")
	fs.StringVar(&o.Checkpoint, "out", "", "write the trained network to this file")
	fs.StringVar(&o.LogLevel, "log-level", "", "debug, info, warn or error")
	showTrace := fs.Bool("trace", false, "log per-phase timings after every epoch")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	sizes, err := parseSizes(*layers)
	if err != nil {
		return err
	}
	o.LayerSizes = sizes
	cfg.ApplyOverrides(o)
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := newLogger(os.Stderr, cfg.LogLevel)
	if err != nil {
		return err
	}
	pool := poolConfig(cfg.Workers)
	log.Info("cpu", "brand", cpuid.CPU.BrandName, "physical_cores", cpuid.CPU.PhysicalCores,
		"logical_cores", cpuid.CPU.LogicalCores, "workers", pool.NumWorkers)

	trainRaw, err := mnist.Load(cfg.DataDir, mnist.Train, cfg.Limit)
	if err != nil {
		return err
	}
	testRaw, err := mnist.Load(cfg.DataDir, mnist.Test, 0)
	if err != nil {
		return err
	}
	sizes = cfg.LayerSizes
	if in := trainRaw.Rows * trainRaw.Cols; sizes[0] != in || sizes[len(sizes)-1] != mnist.Classes {
		return fmt.Errorf("layer sizes %v must start at %d inputs and end at %d classes", sizes, in, mnist.Classes)
	}
	trainSet := mnist.Examples(trainRaw, mnist.Classes)
	testSet := mnist.Examples(testRaw, mnist.Classes)
	log.Info("dataset loaded", "train", len(trainSet), "test", len(testSet))

	var netOpts []nn.Option
	if cfg.Seed != 0 {
		//nolint:gosec // G404: weight initialization is not security-critical
		netOpts = append(netOpts, nn.WithRand(rand.New(rand.NewSource(cfg.Seed))))
	}
	net, err := nn.New(cfg.LayerSizes, netOpts...)
	if err != nil {
		return err
	}

	var tracer trace.Tracer = trace.Nop
	var rec *trace.Recorder
	if *showTrace {
		rec = trace.NewRecorder()
		tracer = rec
	}

	var last train.EpochReport
	hook := func(r train.EpochReport) error {
		last = r
		if rec != nil {
			logPhases(log, rec, r.Epoch)
		}
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	trainer := train.New(net, train.Config{
		BatchSize:   cfg.BatchSize,
		Epochs:      cfg.Epochs,
		Eta:         cfg.Eta,
		Seed:        cfg.Seed,
		KeepPartial: cfg.KeepPartial,
	},
		train.WithLogger(log),
		train.WithParallel(pool),
		train.WithTracer(tracer),
		train.WithOptimizer(optim.NewSGD(cfg.Eta, optim.WithTracer(tracer))),
		train.WithProgress(os.Stderr),
		train.WithEpochHook(hook),
	)
	_, runErr := trainer.Run(ctx, trainSet, testSet)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	if cfg.Checkpoint != "" && last.Epoch > 0 {
		cp := &nn.Checkpoint{
			Network:   net,
			Epoch:     last.Epoch,
			BatchSize: cfg.BatchSize,
			Eta:       cfg.Eta,
			Metadata:  map[string]string{"dataset": "mnist"},
		}
		if last.Test != nil {
			cp.Accuracy = last.Test.Accuracy()
		}
		if err := cp.Save(cfg.Checkpoint); err != nil {
			return err
		}
		log.Info("checkpoint saved", "path", cfg.Checkpoint, "epoch", last.Epoch)
	}
	return runErr
}

func runEval(args []string) error {
	fs := flag.NewFlagSet("eval", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "directory holding the MNIST files")
	show := fs.Int("show", 5, "render this many misclassified digits (0 = none)")
	workers := fs.Int("workers", 0, "evaluation workers (0 = physical cores)")
	logLevel := fs.String("log-level", "info", "debug, info, warn or error")
	noVerify := fs.Bool("no-verify", false, "skip the checkpoint checksum")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: mlp eval [flags] <checkpoint>")
	}

	log, err := newLogger(os.Stderr, *logLevel)
	if err != nil {
		return err
	}

	var loadOpts []nn.LoadOption
	if *noVerify {
		loadOpts = append(loadOpts, nn.SkipChecksum())
	}
	cp, err := nn.LoadCheckpoint(fs.Arg(0), loadOpts...)
	if err != nil {
		return err
	}
	log.Info("checkpoint loaded", "layers", cp.Network.LayerSizes(), "epoch", cp.Epoch,
		"saved_accuracy", cp.Accuracy, "created", cp.CreatedAt)

	raw, err := mnist.Load(*dataDir, mnist.Test, 0)
	if err != nil {
		return err
	}
	if in := raw.Rows * raw.Cols; in != cp.Network.InputSize() {
		return fmt.Errorf("network expects %d inputs, images have %d pixels", cp.Network.InputSize(), in)
	}
	if cp.Network.OutputSize() < mnist.Classes {
		return fmt.Errorf("network has %d outputs, need %d classes", cp.Network.OutputSize(), mnist.Classes)
	}
	set := mnist.Examples(raw, cp.Network.OutputSize())

	res := train.Evaluate(cp.Network, set, poolConfig(*workers))
	fmt.Printf("accuracy: %d/%d (%.2f%%), cost %.5f\n", res.Correct, res.Total, 100*res.Accuracy(), res.Cost)

	renderMisses(os.Stdout, cp.Network, raw, set, *show)
	return nil
}

// renderMisses draws up to limit misclassified digits with the network's
// guess. limit <= 0 draws nothing.
func renderMisses(w io.Writer, net *nn.Network, raw *mnist.Set, set []nn.Example, limit int) {
	if limit <= 0 {
		return
	}
	for _, i := range train.Misclassified(net, set, limit) {
		fmt.Fprint(w, mnist.Render(raw.Images[i], raw.Rows, raw.Cols))
		fmt.Fprintf(w, "Guess: %d, Actual: %d\n\n", net.Predict(set[i].X), set[i].Class)
	}
}
