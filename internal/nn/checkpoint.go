package nn

import (
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/mlp/internal/serialization"
)

// ErrNotCheckpoint is returned by LoadCheckpoint for parameter files that
// were not written by a network.
var ErrNotCheckpoint = errors.New("nn: file is not a network checkpoint")

// Checkpoint is a network together with the training state it was saved at.
//
// Example:
//
//	cp := &nn.Checkpoint{Network: net, Epoch: 10, BatchSize: 16, Eta: 0.15}
//	err := cp.Save("net_epoch_10.born")
//
// To resume training:
//
//	cp, err := nn.LoadCheckpoint("net_epoch_10.born")
//	startEpoch := cp.Epoch + 1
type Checkpoint struct {
	Network   *Network
	Epoch     int
	BatchSize int
	Eta       float64
	Accuracy  float64           // test accuracy at Epoch, if evaluated
	Metadata  map[string]string // free-form, e.g. dataset name
	CreatedAt time.Time
}

// Save writes the checkpoint to path. An existing file is replaced.
func (c *Checkpoint) Save(path string) error {
	header := serialization.Header{
		ModelType:  serialization.ModelTypeMLP,
		CreatedAt:  c.CreatedAt,
		LayerSizes: c.Network.LayerSizes(),
		Metadata:   c.Metadata,
		Checkpoint: &serialization.CheckpointMeta{
			Epoch:     c.Epoch,
			BatchSize: c.BatchSize,
			Eta:       c.Eta,
			Accuracy:  c.Accuracy,
		},
	}
	if err := serialization.WriteFile(path, header, c.Network.StateDict()); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	return nil
}

// LoadOption configures LoadCheckpoint.
type LoadOption func(*serialization.ReadOptions)

// SkipChecksum loads the parameters without verifying the data checksum.
// Structural validation still runs.
func SkipChecksum() LoadOption {
	return func(o *serialization.ReadOptions) { o.SkipChecksumValidation = true }
}

// LoadCheckpoint reads a checkpoint written by Save or SaveCheckpoint.
func LoadCheckpoint(path string, opts ...LoadOption) (*Checkpoint, error) {
	var ro serialization.ReadOptions
	for _, opt := range opts {
		opt(&ro)
	}
	header, tensors, err := serialization.ReadFile(path, ro)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}
	if header.ModelType != serialization.ModelTypeMLP {
		return nil, fmt.Errorf("%w: model type %q", ErrNotCheckpoint, header.ModelType)
	}

	net, err := LoadStateDict(header.LayerSizes, tensors)
	if err != nil {
		return nil, err
	}

	cp := &Checkpoint{
		Network:   net,
		Metadata:  header.Metadata,
		CreatedAt: header.CreatedAt,
	}
	if m := header.Checkpoint; m != nil {
		cp.Epoch = m.Epoch
		cp.BatchSize = m.BatchSize
		cp.Eta = m.Eta
		cp.Accuracy = m.Accuracy
	}
	return cp, nil
}

// SaveCheckpoint is a convenience function to save net at epoch.
func SaveCheckpoint(path string, net *Network, epoch int) error {
	cp := &Checkpoint{
		Network:   net,
		Epoch:     epoch,
		CreatedAt: time.Now().UTC(),
	}
	return cp.Save(path)
}

func weightName(i int) string { return fmt.Sprintf("layer.%d.%s", i, serialization.KindWeight) }
func biasName(i int) string   { return fmt.Sprintf("layer.%d.%s", i, serialization.KindBias) }

// StateDict returns copies of the parameters as named tensors:
// layer.<i>.weight (rows × cols, row-major) and layer.<i>.bias.
func (n *Network) StateDict() []serialization.Tensor {
	out := make([]serialization.Tensor, 0, 2*len(n.weights))
	for i, w := range n.weights {
		r, c := w.Dims()
		out = append(out,
			serialization.Tensor{Name: weightName(i), Shape: []int{r, c}, Data: mat.DenseCopyOf(w).RawMatrix().Data},
			serialization.Tensor{Name: biasName(i), Shape: []int{r}, Data: mat.VecDenseCopyOf(n.biases[i]).RawVector().Data},
		)
	}
	return out
}

// LoadStateDict builds a network with topology sizes from tensors named as by
// StateDict. Missing or misshapen tensors fail with ErrInvalidTopology.
func LoadStateDict(sizes []int, tensors []serialization.Tensor) (*Network, error) {
	if err := validateSizes(sizes); err != nil {
		return nil, err
	}
	byName := make(map[string]serialization.Tensor, len(tensors))
	for _, t := range tensors {
		byName[t.Name] = t
	}

	l := len(sizes) - 1
	weights := make([]*mat.Dense, l)
	biases := make([]*mat.VecDense, l)
	for i := range l {
		rows, cols := sizes[i+1], sizes[i]
		w, ok := byName[weightName(i)]
		if !ok || len(w.Shape) != 2 || w.Shape[0] != rows || w.Shape[1] != cols || len(w.Data) != rows*cols {
			return nil, fmt.Errorf("%w: %s missing or not %d×%d", ErrInvalidTopology, weightName(i), rows, cols)
		}
		b, ok := byName[biasName(i)]
		if !ok || len(b.Shape) != 1 || b.Shape[0] != rows || len(b.Data) != rows {
			return nil, fmt.Errorf("%w: %s missing or not length %d", ErrInvalidTopology, biasName(i), rows)
		}
		weights[i] = mat.NewDense(rows, cols, w.Data)
		biases[i] = mat.NewVecDense(rows, b.Data)
	}
	return FromParams(weights, biases)
}
