// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn_test

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/mlp/nn"
	"github.com/born-ml/mlp/optim"
)

// TestPublicAPI drives one training step and a checkpoint round trip through
// the exported facade.
func TestPublicAPI(t *testing.T) {
	net, err := nn.New([]int{3, 4, 2}, nn.WithRand(rand.New(rand.NewSource(1))))
	require.NoError(t, err)

	batch := []nn.Example{
		nn.NewExample([]float64{0.1, 0.5, 0.9}, 0, 2),
		nn.NewExample([]float64{0.9, 0.5, 0.1}, 1, 2),
	}
	before := net.Cost(batch[0].X, batch[0].Y) + net.Cost(batch[1].X, batch[1].Y)

	work := nn.AllocBatchWork(net, len(batch))
	nn.ProcessMiniBatch(net, work, batch)
	optim.NewSGD(0.5).Step(net, work)

	after := net.Cost(batch[0].X, batch[0].Y) + net.Cost(batch[1].X, batch[1].Y)
	assert.Less(t, after, before)

	path := filepath.Join(t.TempDir(), "net.born")
	require.NoError(t, nn.SaveCheckpoint(path, net, 1))
	cp, err := nn.LoadCheckpoint(path)
	require.NoError(t, err)
	assert.Equal(t, net.Predict(batch[0].X), cp.Network.Predict(batch[0].X))

	_, err = nn.New([]int{3})
	assert.ErrorIs(t, err, nn.ErrInvalidTopology)
}
