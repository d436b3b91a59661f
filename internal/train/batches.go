package train

import (
	"fmt"

	"github.com/born-ml/mlp/internal/nn"
)

// Batches partitions examples into consecutive batches of size examples.
//
// The trailing batch of len(examples)%size examples is dropped unless
// keepPartial is set, in which case it is returned last. The batches share
// storage with examples. Batches panics if size is not positive.
func Batches(examples []nn.Example, size int, keepPartial bool) [][]nn.Example {
	if size <= 0 {
		panic(fmt.Sprintf("train.Batches: size must be positive, got %d", size))
	}
	n := len(examples) / size
	out := make([][]nn.Example, 0, n+1)
	for i := range n {
		out = append(out, examples[i*size:(i+1)*size:(i+1)*size])
	}
	if rem := len(examples) % size; keepPartial && rem > 0 {
		out = append(out, examples[n*size:])
	}
	return out
}
