package train

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/mlp/internal/nn"
	"github.com/born-ml/mlp/internal/parallel"
)

// Result summarizes a network's performance on a labelled set.
type Result struct {
	Correct int     // examples whose predicted class equals Class
	Total   int     // examples evaluated
	Cost    float64 // mean quadratic cost
}

// Accuracy returns Correct/Total, or 0 for an empty set.
func (r Result) Accuracy() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Correct) / float64(r.Total)
}

type outcome struct {
	correct bool
	cost    float64
}

// Evaluate runs one forward pass per example, counting the predictions that
// match the label and averaging the quadratic cost. The network is only read.
func Evaluate(net *nn.Network, set []nn.Example, cfg parallel.Config) Result {
	outcomes := parallel.Map(len(set), func(i int) outcome {
		ex := set[i]
		a := net.Forward(ex.X)
		correct := floats.MaxIdx(a.RawVector().Data) == ex.Class
		a.SubVec(a, ex.Y)
		return outcome{correct: correct, cost: 0.5 * mat.Dot(a, a)}
	}, cfg)

	r := Result{Total: len(set)}
	for _, o := range outcomes {
		if o.correct {
			r.Correct++
		}
		r.Cost += o.cost
	}
	if r.Total > 0 {
		r.Cost /= float64(r.Total)
	}
	return r
}

// Misclassified returns the indices of the examples in set the network gets
// wrong, in order, stopping after limit (all when limit <= 0).
func Misclassified(net *nn.Network, set []nn.Example, limit int) []int {
	var out []int
	for i, ex := range set {
		if net.Predict(ex.X) != ex.Class {
			out = append(out, i)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out
}
