package nn

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Example is one immutable training sample.
//
// X is the input column vector (length = input layer size, values in [0, 1]),
// Y is the one-hot target (length = output layer size) and Class is the index
// where Y is 1.
type Example struct {
	X     *mat.VecDense
	Y     *mat.VecDense
	Class int
}

// NewExample builds an Example from raw input values and a class label.
// It panics if class is outside [0, classes).
func NewExample(x []float64, class, classes int) Example {
	return Example{
		X:     mat.NewVecDense(len(x), x),
		Y:     OneHot(class, classes),
		Class: class,
	}
}

// OneHot returns a length-n vector with a single 1 at index class.
func OneHot(class, n int) *mat.VecDense {
	if class < 0 || class >= n {
		panic(fmt.Sprintf("nn.OneHot: class %d out of range [0, %d)", class, n))
	}
	y := mat.NewVecDense(n, nil)
	y.SetVec(class, 1)
	return y
}
