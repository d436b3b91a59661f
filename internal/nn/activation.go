package nn

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Sigmoid computes σ(x) = 1 / (1 + exp(-x)).
//
// For large negative x the exponential overflows to +Inf and the result is
// exactly 0; that is ordinary floating-point saturation, not an error.
func Sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// SigmoidPrime computes σ'(x) = σ(x) * (1 - σ(x)).
func SigmoidPrime(x float64) float64 {
	s := Sigmoid(x)
	return s * (1 - s)
}

// sigmoidVec writes σ(src) into dst element-wise. dst may alias src.
func sigmoidVec(dst, src *mat.VecDense) {
	applyVec(dst, src, Sigmoid)
}

// sigmoidPrimeVec writes σ'(src) into dst element-wise. dst may alias src.
func sigmoidPrimeVec(dst, src *mat.VecDense) {
	applyVec(dst, src, SigmoidPrime)
}

func applyVec(dst, src *mat.VecDense, f func(float64) float64) {
	n := src.Len()
	if dst.Len() != n {
		panic("nn: activation length mismatch")
	}
	for i := range n {
		dst.SetVec(i, f(src.AtVec(i)))
	}
}
