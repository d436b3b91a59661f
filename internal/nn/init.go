package nn

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// uniform returns a value drawn from U[-1, 1) using rng, or the package-level
// source when rng is nil.
func uniform(rng *rand.Rand) float64 {
	if rng == nil {
		//nolint:gosec // Using math/rand for weight initialization (not security-critical)
		return rand.Float64()*2.0 - 1.0
	}
	return rng.Float64()*2.0 - 1.0
}

// Uniform creates an r×c matrix with entries drawn independently from
// U[-1, 1).
func Uniform(r, c int, rng *rand.Rand) *mat.Dense {
	data := make([]float64, r*c)
	for i := range data {
		data[i] = uniform(rng)
	}
	return mat.NewDense(r, c, data)
}

// UniformVec creates a length-n vector with entries drawn from U[-1, 1).
func UniformVec(n int, rng *rand.Rand) *mat.VecDense {
	data := make([]float64, n)
	for i := range data {
		data[i] = uniform(rng)
	}
	return mat.NewVecDense(n, data)
}
