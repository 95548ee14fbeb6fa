package vector

import (
	"fmt"
	"math"
)

// InnerProduct returns the inner product of two vectors (for normalized vectors equals cosine similarity).
func InnerProduct(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

// L2Norm returns the L2 norm of a vector.
func L2Norm(x []float32) float64 {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

// Cosine returns the cosine similarity of a and b, or 0 if either is a zero vector.
func Cosine(a, b []float32) float64 {
	na, nb := L2Norm(a), L2Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return InnerProduct(a, b) / (na * nb)
}

// DimensionError reports a vector of the wrong size.
type DimensionError struct {
	Expected, Got int
}

func (e DimensionError) Error() string {
	return fmt.Sprintf("vector dimension mismatch: got %d, expected %d", e.Got, e.Expected)
}

func checkDims(expected int, vecs ...[]float32) error {
	for _, v := range vecs {
		if len(v) != expected {
			return DimensionError{Expected: expected, Got: len(v)}
		}
	}
	return nil
}
