// Package distance provides the vector distance kernels used by the index.
//
// SquaredL2 is the only metric the index searches with: comparisons stay in
// squared space and no square root is ever taken. Dot and NormalizeL2InPlace
// are backed by vek's auto-dispatching SIMD kernels and serve the dataset
// generators that produce unit query vectors.
package distance

import (
	"math"

	"github.com/viterin/vek/vek32"
)

// Func is a function type for distance calculation between two equal-length
// vectors. The caller is responsible for matching lengths.
type Func func(a, b []float32) float32

// SquaredL2 calculates the squared L2 (Euclidean) distance between two
// vectors. The four-accumulator unrolling keeps the loop auto-vectorizable
// while staying bit-stable across platforms.
func SquaredL2(a, b []float32) float32 {
	var s0, s1, s2, s3 float32

	n := len(a)
	i := 0
	for ; i+4 <= n; i += 4 {
		d0 := a[i] - b[i]
		d1 := a[i+1] - b[i+1]
		d2 := a[i+2] - b[i+2]
		d3 := a[i+3] - b[i+3]
		s0 += d0 * d0
		s1 += d1 * d1
		s2 += d2 * d2
		s3 += d3 * d3
	}
	for ; i < n; i++ {
		d := a[i] - b[i]
		s0 += d * d
	}

	return s0 + s1 + s2 + s3
}

// Dot calculates the dot product of two vectors using SIMD acceleration
// when available.
func Dot(a, b []float32) float32 {
	return vek32.Dot(a, b)
}

// NormalizeL2InPlace L2-normalizes v in place.
// Returns false if v has zero L2 norm.
func NormalizeL2InPlace(v []float32) bool {
	if len(v) == 0 {
		return false
	}
	norm2 := Dot(v, v)
	if norm2 == 0 {
		return false
	}
	vek32.MulNumber_Inplace(v, float32(1/math.Sqrt(float64(norm2))))
	return true
}
