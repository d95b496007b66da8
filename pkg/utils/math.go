package utils

import "math"

// NormalizeL2 scales x in place to unit length. The zero vector is left as is.
func NormalizeL2(x []float32) {
	var sq float64
	for _, v := range x {
		sq += float64(v) * float64(v)
	}
	if sq == 0 {
		return
	}
	inv := 1 / math.Sqrt(sq)
	for i, v := range x {
		x[i] = float32(float64(v) * inv)
	}
}

// CosineSimilarity returns the cosine of the angle between a and b, in [-1, 1]. Vectors of
// different length, empty vectors and zero vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, sa, sb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		sa += x * x
		sb += y * y
	}
	if sa == 0 || sb == 0 {
		return 0
	}
	return dot / math.Sqrt(sa*sb)
}
