package embedding

import "github.com/hyperjump/kotae/pkg/utils"

// MeanPool averages the token vectors in hidden (seqLen x dims, row-major) over the positions
// where mask is non-zero, then normalizes the result to unit length.
// Returns a zero vector when no position is masked in.
func MeanPool(hidden []float32, mask []int64, dims int) []float32 {
	out := make([]float32, dims)
	if dims <= 0 {
		return out
	}
	var count float32
	for pos := 0; pos < len(mask) && (pos+1)*dims <= len(hidden); pos++ {
		if mask[pos] == 0 {
			continue
		}
		row := hidden[pos*dims : (pos+1)*dims]
		for i, v := range row {
			out[i] += v
		}
		count++
	}
	if count == 0 {
		return out
	}
	for i := range out {
		out[i] /= count
	}
	utils.NormalizeL2(out)
	return out
}

// meanRows averages equal-length rows. Rows of a different length than the first are ignored.
func meanRows(rows [][]float32) []float32 {
	if len(rows) == 0 {
		return nil
	}
	dims := len(rows[0])
	out := make([]float32, dims)
	n := 0
	for _, row := range rows {
		if len(row) != dims {
			continue
		}
		for i, v := range row {
			out[i] += v
		}
		n++
	}
	for i := range out {
		out[i] /= float32(n)
	}
	return out
}
