package emb

import "math"

// CLSPool returns the first token state.
func CLSPool(states []float32, dim int) []float32 {
	if dim <= 0 || len(states) < dim {
		return nil
	}
	out := make([]float32, dim)
	copy(out, states[:dim])
	return out
}

// MeanPool averages token states whose attention mask is set.
func MeanPool(states []float32, mask []int64, dim int) []float32 {
	if dim <= 0 {
		return nil
	}
	out := make([]float32, dim)
	var n float32
	for t, m := range mask {
		if m == 0 {
			continue
		}
		off := t * dim
		if off+dim > len(states) {
			break
		}
		for d := 0; d < dim; d++ {
			out[d] += states[off+d]
		}
		n++
	}
	if n == 0 {
		return out
	}
	for d := range out {
		out[d] /= n
	}
	return out
}

// Normalize scales v to unit length in place and returns it.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
	return v
}
