package dataset

import (
	"fmt"
	"math/rand"
)

// Random builds a dataset of the given dimensions with attention weights
// drawn uniformly from [lo, hi) and bounds from [-1, 1). Entity ids are
// R0..R{N-1} and display names "Reaction <i>".
func Random(dims Dims, rng *rand.Rand, lo, hi float32) *Dataset {
	ids := make([]string, dims.N)
	names := make(map[string]string, dims.N)
	for i := range ids {
		ids[i] = fmt.Sprintf("R%d", i)
		names[ids[i]] = fmt.Sprintf("Reaction %d", i)
	}

	bounds := NewBounds(dims.B, dims.N)
	for i := range bounds.Data {
		bounds.Data[i] = rng.Float32()*2 - 1
	}

	layers := make([]Tensor4, dims.L)
	for l := range layers {
		t := NewTensor4(dims.B, dims.H, dims.N)
		for i := range t.Data {
			t.Data[i] = lo + rng.Float32()*(hi-lo)
		}
		layers[l] = t
	}

	d, err := New(Spec{IDs: ids, Names: names, Bounds: bounds, Layers: layers, Heads: dims.H})
	if err != nil {
		panic(err)
	}
	return d
}

// Equal reports whether a and b have identical dims, ids, names and values.
func Equal(a, b *Dataset) bool {
	return EqualWithin(a, b, func(x, y float32) bool { return x == y })
}

// EqualWithin is Equal with a caller-supplied element comparison applied to
// layer values. Bounds are always compared exactly.
func EqualWithin(a, b *Dataset, eq func(x, y float32) bool) bool {
	if a.dims != b.dims {
		return false
	}
	for i := range a.ids {
		if a.ids[i] != b.ids[i] || a.names[i] != b.names[i] {
			return false
		}
	}
	for i := range a.bounds.Data {
		if a.bounds.Data[i] != b.bounds.Data[i] {
			return false
		}
	}
	for l := range a.layers {
		x, y := a.layers[l].Data, b.layers[l].Data
		for i := range x {
			if !eq(x[i], y[i]) {
				return false
			}
		}
	}
	return true
}
