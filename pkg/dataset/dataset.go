// Package dataset holds the decoded attention tensors that views render.
//
// A Dataset is immutable after construction. It owns the entity ids and
// display names, the B×N bounds matrix and L layer tensors of shape
// (B, H, N, N), and hands out zero-copy matrix views.
package dataset

import (
	"fmt"
	"math"

	"github.com/r3d91ll/attngraph/pkg/errors"
)

// Dims are the four dataset dimensions.
type Dims struct {
	N int `json:"N"` // entities
	B int `json:"B"` // batches
	H int `json:"H"` // heads per layer
	L int `json:"L"` // layers
}

// Spec describes the parts a Dataset is built from.
type Spec struct {
	// IDs are the N unique entity identifiers in row order.
	IDs []string

	// Names maps id to display name. Missing ids display as themselves.
	Names map[string]string

	// FullNames, when non-nil, gives display names in row order and takes
	// precedence over Names. Decoded files carry names this way.
	FullNames []string

	Bounds Bounds
	Layers []Tensor4

	// Heads is only consulted when Layers is empty.
	Heads int
}

// Dataset is the in-memory attention dataset.
type Dataset struct {
	dims   Dims
	ids    []string
	names  []string
	index  map[string]int
	bounds Bounds
	layers []Tensor4
}

// New validates spec and builds a Dataset. Shape inconsistencies fail with
// SHAPE_MISMATCH, NaN/Inf with NON_FINITE_VALUE. A dataset needs at least
// one batch, and at least one head when it has layers.
func New(spec Spec) (*Dataset, error) {
	n := len(spec.IDs)
	b := spec.Bounds.B
	h := spec.Heads
	if len(spec.Layers) > 0 {
		first := spec.Layers[0]
		b, h = first.B, first.H
		if first.N != n {
			return nil, errors.ShapeMismatch("entity_ids", -1, []int{first.N}, []int{n})
		}
	}

	for i, t := range spec.Layers {
		if t.B != b || t.H != h || t.N != n || len(t.Data) != b*h*n*n {
			actual := t.Shape()
			if len(t.Data) != t.B*t.H*t.N*t.N {
				actual = []int{len(t.Data)}
			}
			return nil, errors.ShapeMismatch("layer", i, []int{b, h, n, n}, actual)
		}
	}
	if b <= 0 {
		return nil, errors.EmptyAxis("batches")
	}
	if h <= 0 && len(spec.Layers) > 0 {
		return nil, errors.EmptyAxis("heads")
	}
	if spec.Bounds.B != b || spec.Bounds.N != n || len(spec.Bounds.Data) != b*n {
		return nil, errors.ShapeMismatch("bounds", -1, []int{b, n}, spec.Bounds.Shape())
	}
	if spec.FullNames != nil && len(spec.FullNames) != n {
		return nil, errors.ShapeMismatch("full_names", -1, []int{n}, []int{len(spec.FullNames)})
	}

	index := make(map[string]int, n)
	for i, id := range spec.IDs {
		if _, dup := index[id]; dup {
			return nil, errors.Validationf(errors.ErrInvalidValue, "duplicate entity id %q at row %d", id, i).
				WithContext("id", id)
		}
		index[id] = i
	}

	if err := checkFinite("bounds", spec.Bounds.Data); err != nil {
		return nil, err
	}
	for i, t := range spec.Layers {
		if err := checkFinite(fmt.Sprintf("layer %d", i), t.Data); err != nil {
			return nil, err
		}
	}

	names := make([]string, n)
	for i, id := range spec.IDs {
		switch {
		case spec.FullNames != nil:
			names[i] = spec.FullNames[i]
		case spec.Names[id] != "":
			names[i] = spec.Names[id]
		default:
			names[i] = id
		}
	}

	ids := make([]string, n)
	copy(ids, spec.IDs)
	layers := make([]Tensor4, len(spec.Layers))
	copy(layers, spec.Layers)

	return &Dataset{
		dims:   Dims{N: n, B: b, H: h, L: len(layers)},
		ids:    ids,
		names:  names,
		index:  index,
		bounds: spec.Bounds,
		layers: layers,
	}, nil
}

func checkFinite(where string, data []float32) error {
	for i, v := range data {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return errors.NonFinite(fmt.Sprintf("%s at flat index %d", where, i), f)
		}
	}
	return nil
}

// Dims returns the dataset dimensions.
func (d *Dataset) Dims() Dims { return d.dims }

// IDs returns a copy of the entity ids in row order.
func (d *Dataset) IDs() []string {
	out := make([]string, len(d.ids))
	copy(out, d.ids)
	return out
}

// FullNames returns a copy of the display names in row order.
func (d *Dataset) FullNames() []string {
	out := make([]string, len(d.names))
	copy(out, d.names)
	return out
}

// ID returns the id of row i.
func (d *Dataset) ID(i int) string { return d.ids[i] }

// Name returns the display name of row i.
func (d *Dataset) Name(i int) string { return d.names[i] }

// IndexOf returns the row of an entity id.
func (d *Dataset) IndexOf(id string) (int, bool) {
	i, ok := d.index[id]
	return i, ok
}

// Bounds returns the bounds matrix.
func (d *Dataset) Bounds() Bounds { return d.bounds }

// BoundRow returns the bounds of batch b.
func (d *Dataset) BoundRow(b int) []float32 { return d.bounds.Row(b) }

// Layer returns layer l.
func (d *Dataset) Layer(l int) Tensor4 { return d.layers[l] }

// Matrix returns the attention matrix of layer l for batch b and head h.
func (d *Dataset) Matrix(l, b, h int) Matrix {
	return d.layers[l].Matrix(b, h)
}

// Subset projects bounds and every layer onto the listed batches. Order and
// multiplicity are honored exactly, so duplicates repeat and unsorted lists
// reorder.
func (d *Dataset) Subset(batches []int) (*Dataset, error) {
	if len(batches) == 0 {
		return nil, errors.EmptyAxis("batches")
	}
	for _, b := range batches {
		if b < 0 || b >= d.dims.B {
			return nil, errors.OutOfRange("batch", b, d.dims.B)
		}
	}
	layers := make([]Tensor4, len(d.layers))
	for i, t := range d.layers {
		layers[i] = t.selectBatches(batches)
	}
	bounds := d.bounds.selectBatches(batches)
	return &Dataset{
		dims:   Dims{N: d.dims.N, B: len(batches), H: d.dims.H, L: d.dims.L},
		ids:    d.ids,
		names:  d.names,
		index:  d.index,
		bounds: bounds,
		layers: layers,
	}, nil
}
