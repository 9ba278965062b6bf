package dataset

import (
	"math"
	"math/rand"
	"testing"

	"github.com/r3d91ll/attngraph/pkg/errors"
)

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func scenarioSpec() Spec {
	layer := NewTensor4(1, 1, 3)
	copy(layer.Data, []float32{0.1, 0.9, 0.2, 0.0, 0.1, 0.8, 0.3, 0.3, 0.3})
	bounds := NewBounds(1, 3)
	copy(bounds.Data, []float32{1, -2, 0.5})
	return Spec{
		IDs:    []string{"A", "B", "C"},
		Names:  map[string]string{"A": "Alpha", "C": "Gamma"},
		Bounds: bounds,
		Layers: []Tensor4{layer},
	}
}

// -----------------------------------------------------------------------------
// Construction Tests
// -----------------------------------------------------------------------------

func TestNew_Scenario(t *testing.T) {
	d, err := New(scenarioSpec())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := d.Dims(); got != (Dims{N: 3, B: 1, H: 1, L: 1}) {
		t.Errorf("Dims = %+v", got)
	}
	if d.Name(0) != "Alpha" || d.Name(1) != "B" || d.Name(2) != "Gamma" {
		t.Errorf("names = %v", d.FullNames())
	}
	if i, ok := d.IndexOf("C"); !ok || i != 2 {
		t.Errorf("IndexOf(C) = %d, %v", i, ok)
	}
	if _, ok := d.IndexOf("Z"); ok {
		t.Error("IndexOf(Z) should miss")
	}
	m := d.Matrix(0, 0, 0)
	if m.At(0, 1) != 0.9 || m.At(1, 2) != 0.8 {
		t.Errorf("matrix values wrong: %v", m.Data)
	}
	if row := m.Row(2); len(row) != 3 || row[0] != 0.3 {
		t.Errorf("Row(2) = %v", row)
	}
	if d.BoundRow(0)[1] != -2 {
		t.Errorf("BoundRow = %v", d.BoundRow(0))
	}
}

func TestNew_FullNamesTakePrecedence(t *testing.T) {
	spec := scenarioSpec()
	spec.FullNames = []string{"x", "y", "z"}
	d, err := New(spec)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if d.Name(0) != "x" || d.Name(2) != "z" {
		t.Errorf("names = %v", d.FullNames())
	}
}

func TestNew_NoLayersKeepsHeads(t *testing.T) {
	d, err := New(Spec{IDs: []string{"a", "b"}, Bounds: NewBounds(3, 2), Heads: 8})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := d.Dims(); got != (Dims{N: 2, B: 3, H: 8, L: 0}) {
		t.Errorf("Dims = %+v", got)
	}
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Spec)
		code   string
		layer  string
	}{
		{
			name:   "second layer wrong heads",
			mutate: func(s *Spec) { s.Layers = append(s.Layers, NewTensor4(1, 2, 3)) },
			code:   errors.ErrShapeMismatch,
			layer:  "1",
		},
		{
			name:   "ids do not match N",
			mutate: func(s *Spec) { s.IDs = []string{"A", "B"} },
			code:   errors.ErrShapeMismatch,
		},
		{
			name:   "bounds wrong batch count",
			mutate: func(s *Spec) { s.Bounds = NewBounds(2, 3) },
			code:   errors.ErrShapeMismatch,
		},
		{
			name:   "short data buffer",
			mutate: func(s *Spec) { s.Layers[0].Data = s.Layers[0].Data[:4] },
			code:   errors.ErrShapeMismatch,
			layer:  "0",
		},
		{
			name:   "full names length",
			mutate: func(s *Spec) { s.FullNames = []string{"x"} },
			code:   errors.ErrShapeMismatch,
		},
		{
			name:   "duplicate id",
			mutate: func(s *Spec) { s.IDs = []string{"A", "B", "A"} },
			code:   errors.ErrInvalidValue,
		},
		{
			name:   "no batches",
			mutate: func(s *Spec) { s.Layers = []Tensor4{NewTensor4(0, 1, 3)}; s.Bounds = NewBounds(0, 3) },
			code:   errors.ErrShapeMismatch,
		},
		{
			name:   "no heads",
			mutate: func(s *Spec) { s.Layers = []Tensor4{NewTensor4(1, 0, 3)} },
			code:   errors.ErrShapeMismatch,
		},
		{
			name:   "no batches without layers",
			mutate: func(s *Spec) { s.Layers = nil; s.Bounds = NewBounds(0, 3) },
			code:   errors.ErrShapeMismatch,
		},
		{
			name:   "NaN in layer",
			mutate: func(s *Spec) { s.Layers[0].Data[4] = float32(math.NaN()) },
			code:   errors.ErrNonFiniteValue,
		},
		{
			name:   "Inf in bounds",
			mutate: func(s *Spec) { s.Bounds.Data[0] = float32(math.Inf(1)) },
			code:   errors.ErrNonFiniteValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := scenarioSpec()
			tt.mutate(&spec)
			_, err := New(spec)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.IsCode(err, tt.code) {
				t.Fatalf("expected %s, got %v", tt.code, err)
			}
			if tt.layer != "" {
				ge, _ := errors.AsGraphError(err)
				if ge.Context["layer"] != tt.layer {
					t.Errorf("layer context = %q, want %q", ge.Context["layer"], tt.layer)
				}
			}
		})
	}
}

// -----------------------------------------------------------------------------
// Subset Tests
// -----------------------------------------------------------------------------

func TestSubset_HonorsOrderAndDuplicates(t *testing.T) {
	d := Random(Dims{N: 4, B: 3, H: 2, L: 2}, rand.New(rand.NewSource(1)), 0, 1)
	idxs := []int{2, 0, 2}

	sub, err := d.Subset(idxs)
	if err != nil {
		t.Fatalf("Subset: %v", err)
	}
	if sub.Dims().B != 3 {
		t.Fatalf("B = %d", sub.Dims().B)
	}
	for k, b := range idxs {
		got, want := sub.BoundRow(k), d.BoundRow(b)
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("bounds[%d] != source[%d]", k, b)
			}
		}
		for l := 0; l < 2; l++ {
			for h := 0; h < 2; h++ {
				gm, wm := sub.Matrix(l, k, h), d.Matrix(l, b, h)
				for i := range wm.Data {
					if gm.Data[i] != wm.Data[i] {
						t.Fatalf("layer %d head %d batch %d mismatch", l, h, k)
					}
				}
			}
		}
	}
}

func TestSubset_OutOfRange(t *testing.T) {
	d := Random(Dims{N: 2, B: 2, H: 1, L: 1}, rand.New(rand.NewSource(2)), 0, 1)
	if _, err := d.Subset([]int{0, 2}); !errors.IsCode(err, errors.ErrOutOfRange) {
		t.Errorf("expected OUT_OF_RANGE, got %v", err)
	}
	if _, err := d.Subset([]int{-1}); !errors.IsCode(err, errors.ErrOutOfRange) {
		t.Errorf("expected OUT_OF_RANGE, got %v", err)
	}
}

func TestSubset_Empty(t *testing.T) {
	d := Random(Dims{N: 2, B: 2, H: 1, L: 1}, rand.New(rand.NewSource(2)), 0, 1)
	for _, batches := range [][]int{nil, {}} {
		if _, err := d.Subset(batches); !errors.IsCode(err, errors.ErrShapeMismatch) {
			t.Errorf("Subset(%v): expected SHAPE_MISMATCH, got %v", batches, err)
		}
	}
}

// -----------------------------------------------------------------------------
// Tensor Tests
// -----------------------------------------------------------------------------

func TestTensor4_MatrixIsZeroCopy(t *testing.T) {
	tt := NewTensor4(2, 3, 4)
	tt.Set(1, 2, 3, 0, 7)
	m := tt.Matrix(1, 2)
	if m.At(3, 0) != 7 {
		t.Errorf("At = %v", m.At(3, 0))
	}
	tt.Set(1, 2, 0, 0, 5)
	if m.At(0, 0) != 5 {
		t.Error("Matrix should alias tensor data")
	}
}

func TestEqualWithin(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	a := Random(Dims{N: 3, B: 1, H: 1, L: 1}, rng, 0, 1)
	if !Equal(a, a) {
		t.Error("dataset should equal itself")
	}
	b, _ := a.Subset([]int{0})
	if !Equal(a, b) {
		t.Error("identity subset should be equal")
	}
	c := Random(Dims{N: 3, B: 1, H: 1, L: 1}, rng, 0, 1)
	if Equal(a, c) {
		t.Error("different random datasets should differ")
	}
}
