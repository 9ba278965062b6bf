package dataset

// Matrix is a row-major N×N attention matrix. Data aliases the backing
// tensor; callers must not write through it.
type Matrix struct {
	N    int
	Data []float32
}

// At returns the attention weight from row entity r to column entity c.
func (m Matrix) At(r, c int) float32 {
	return m.Data[r*m.N+c]
}

// Row returns row r without copying.
func (m Matrix) Row(r int) []float32 {
	return m.Data[r*m.N : (r+1)*m.N]
}

// Tensor4 is a dense B×H×N×N block stored batch-major, then head, then row,
// then column.
type Tensor4 struct {
	B, H, N int
	Data    []float32
}

// NewTensor4 allocates a zeroed B×H×N×N tensor.
func NewTensor4(b, h, n int) Tensor4 {
	return Tensor4{B: b, H: h, N: n, Data: make([]float32, b*h*n*n)}
}

// Shape returns (B, H, N, N).
func (t Tensor4) Shape() []int {
	return []int{t.B, t.H, t.N, t.N}
}

func (t Tensor4) offset(b, h, r, c int) int {
	return ((b*t.H+h)*t.N+r)*t.N + c
}

// At returns the element at (b, h, r, c).
func (t Tensor4) At(b, h, r, c int) float32 {
	return t.Data[t.offset(b, h, r, c)]
}

// Set writes the element at (b, h, r, c).
func (t Tensor4) Set(b, h, r, c int, v float32) {
	t.Data[t.offset(b, h, r, c)] = v
}

// Matrix returns the (b, h) slice as a zero-copy view.
func (t Tensor4) Matrix(b, h int) Matrix {
	start := t.offset(b, h, 0, 0)
	return Matrix{N: t.N, Data: t.Data[start : start+t.N*t.N]}
}

// selectBatches copies the listed batches, in order, into a new tensor.
func (t Tensor4) selectBatches(batches []int) Tensor4 {
	out := NewTensor4(len(batches), t.H, t.N)
	stride := t.H * t.N * t.N
	for k, b := range batches {
		copy(out.Data[k*stride:(k+1)*stride], t.Data[b*stride:(b+1)*stride])
	}
	return out
}

// Bounds is the B×N per-batch, per-entity magnitude matrix.
type Bounds struct {
	B, N int
	Data []float32
}

// NewBounds allocates a zeroed B×N bounds matrix.
func NewBounds(b, n int) Bounds {
	return Bounds{B: b, N: n, Data: make([]float32, b*n)}
}

// Shape returns (B, N).
func (b Bounds) Shape() []int {
	return []int{b.B, b.N}
}

// Row returns the bounds of batch i without copying.
func (b Bounds) Row(i int) []float32 {
	return b.Data[i*b.N : (i+1)*b.N]
}

func (b Bounds) selectBatches(batches []int) Bounds {
	out := NewBounds(len(batches), b.N)
	for k, i := range batches {
		copy(out.Row(k), b.Row(i))
	}
	return out
}
