package attnbin

import (
	"fmt"
	"math/bits"
)

// Layout locates every section of an attnbin file.
type Layout struct {
	HeaderLen   int64
	N, B, H, L  int64
	Width       int64
	BoundsBytes int64
	LayerBytes  int64
	SliceBytes  int64
}

// NewLayout computes the section layout for a header of hdrLen bytes.
func NewLayout(h *Header, hdrLen int) Layout {
	n, b, hh := int64(h.N), int64(h.B), int64(h.H)
	w := int64(h.Dtype.Width())
	return Layout{
		HeaderLen:   int64(hdrLen),
		N:           n,
		B:           b,
		H:           hh,
		L:           int64(h.L),
		Width:       w,
		BoundsBytes: b * n * 4,
		LayerBytes:  b * hh * n * n * w,
		SliceBytes:  n * n * w,
	}
}

// productAtMost multiplies factors and reports false once the product would
// exceed limit. Factors are non-negative.
func productAtMost(limit int64, factors ...int64) (int64, bool) {
	for _, f := range factors {
		if f == 0 {
			return 0, true
		}
	}
	p := uint64(1)
	for _, f := range factors {
		hi, lo := bits.Mul64(p, uint64(f))
		if hi != 0 || lo > uint64(limit) {
			return 0, false
		}
		p = lo
	}
	return int64(p), true
}

// fits reports whether the sections declared by h fit in avail bytes after
// the header. It checks before any size is multiplied out in int64.
func fits(h *Header, avail int64) bool {
	n, b, hh, l := int64(h.N), int64(h.B), int64(h.H), int64(h.L)
	bounds, ok := productAtMost(avail, b, n, 4)
	if !ok {
		return false
	}
	_, ok = productAtMost(avail-bounds, l, b, hh, n, n, int64(h.Dtype.Width()))
	return ok
}

// BoundsOffset is the byte offset of the bounds block.
func (l Layout) BoundsOffset() int64 {
	return prefixLen + l.HeaderLen
}

// LayerOffset is the byte offset of layer i.
func (l Layout) LayerOffset(i int) int64 {
	return l.BoundsOffset() + l.BoundsBytes + int64(i)*l.LayerBytes
}

// SliceOffset is the byte offset of the (batch, head) matrix of layer.
func (l Layout) SliceOffset(layer, batch, head int) int64 {
	return l.LayerOffset(layer) + (int64(batch)*l.H+int64(head))*l.SliceBytes
}

// Total is the size of a complete file.
func (l Layout) Total() int64 {
	return l.LayerOffset(int(l.L))
}

// Summary renders the export summary lines.
func (l Layout) Summary() string {
	title := "Export summary:"
	if l.Width == 2 {
		title = "Export summary (fp16):"
	}
	return fmt.Sprintf("%s\n  Reactions:  %d\n  Batches:    %d\n  Heads:      %d\n  Layers:     %d\n"+
		"  Header:     %d bytes\n  Bounds:     %d bytes\n  Per layer:  %d bytes\n  Total file: %d bytes (%.1f MB)",
		title, l.N, l.B, l.H, l.L, l.HeaderLen, l.BoundsBytes, l.LayerBytes, l.Total(), float64(l.Total())/1e6)
}
