package export

import (
	"fmt"
	"io"
	"strconv"
)

// EstimateSize returns the planning estimate of an export's size in bytes.
// The header is assumed to take 500 + 20*N bytes.
func EstimateSize(n, b, h, l int, fp16 bool) int64 {
	bpf := int64(4)
	if fp16 {
		bpf = 2
	}
	N, B, H, L := int64(n), int64(b), int64(h), int64(l)
	header := 500 + 20*N
	return 4 + header + B*N*4 + L*B*H*N*N*bpf
}

// Scenario is one row of an estimate report.
type Scenario struct {
	N, B, H, L int
	FP16       bool
}

// DefaultScenarios are the planning scenarios: N=200, H=8, L=6 in fp16
// at 50, 100, 500 and 1000 batches.
func DefaultScenarios() []Scenario {
	out := make([]Scenario, 0, 4)
	for _, b := range []int{50, 100, 500, 1000} {
		out = append(out, Scenario{N: 200, B: b, H: 8, L: 6, FP16: true})
	}
	return out
}

// WriteEstimate writes the estimate block for s and returns the total.
func WriteEstimate(w io.Writer, s Scenario) (int64, error) {
	bpf := int64(4)
	dtype := "fp32"
	if s.FP16 {
		bpf, dtype = 2, "fp16"
	}
	n, b := int64(s.N), int64(s.B)
	bounds := b * n * 4
	layers := int64(s.L) * b * int64(s.H) * n * n * bpf
	total := EstimateSize(s.N, s.B, s.H, s.L, s.FP16)

	perBatch := 0.0
	if b > 0 {
		perBatch = float64(bounds+layers) / float64(b) / 1e6
	}
	_, err := fmt.Fprintf(w, "Estimate (%s): N=%d, B=%d, H=%d, L=%d\n"+
		"  Bounds:     %8.1f MB\n  Layers:     %8.1f MB\n  Total:      %8.1f MB  (%.2f GB)\n  Per-batch:  %.1f MB\n",
		dtype, s.N, s.B, s.H, s.L,
		float64(bounds)/1e6, float64(layers)/1e6, float64(total)/1e6, float64(total)/1e9, perBatch)
	return total, err
}

// WriteEstimates writes the report for every scenario, blank-line separated.
func WriteEstimates(w io.Writer, scenarios []Scenario) error {
	if _, err := io.WriteString(w, "=== Size estimates for common scenarios ===\n\n"); err != nil {
		return err
	}
	for _, s := range scenarios {
		if _, err := WriteEstimate(w, s); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}

func itoa(i int) string { return strconv.Itoa(i) }
