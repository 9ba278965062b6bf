package layout

import (
	"testing"
)

func TestCompute_Defaults(t *testing.T) {
	g := Compute(3, 2, DefaultConfig())

	wantY := []float64{50, 59, 68}
	for i, y := range wantY {
		if g.YPos[i] != y {
			t.Errorf("YPos[%d] = %v, want %v", i, g.YPos[i], y)
		}
	}
	wantX := []float64{230, 405, 580}
	if len(g.ColX) != 3 {
		t.Fatalf("len(ColX) = %d", len(g.ColX))
	}
	for c, x := range wantX {
		if g.ColX[c] != x {
			t.Errorf("ColX[%d] = %v, want %v", c, g.ColX[c], x)
		}
	}
	if g.Width != 580+22+30 {
		t.Errorf("Width = %v", g.Width)
	}
	if g.Height != 50+3*9+15 {
		t.Errorf("Height = %v", g.Height)
	}
	if g.BandX != 5 || g.BandW != 580+22-5 {
		t.Errorf("band = %v, %v", g.BandX, g.BandW)
	}
	if g.CenterY(1) != 63 {
		t.Errorf("CenterY(1) = %v", g.CenterY(1))
	}
}

func TestCompute_CustomRowGeometry(t *testing.T) {
	g := Compute(4, 0, Config{NodeHeight: 12, RowGap: 0})
	if g.YPos[3] != 50+3*12 {
		t.Errorf("YPos[3] = %v", g.YPos[3])
	}
	// zero NameBlockX is kept, so column 0 moves left by the default margin
	if len(g.ColX) != 1 || g.ColX[0] != 225 {
		t.Errorf("ColX = %v", g.ColX)
	}
}

func TestGeometry_Controls(t *testing.T) {
	g := Compute(10, 1, DefaultConfig())
	x1, x2 := g.EdgeSpan(0)
	if x1 != 252 || x2 != 405 {
		t.Errorf("EdgeSpan = %v, %v", x1, x2)
	}
	if g.SliderCenter(0) != 328.5 {
		t.Errorf("SliderCenter = %v", g.SliderCenter(0))
	}
	if g.SliderLeft(0) != 328.5-77.5 {
		t.Errorf("SliderLeft = %v", g.SliderLeft(0))
	}
}

func TestGeometry_ScrollTop(t *testing.T) {
	g := Compute(100, 1, DefaultConfig())
	tests := []struct {
		row      int
		viewport float64
		want     float64
	}{
		{0, 600, 0},
		{50, 600, 50 + 50*9 - 300 + 4},
		{99, 100, 50 + 99*9 - 50 + 4},
	}
	for _, tt := range tests {
		if got := g.ScrollTop(tt.row, tt.viewport); got != tt.want {
			t.Errorf("ScrollTop(%d, %v) = %v, want %v", tt.row, tt.viewport, got, tt.want)
		}
	}
}

func TestGeometry_BarWidths(t *testing.T) {
	g := Compute(3, 1, DefaultConfig())
	w := g.BarWidths([]float32{-2, 1, 0})
	if w[0] != 200 || w[1] != 100 || w[2] != 0 {
		t.Errorf("BarWidths = %v", w)
	}
	zero := g.BarWidths([]float32{0, 0})
	if zero[0] != 0 || zero[1] != 0 {
		t.Errorf("zero bounds = %v", zero)
	}
}

func TestColor_Cycles(t *testing.T) {
	if Color(0) != Color(12) {
		t.Error("palette should cycle every 12 columns")
	}
	if Color(0) == Color(1) {
		t.Error("adjacent columns should differ")
	}
}
