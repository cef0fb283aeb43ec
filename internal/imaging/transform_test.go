package imaging

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestCenterCrop_Shapes(t *testing.T) {
	// 4x6: every value encodes its column
	wide := mat.NewDense(4, 6, nil)
	wide.Apply(func(_, j int, _ float64) float64 { return float64(j) }, wide)

	got := CenterCrop(wide)
	if r, c := got.Dims(); r != 4 || c != 4 {
		t.Fatalf("CenterCrop() dims = %dx%d, want 4x4", r, c)
	}
	for j := 0; j < 4; j++ {
		if v := got.At(0, j); v != float64(j+1) {
			t.Errorf("CenterCrop() column %d = %v, want %v", j, v, j+1)
		}
	}

	// 5x3: every value encodes its row
	tall := mat.NewDense(5, 3, nil)
	tall.Apply(func(i, _ int, _ float64) float64 { return float64(i) }, tall)

	got = CenterCrop(tall)
	if r, c := got.Dims(); r != 3 || c != 3 {
		t.Fatalf("CenterCrop() dims = %dx%d, want 3x3", r, c)
	}
	if got.At(0, 0) != 1 || got.At(2, 0) != 3 {
		t.Errorf("CenterCrop() rows = [%v..%v], want [1..3]", got.At(0, 0), got.At(2, 0))
	}

	// The crop must not alias its input
	got.Set(0, 0, 100)
	if tall.At(1, 0) == 100 {
		t.Error("CenterCrop() result shares storage with its input")
	}
}

func TestResize_SameSize(t *testing.T) {
	m := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	got := Resize(m, 2)
	if !mat.Equal(got, m) {
		t.Errorf("Resize() to the same size changed values: %v", mat.Formatted(got))
	}
	got.Set(0, 0, 42)
	if m.At(0, 0) == 42 {
		t.Error("Resize() result shares storage with its input")
	}
}

func TestResize_Constant(t *testing.T) {
	m := mat.NewDense(3, 3, nil)
	m.Apply(func(_, _ int, _ float64) float64 { return -7.5 }, m)

	got := Resize(m, 5)
	if r, c := got.Dims(); r != 5 || c != 5 {
		t.Fatalf("Resize() dims = %dx%d, want 5x5", r, c)
	}
	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			if got.At(i, j) != -7.5 {
				t.Fatalf("Resize() of a constant image At(%d,%d) = %v", i, j, got.At(i, j))
			}
		}
	}
}

func TestResize_KeepsRangeAndOrder(t *testing.T) {
	// Horizontal ramp over [-1024, 1024]
	const n = 16
	m := mat.NewDense(n, n, nil)
	m.Apply(func(_, j int, _ float64) float64 { return -1024 + 2048*float64(j)/(n-1) }, m)

	got := Resize(m, 8)
	if r, c := got.Dims(); r != 8 || c != 8 {
		t.Fatalf("Resize() dims = %dx%d, want 8x8", r, c)
	}

	const eps = 1e-6
	for i := 0; i < 8; i++ {
		for j := 0; j < 8; j++ {
			v := got.At(i, j)
			if v < -1024-eps || v > 1024+eps || math.IsNaN(v) {
				t.Fatalf("Resize() At(%d,%d) = %v out of input range", i, j, v)
			}
			if j > 0 && v < got.At(i, j-1)-eps {
				t.Errorf("Resize() row %d not monotonic at column %d: %v < %v", i, j, v, got.At(i, j-1))
			}
		}
	}
}
