// Package imaging holds the numeric pixel arrays exchanged between the
// DICOM decoder and the inference adapter, plus the geometric
// preprocessing the scoring model expects.
package imaging

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrRank is returned when an array is not two-dimensional after channel reduction.
	ErrRank = errors.New("pixel array is not two-dimensional")
	// ErrDegenerate is returned when a spatial dimension is smaller than 2.
	ErrDegenerate = errors.New("dimension lower than 2 for image")
	// ErrShape is returned when the data length does not match the shape.
	ErrShape = errors.New("pixel data does not match shape")
)

// Pixels is a dense row-major n-dimensional array. Decoded radiographs are
// [rows, cols] or, for color frames, [rows, cols, channels].
type Pixels struct {
	Shape []int
	Data  []float64
}

// NewPixels wraps data, checking that it matches shape.
func NewPixels(shape []int, data []float64) (Pixels, error) {
	p := Pixels{Shape: append([]int(nil), shape...), Data: data}
	if err := p.Validate(); err != nil {
		return Pixels{}, err
	}
	return p, nil
}

// Validate checks that no dimension is negative and that Data holds exactly
// the number of values Shape describes. It fails with ErrShape.
func (p Pixels) Validate() error {
	n := 1
	for _, d := range p.Shape {
		if d < 0 {
			return fmt.Errorf("%w: negative dimension in shape %v", ErrShape, p.Shape)
		}
		n *= d
	}
	if len(p.Shape) == 0 {
		n = 0
	}
	if n != len(p.Data) {
		return fmt.Errorf("%w: shape %v needs %d values, got %d", ErrShape, p.Shape, n, len(p.Data))
	}
	return nil
}

// Rank returns the number of dimensions.
func (p Pixels) Rank() int {
	return len(p.Shape)
}

// ReduceChannels keeps channel 0 of a [rows, cols, channels] array.
// Arrays of any other rank, and arrays whose data does not match their
// shape, are returned unchanged.
func (p Pixels) ReduceChannels() Pixels {
	if p.Rank() != 3 || p.Validate() != nil {
		return p
	}
	rows, cols, ch := p.Shape[0], p.Shape[1], p.Shape[2]
	if ch == 0 {
		return p
	}
	out := make([]float64, rows*cols)
	for i := range out {
		out[i] = p.Data[i*ch]
	}
	return Pixels{Shape: []int{rows, cols}, Data: out}
}

// Matrix validates that p is a usable single-channel image and returns it
// as a matrix. It fails with ErrShape, ErrRank or ErrDegenerate.
func (p Pixels) Matrix() (*mat.Dense, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Rank() < 2 {
		return nil, fmt.Errorf("%w: shape %v", ErrDegenerate, p.Shape)
	}
	if p.Rank() != 2 {
		return nil, fmt.Errorf("%w: shape %v", ErrRank, p.Shape)
	}
	if p.Shape[0] < 2 || p.Shape[1] < 2 {
		return nil, fmt.Errorf("%w: shape %v", ErrDegenerate, p.Shape)
	}
	return mat.NewDense(p.Shape[0], p.Shape[1], append([]float64(nil), p.Data...)), nil
}

// FromMatrix converts a matrix back to a rank-2 array.
func FromMatrix(m mat.Matrix) Pixels {
	r, c := m.Dims()
	d := mat.DenseCopyOf(m)
	return Pixels{Shape: []int{r, c}, Data: d.RawMatrix().Data}
}

// NormalizeRange linearly maps data onto [lo, hi]. A constant array maps to lo.
func NormalizeRange(data []float64, lo, hi float64) {
	if len(data) == 0 {
		return
	}
	minV, maxV := floats.Min(data), floats.Max(data)
	span := maxV - minV
	if span == 0 {
		for i := range data {
			data[i] = lo
		}
		return
	}
	scale := (hi - lo) / span
	floats.AddConst(-minV, data)
	floats.Scale(scale, data)
	floats.AddConst(lo, data)
}
